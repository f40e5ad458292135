package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type id int

func TestBits(t *testing.T) {
	s := MakeBits[id]()

	s.Set(1)
	s.Set(3)
	s.Set(200)

	assert.True(t, s.IsSet(1))
	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(2))
	assert.False(t, s.IsSet(-1))
	assert.False(t, s.IsSet(1000))
	assert.Equal(t, 3, s.Size())

	var got []id
	s.Range(func(k id) bool {
		got = append(got, k)
		return len(got) < 2
	})

	assert.Equal(t, []id{1, 3}, got)
}

func TestBitsZeroValue(t *testing.T) {
	var s Bits[int]

	assert.False(t, s.IsSet(5))

	s.Set(70)
	assert.True(t, s.IsSet(70))
}

func TestBitmap(t *testing.T) {
	s := MakeBitmap(10)

	s.Set(0)
	s.Set(64)
	s.Set(130)

	assert.True(t, s.IsSet(0))
	assert.True(t, s.IsSet(64))
	assert.True(t, s.IsSet(130))
	assert.False(t, s.IsSet(63))
	assert.False(t, s.IsSet(-3))
	assert.False(t, s.IsSet(1000))

	big := MakeBitmap(200)
	big.Set(199)
	assert.True(t, big.IsSet(199))
}
