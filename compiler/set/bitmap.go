package set

type (
	// Bitmap is a dense set of non-negative ints sized up front.
	Bitmap struct {
		b  []uint64
		b0 [1]uint64
	}
)

func MakeBitmap(n int) Bitmap {
	var s Bitmap

	if w := (n + 63) / 64; w > len(s.b0) {
		s.b = make([]uint64, w)
	} else {
		s.b = s.b0[:]
	}

	return s
}

func (s *Bitmap) Set(i int) {
	w := i / 64

	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[w] |= 1 << (i % 64)
}

func (s *Bitmap) IsSet(i int) bool {
	if i < 0 || i/64 >= len(s.b) {
		return false
	}

	return s.b[i/64]&(1<<(i%64)) != 0
}
