package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slowlang/slowvm/compiler/tp"
)

func testFunc() *Func {
	return &Func{
		Name: "f",
		Vars: []VarDecl{
			{Name: "x", Type: tp.I32},
			{Name: "y", Type: tp.I32},
			{Name: "p", Type: tp.I32},
			{Name: "q", Type: tp.I32},
		},
		Args:   []Var{0, 1},
		Locals: []Var{2, 3},
		Ret:    tp.I32,
		Blocks: []Block{
			{},
			BlockValue(3),
		},
	}
}

func TestFuncLookups(t *testing.T) {
	f := testFunc()

	v, ok := f.Lookup("p")
	assert.True(t, ok)
	assert.Equal(t, Var(2), v)

	_, ok = f.Lookup("z")
	assert.False(t, ok)

	_, ok = f.Var(Nil)
	assert.False(t, ok)

	_, ok = f.Block(2)
	assert.False(t, ok)

	b, ok := f.Block(1)
	if assert.True(t, ok) {
		v, ok := b.ValueVar()
		assert.True(t, ok)
		assert.Equal(t, Var(3), v)
	}
}

func TestParamIndex(t *testing.T) {
	f := testFunc()

	assert.Equal(t, 0, f.ParamIndex(0))
	assert.Equal(t, 1, f.ParamIndex(1))
	assert.Equal(t, 0, f.ParamIndex(2))
	assert.Equal(t, 1, f.ParamIndex(3))
	assert.Equal(t, -1, f.ParamIndex(10))
}

func TestOperands(t *testing.T) {
	for _, tc := range []struct {
		x      Instr
		op     string
		reads  []Var
		writes Var
	}{
		{AddI32{Dst: 0, L: 1, R: 2}, "add_i32", []Var{1, 2}, 0},
		{NeqI32{Dst: 2, L: 0, R: 0}, "neq_i32", []Var{0, 0}, 2},
		{SetImm{Dst: 1, Imm: 5}, "set_imm", nil, 1},
		{Val{Src: 3}, "val", []Var{3}, Nil},
		{ValCpy{Src: 3}, "val_cpy", []Var{3}, Nil},
		{SetVar{Dst: 1, Src: 2}, "set_var", []Var{2}, 1},
		{SetPrm{Dst: 2}, "set_prm", nil, 2},
		{Jump(1), "jmp", nil, Nil},
		{JumpWith(1, 2), "jmp", []Var{2}, Nil},
		{JumpEq(0, 1), "jmp_eq", []Var{0}, Nil},
		{JmpNeq{Cond: 0, Block: 1, Carry: 3}, "jmp_neq", []Var{0, 3}, Nil},
	} {
		assert.Equal(t, tc.op, Op(tc.x))
		assert.Equal(t, tc.reads, Reads(tc.x), "%v", tc.op)
		assert.Equal(t, tc.writes, Writes(tc.x), "%v", tc.op)
	}

	assert.Equal(t, "", Op(nil))

	b, c, ok := Target(JumpWith(4, 2))
	assert.True(t, ok)
	assert.Equal(t, BlockID(4), b)
	assert.Equal(t, Var(2), c)

	_, _, ok = Target(Val{Src: 1})
	assert.False(t, ok)
}

func TestPackageFunc(t *testing.T) {
	f := testFunc()
	p := &Package{Path: "main", Funcs: []*Func{f}}

	assert.Same(t, f, p.Func("f"))
	assert.Nil(t, p.Func("g"))
}
