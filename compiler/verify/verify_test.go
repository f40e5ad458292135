package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/tp"
)

func valid() *ir.Func {
	return &ir.Func{
		Name: "max",
		Vars: []ir.VarDecl{
			{Name: "a", Type: tp.I32},
			{Name: "b", Type: tp.I32},
			{Name: "c", Type: tp.I32},
			{Name: "r", Type: tp.I32},
		},
		Args:   []ir.Var{0, 1},
		Locals: []ir.Var{2, 3},
		Ret:    tp.I32,
		Blocks: []ir.Block{
			{Code: []ir.Instr{
				ir.SubI32{Dst: 2, L: 0, R: 1},
				ir.JumpEq(2, 1),
				ir.Val{Src: 1},
			}},
			ir.BlockValue(3,
				ir.SetVar{Dst: 3, Src: 0},
			),
			ir.BlockValue(3),
		},
	}
}

func errs(t *testing.T, err error) List {
	t.Helper()

	require.Error(t, err)

	l, ok := err.(List)
	require.True(t, ok, "%T", err)

	return l
}

func TestValid(t *testing.T) {
	assert.NoError(t, Func(valid()))
}

func TestDeclarations(t *testing.T) {
	f := valid()
	f.Vars[1].Name = "a"
	f.Vars[2].Type = tp.Void
	f.Locals = []ir.Var{1, 3}

	l := errs(t, Func(f))

	var msgs []string
	for _, e := range l {
		msgs = append(msgs, e.Msg)
	}

	assert.Contains(t, msgs, `var 1: name "a" already used by var 0`)
	assert.Contains(t, msgs, "var c: invalid type void")
	assert.Contains(t, msgs, "var a declared twice in arguments and locals")
	assert.Contains(t, msgs, "var c is neither an argument nor a local")
}

func TestInstructions(t *testing.T) {
	f := valid()
	f.Blocks[0].Code = []ir.Instr{
		ir.AddI32{Dst: 9, L: 0, R: 1},
		ir.JumpEq(2, 7),
		nil,
		ir.Val{Src: 3},
	}

	l := errs(t, Func(f))
	require.Len(t, l, 3)

	assert.Equal(t, ir.BlockID(0), l[0].Block)
	assert.Equal(t, 0, l[0].Index)
	assert.Equal(t, "var 9 is not declared", l[0].Msg)

	assert.Equal(t, 1, l[1].Index)
	assert.Equal(t, "jump target 7 out of range [0, 3)", l[1].Msg)

	assert.Equal(t, 2, l[2].Index)
	assert.Equal(t, "invalid instruction <nil>", l[2].Msg)

	assert.Equal(t, "max: b0:0: var 9 is not declared", l[0].Error())
	assert.Contains(t, l.Error(), "3 errors:")
}

func TestFallthroughType(t *testing.T) {
	f := valid()
	f.Ret = tp.Void

	l := errs(t, Func(f))
	require.Len(t, l, 3)

	for _, e := range l {
		assert.Equal(t, "falls through with i32, function returns void", e.Msg)
	}

	f = valid()
	f.Blocks[2] = ir.Block{}

	l = errs(t, Func(f))
	require.Len(t, l, 1)
	assert.Equal(t, ir.BlockID(2), l[0].Block)
}

func TestZeroBlockHasNoValue(t *testing.T) {
	f := &ir.Func{
		Name:   "f",
		Vars:   []ir.VarDecl{{Name: "x", Type: tp.I32}},
		Args:   []ir.Var{0},
		Ret:    tp.I32,
		Blocks: []ir.Block{{}},
	}

	l := errs(t, Func(f))
	require.Len(t, l, 1)
	assert.Equal(t, "falls through with void, function returns i32", l[0].Msg)
}

func TestSetPrm(t *testing.T) {
	f := valid()
	f.Locals = append(f.Locals, 4)
	f.Vars = append(f.Vars, ir.VarDecl{Name: "extra", Type: tp.I32})
	f.Blocks[2].Code = []ir.Instr{
		ir.SetPrm{Dst: 3},
		ir.SetPrm{Dst: 4},
	}

	l := errs(t, Func(f))
	require.Len(t, l, 1)
	assert.Equal(t, "set_prm extra: no parameter at position 2", l[0].Msg)
}

func TestEntry(t *testing.T) {
	f := valid()
	f.Entry = 5

	l := errs(t, Func(f))
	require.Len(t, l, 1)
	assert.Equal(t, ir.NoBlock, l[0].Block)
	assert.Equal(t, "max: entry block 5 out of range [0, 3)", l[0].Error())
}

func TestPackage(t *testing.T) {
	p := &ir.Package{Funcs: []*ir.Func{valid(), valid()}}

	l := errs(t, Package(p))
	require.Len(t, l, 1)
	assert.Equal(t, "function redefined", l[0].Msg)

	p.Funcs[1].Name = "min"
	assert.NoError(t, Package(p))
}

func TestUnreachable(t *testing.T) {
	f := valid()
	assert.Equal(t, []ir.BlockID{2}, Unreachable(f))

	f.Blocks[0].Code = []ir.Instr{
		ir.Jump(2),
		ir.JumpEq(0, 1),
	}

	assert.Equal(t, []ir.BlockID{1}, Unreachable(f))

	f.Blocks = append(f.Blocks, ir.Block{Code: []ir.Instr{ir.Jump(1)}})
	assert.Equal(t, []ir.BlockID{1, 3}, Unreachable(f))
}
