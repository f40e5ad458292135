package fixture

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/slowvm/compiler/interp"
	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/tp"
)

func TestScenarios(t *testing.T) {
	ctx := context.Background()

	data, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)

	f, err := Parse(data)
	require.NoError(t, err)

	p, err := f.Program(ctx)
	require.NoError(t, err)
	require.Len(t, p.Funcs, 5)

	rs, err := Run(ctx, &interp.Interp{StepLimit: 10000}, p, f.Calls)
	require.NoError(t, err)
	require.Len(t, rs, len(f.Calls))

	for _, r := range rs {
		assert.NoError(t, r.Mismatch, "%v(%v)", r.Func, r.Args)
	}
}

func TestFilter(t *testing.T) {
	calls := []Call{
		{Func: "add_one", Args: []int32{1}},
		{Func: "div", Args: []int32{4, 2}},
		{Func: "add_one", Args: []int32{2}},
	}

	assert.Equal(t, calls, Filter(calls, ""))
	assert.Equal(t, []Call{calls[0], calls[2]}, Filter(calls, "add_one"))
	assert.Equal(t, []Call{calls[1]}, Filter(calls, "div"))
	assert.Empty(t, Filter(calls, "missing"))
}

func TestParseInstr(t *testing.T) {
	f := &ir.Func{Vars: []ir.VarDecl{
		{Name: "a", Type: tp.I32},
		{Name: "b", Type: tp.I32},
		{Name: "c", Type: tp.I32},
	}}

	for _, tc := range []struct {
		line string
		want ir.Instr
	}{
		{"add_i32 a b c", ir.AddI32{Dst: 0, L: 1, R: 2}},
		{"eq_i32 c a a", ir.EqI32{Dst: 2, L: 0, R: 0}},
		{"set_imm a -0x10", ir.SetImm{Dst: 0, Imm: -16}},
		{"val_cpy b", ir.ValCpy{Src: 1}},
		{"set_var a b", ir.SetVar{Dst: 0, Src: 1}},
		{"set_prm c", ir.SetPrm{Dst: 2}},
		{"jmp b3", ir.Jump(3)},
		{"jmp 3 a", ir.JumpWith(3, 0)},
		{"jmp_eq a b1", ir.JumpEq(0, 1)},
		{"jmp_neq a b1 c", ir.JmpNeq{Cond: 0, Block: 1, Carry: 2}},
	} {
		x, err := parseInstr(tc.line, f.Lookup)
		if assert.NoError(t, err, tc.line) {
			assert.Equal(t, tc.want, x, tc.line)
		}
	}

	for _, line := range []string{
		"",
		"nop",
		"add_i32 a b",
		"add_i32 a b z",
		"set_imm a 99999999999",
		"jmp bx",
		"jmp_eq a",
	} {
		_, err := parseInstr(line, f.Lookup)
		assert.Error(t, err, "%q", line)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("package: x\nfuncs:\n  - name: f\n    retrun: i32\n"))
	assert.Error(t, err)
}

func TestProgramErrors(t *testing.T) {
	ctx := context.Background()

	for _, text := range []string{
		"funcs:\n  - name: f\n    ret: i64\n",
		"funcs:\n  - name: f\n    args: [{name: x, type: bool}]\n",
		"funcs:\n  - name: f\n    blocks: [{value: nope}]\n",
		"funcs:\n  - name: f\n    blocks: [{code: [val nope]}]\n",
		"funcs:\n  - name: f\n    ret: i32\n    blocks: [{code: []}]\n",
	} {
		f, err := Parse([]byte(text))
		require.NoError(t, err, text)

		_, err = f.Program(ctx)
		assert.Error(t, err, text)
	}
}

func TestCheck(t *testing.T) {
	six := int32(6)

	assert.NoError(t, Call{Want: &six}.Check(interp.I32(6), nil))
	assert.Error(t, Call{Want: &six}.Check(interp.I32(7), nil))
	assert.Error(t, Call{Want: &six}.Check(interp.Void, nil))

	assert.NoError(t, Call{Void: true}.Check(interp.Void, nil))
	assert.Error(t, Call{Void: true}.Check(interp.I32(0), nil))

	fault := &interp.Fault{Kind: interp.DivisionByZero, Index: -1, Var: ir.Nil}

	assert.NoError(t, Call{Fault: "DivisionByZero"}.Check(interp.Value{}, fault))
	assert.Error(t, Call{Fault: "TypeMismatch"}.Check(interp.Value{}, fault))
	assert.Error(t, Call{Fault: "DivisionByZero"}.Check(interp.I32(1), nil))
	assert.Error(t, Call{Fault: "NoSuchKind"}.Check(interp.Value{}, fault))
	assert.Error(t, Call{Want: &six}.Check(interp.Value{}, fault))
}
