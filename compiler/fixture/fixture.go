package fixture

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowvm/compiler/build"
	"github.com/slowlang/slowvm/compiler/interp"
	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/tp"
)

type (
	// File is a scenario: a program and calls to run against it.
	File struct {
		Package string     `yaml:"package"`
		Funcs   []FuncSpec `yaml:"funcs"`
		Calls   []Call     `yaml:"calls"`
	}

	FuncSpec struct {
		Name   string      `yaml:"name"`
		Ret    string      `yaml:"ret"`
		Args   []VarSpec   `yaml:"args"`
		Locals []VarSpec   `yaml:"locals"`
		Entry  int         `yaml:"entry"`
		Blocks []BlockSpec `yaml:"blocks"`
	}

	VarSpec struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}

	// BlockSpec lists instructions in listing syntax: "add_i32 r p one".
	BlockSpec struct {
		Value string   `yaml:"value"`
		Code  []string `yaml:"code"`
	}

	Call struct {
		Func  string  `yaml:"func"`
		Args  []int32 `yaml:"args"`
		Want  *int32  `yaml:"want"`
		Void  bool    `yaml:"void"`
		Fault string  `yaml:"fault"`
	}

	Result struct {
		Call

		Value interp.Value
		Err   error

		// Mismatch is nil if the result matches the expectation.
		Mismatch error
	}
)

// Parse decodes a scenario. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)

	err := d.Decode(&f)
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	return &f, nil
}

// Program builds and verifies the functions of the scenario.
func (f *File) Program(ctx context.Context) (_ *ir.Package, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "fixture: build program", "package", f.Package)
	defer tr.Finish("err", &err)

	p := &ir.Package{Path: f.Package}

	for _, fs := range f.Funcs {
		fn, err := fs.build(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", fs.Name)
		}

		p.Funcs = append(p.Funcs, fn)
	}

	return p, nil
}

func (fs *FuncSpec) build(ctx context.Context) (*ir.Func, error) {
	ret := tp.Void

	if fs.Ret != "" {
		var ok bool

		ret, ok = tp.Parse(fs.Ret)
		if !ok {
			return nil, errors.New("unknown return type: %v", fs.Ret)
		}
	}

	b := build.New(fs.Name, ret)

	for _, list := range []struct {
		specs []VarSpec
		add   func(string, tp.Type) ir.Var
	}{
		{fs.Args, b.Arg},
		{fs.Locals, b.Local},
	} {
		for _, vs := range list.specs {
			t, ok := tp.Parse(vs.Type)
			if !ok {
				return nil, errors.New("var %v: unknown type: %v", vs.Name, vs.Type)
			}

			list.add(vs.Name, t)
		}
	}

	for i, bs := range fs.Blocks {
		if bs.Value == "" {
			b.Block()
			continue
		}

		v, ok := b.Lookup(bs.Value)
		if !ok {
			return nil, errors.New("block %d: undefined value var: %v", i, bs.Value)
		}

		b.BlockValue(v)
	}

	for i, bs := range fs.Blocks {
		for j, line := range bs.Code {
			x, err := parseInstr(line, b.Lookup)
			if err != nil {
				return nil, errors.Wrap(err, "b%d:%d: %q", i, j, line)
			}

			b.Emit(ir.BlockID(i), x)
		}
	}

	if fs.Entry != 0 {
		b.Entry(ir.BlockID(fs.Entry))
	}

	return b.Finish(ctx)
}

func parseInstr(line string, lookup func(name string) (ir.Var, bool)) (ir.Instr, error) {
	fs := strings.Fields(line)
	if len(fs) == 0 {
		return nil, errors.New("empty instruction")
	}

	op, ops := fs[0], fs[1:]

	want := func(n ...int) error {
		for _, n := range n {
			if len(ops) == n {
				return nil
			}
		}

		return errors.New("%v: expected %v operands, got %d", op, n, len(ops))
	}

	var err error

	v := func(i int) ir.Var {
		x, ok := lookup(ops[i])
		if !ok && err == nil {
			err = errors.New("undefined var: %v", ops[i])
		}

		if !ok {
			return ir.Nil
		}

		return x
	}

	blk := func(i int) ir.BlockID {
		n, e := strconv.Atoi(strings.TrimPrefix(ops[i], "b"))
		if e != nil && err == nil {
			err = errors.New("bad block: %v", ops[i])
		}

		if e != nil {
			return ir.NoBlock
		}

		return ir.BlockID(n)
	}

	carry := func(i int) ir.Var {
		if len(ops) <= i {
			return ir.Nil
		}

		return v(i)
	}

	var x ir.Instr

	switch op {
	case "add_i32", "sub_i32", "mul_i32", "div_i32", "eq_i32", "neq_i32":
		if err := want(3); err != nil {
			return nil, err
		}

		x = binary(op, v(0), v(1), v(2))
	case "set_imm":
		if err := want(2); err != nil {
			return nil, err
		}

		imm, e := strconv.ParseInt(ops[1], 0, 32)
		if e != nil {
			return nil, errors.Wrap(e, "immediate")
		}

		x = ir.SetImm{Dst: v(0), Imm: int32(imm)}
	case "val", "val_cpy", "set_prm":
		if err := want(1); err != nil {
			return nil, err
		}

		switch op {
		case "val":
			x = ir.Val{Src: v(0)}
		case "val_cpy":
			x = ir.ValCpy{Src: v(0)}
		default:
			x = ir.SetPrm{Dst: v(0)}
		}
	case "set_var":
		if err := want(2); err != nil {
			return nil, err
		}

		x = ir.SetVar{Dst: v(0), Src: v(1)}
	case "jmp":
		if err := want(1, 2); err != nil {
			return nil, err
		}

		x = ir.Jmp{Block: blk(0), Carry: carry(1)}
	case "jmp_eq":
		if err := want(2, 3); err != nil {
			return nil, err
		}

		x = ir.JmpEq{Cond: v(0), Block: blk(1), Carry: carry(2)}
	case "jmp_neq":
		if err := want(2, 3); err != nil {
			return nil, err
		}

		x = ir.JmpNeq{Cond: v(0), Block: blk(1), Carry: carry(2)}
	default:
		return nil, errors.New("unknown op: %v", op)
	}

	if err != nil {
		return nil, err
	}

	return x, nil
}

func binary(op string, dst, l, r ir.Var) ir.Instr {
	switch op {
	case "add_i32":
		return ir.AddI32{Dst: dst, L: l, R: r}
	case "sub_i32":
		return ir.SubI32{Dst: dst, L: l, R: r}
	case "mul_i32":
		return ir.MulI32{Dst: dst, L: l, R: r}
	case "div_i32":
		return ir.DivI32{Dst: dst, L: l, R: r}
	case "eq_i32":
		return ir.EqI32{Dst: dst, L: l, R: r}
	default:
		return ir.NeqI32{Dst: dst, L: l, R: r}
	}
}

// Filter returns the calls to the named function.
// An empty name keeps them all.
func Filter(calls []Call, name string) []Call {
	if name == "" {
		return calls
	}

	var r []Call

	for _, c := range calls {
		if c.Func == name {
			r = append(r, c)
		}
	}

	return r
}

// Run executes calls against p in order.
func Run(ctx context.Context, it *interp.Interp, p *ir.Package, calls []Call) (rs []Result, err error) {
	for _, c := range calls {
		args := make([]interp.Value, len(c.Args))

		for i, a := range c.Args {
			args[i] = interp.I32(a)
		}

		r := Result{Call: c}

		r.Value, r.Err = it.CallName(ctx, p, c.Func, args)

		if _, ok := interp.FaultKindOf(r.Err); r.Err != nil && !ok {
			return rs, errors.Wrap(r.Err, "call %v", c.Func)
		}

		r.Mismatch = c.Check(r.Value, r.Err)

		rs = append(rs, r)
	}

	return rs, nil
}

// Check compares a call outcome with the expectation.
func (c Call) Check(v interp.Value, err error) error {
	if c.Fault != "" {
		want, ok := interp.ParseFaultKind(c.Fault)
		if !ok {
			return errors.New("unknown fault kind: %v", c.Fault)
		}

		got, ok := interp.FaultKindOf(err)

		switch {
		case !ok && err != nil:
			return errors.Wrap(err, "expected fault %v", want)
		case !ok:
			return errors.New("expected fault %v, returned %v", want, v)
		case got != want:
			return errors.New("expected fault %v, got %v", want, err)
		}

		return nil
	}

	if err != nil {
		return errors.Wrap(err, "unexpected fault")
	}

	if c.Void && v.Type != tp.Void {
		return errors.New("expected void, returned %v", v)
	}

	if c.Want != nil && (v.Type != tp.I32 || v.I32 != *c.Want) {
		return errors.New("expected %d, returned %v", *c.Want, v)
	}

	return nil
}
