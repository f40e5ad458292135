package interp

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/set"
	"github.com/slowlang/slowvm/compiler/tp"
)

type (
	// Interp executes ir functions.
	// It holds configuration only and is safe for concurrent use.
	Interp struct {
		// StepLimit bounds the number of executed instructions per call.
		// Zero means no limit.
		StepLimit int64

		// CheckEvery is how many steps pass between ctx.Err checks.
		// Zero means DefaultCheckEvery.
		CheckEvery int64
	}

	// frame is the per-call state: environment and program counter.
	frame struct {
		f    *ir.Func
		args []Value

		env []Value
		set set.Bits[ir.Var]

		b   ir.BlockID
		blk *ir.Block
		pc  int

		pending    Value
		hasPending bool

		steps int64
	}
)

const DefaultCheckEvery = 1024

// Call runs f with the default Interp configuration.
func Call(ctx context.Context, f *ir.Func, args ...Value) (Value, error) {
	var it Interp

	return it.Call(ctx, f, args)
}

// CallName looks up the function by name in p and calls it.
func (it *Interp) CallName(ctx context.Context, p *ir.Package, name string, args []Value) (Value, error) {
	var f *ir.Func
	if p != nil {
		f = p.Func(name)
	}

	if f == nil {
		return Value{}, &Fault{Kind: UnknownFunction, Func: name, Index: -1, Var: ir.Nil}
	}

	return it.Call(ctx, f, args)
}

// Call executes f with args. It returns the produced value,
// a *Fault if execution faulted, or the wrapped ctx error if ctx was canceled.
func (it *Interp) Call(ctx context.Context, f *ir.Func, args []Value) (res Value, err error) {
	if f == nil {
		return Value{}, &Fault{Kind: UnknownFunction, Index: -1, Var: ir.Nil, Msg: "nil function"}
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "interp: call", "func", f.Name, "args", args)
	defer tr.Finish("res", &res, "err", &err)

	fr := &frame{
		f:    f,
		args: args,
		env:  make([]Value, len(f.Vars)),
		set:  set.MakeBits[ir.Var](),
	}

	err = fr.bind()
	if err != nil {
		return Value{}, err
	}

	res, err = it.run(ctx, tr, fr)

	if tr.If("dump_env") {
		tr.Printw("env", "assigned", fr.set, "of", len(f.Vars), "n", fr.set.Size())

		fr.set.Range(func(v ir.Var) bool {
			tr.Printw("env", "var", v, "name", f.Vars[v].Name, "val", fr.env[v])

			return true
		})
	}

	return res, err
}

func (it *Interp) run(ctx context.Context, tr tlog.Span, fr *frame) (Value, error) {
	every := it.CheckEvery
	if every <= 0 {
		every = DefaultCheckEvery
	}

	err := fr.enter(fr.f.Entry)
	if err != nil {
		return Value{}, err
	}

	for {
		if fr.pc >= len(fr.blk.Code) {
			return fr.result()
		}

		if it.StepLimit > 0 && fr.steps >= it.StepLimit {
			return Value{}, fr.fault(StepLimitExceeded, ir.Nil, "%d steps", fr.steps)
		}

		if fr.steps%every == every-1 {
			if err := ctx.Err(); err != nil {
				return Value{}, errors.Wrap(err, "func %v: step %d", fr.f.Name, fr.steps)
			}
		}

		fr.steps++

		x := fr.blk.Code[fr.pc]

		if tr.If("trace_steps") {
			tr.Printw("step", "block", fr.b, "pc", fr.pc, "op", ir.Op(x), "typ", tlog.NextAsType, x, "x", x)
		}

		err = fr.step(x)
		if err != nil {
			return Value{}, err
		}
	}
}

func (fr *frame) bind() error {
	f := fr.f

	if len(fr.args) != len(f.Args) {
		return &Fault{Kind: ArityMismatch, Func: f.Name, Index: -1, Var: ir.Nil,
			Msg: fmt.Sprintf("expected %d arguments, got %d", len(f.Args), len(fr.args))}
	}

	for i, a := range f.Args {
		d, ok := f.Var(a)
		if !ok {
			return &Fault{Kind: UnknownVariable, Func: f.Name, Index: -1, Var: a, Msg: "argument is not declared"}
		}

		if fr.args[i].Type != d.Type {
			return &Fault{Kind: TypeMismatch, Func: f.Name, Index: -1, Var: a,
				Msg: fmt.Sprintf("argument %d: expected %v, got %v", i, d.Type, fr.args[i].Type)}
		}

		fr.env[a] = fr.args[i]
		fr.set.Set(a)
	}

	return nil
}

// step executes one instruction and advances the program counter.
func (fr *frame) step(x ir.Instr) (err error) {
	switch x := x.(type) {
	case ir.AddI32:
		return fr.arith(x.Dst, x.L, x.R, func(l, r int32) int32 { return l + r })
	case ir.SubI32:
		return fr.arith(x.Dst, x.L, x.R, func(l, r int32) int32 { return l - r })
	case ir.MulI32:
		return fr.arith(x.Dst, x.L, x.R, func(l, r int32) int32 { return l * r })
	case ir.DivI32:
		r, err := fr.readI32(x.R)
		if err != nil {
			return err
		}

		if r == 0 {
			return fr.fault(DivisionByZero, x.R, "")
		}

		return fr.arith(x.Dst, x.L, x.R, func(l, r int32) int32 { return l / r })
	case ir.EqI32:
		return fr.compare(x.Dst, x.L, x.R, true)
	case ir.NeqI32:
		return fr.compare(x.Dst, x.L, x.R, false)
	case ir.SetImm:
		err = fr.write(x.Dst, I32(x.Imm))
	case ir.Val:
		err = fr.produce(x.Src, false)
	case ir.ValCpy:
		err = fr.produce(x.Src, true)
	case ir.SetVar:
		var v Value

		v, err = fr.read(x.Src)
		if err != nil {
			return err
		}

		err = fr.write(x.Dst, v)
	case ir.SetPrm:
		p := fr.f.ParamIndex(x.Dst)
		if p < 0 || p >= len(fr.args) {
			return fr.fault(ArityMismatch, x.Dst, "no parameter at position %d", p)
		}

		err = fr.write(x.Dst, fr.args[p])
	case ir.Jmp:
		return fr.jump(x.Block, x.Carry)
	case ir.JmpEq:
		return fr.branch(x.Cond, true, x.Block, x.Carry)
	case ir.JmpNeq:
		return fr.branch(x.Cond, false, x.Block, x.Carry)
	default:
		return fr.fault(InvalidInstruction, ir.Nil, "%T", x)
	}

	if err != nil {
		return err
	}

	fr.pc++

	return nil
}

func (fr *frame) arith(dst, lv, rv ir.Var, op func(l, r int32) int32) error {
	l, err := fr.readI32(lv)
	if err != nil {
		return err
	}

	r, err := fr.readI32(rv)
	if err != nil {
		return err
	}

	err = fr.write(dst, I32(op(l, r)))
	if err != nil {
		return err
	}

	fr.pc++

	return nil
}

func (fr *frame) compare(dst, lv, rv ir.Var, eq bool) error {
	return fr.arith(dst, lv, rv, func(l, r int32) int32 {
		if (l == r) == eq {
			return 1
		}

		return 0
	})
}

func (fr *frame) produce(src ir.Var, cpy bool) error {
	v, err := fr.read(src)
	if err != nil {
		return err
	}

	if cpy {
		v = v.Copy()
	}

	fr.pending = v
	fr.hasPending = true

	return nil
}

func (fr *frame) branch(cond ir.Var, want bool, target ir.BlockID, carry ir.Var) error {
	if _, ok := fr.f.Var(cond); ok && !fr.set.IsSet(cond) {
		return fr.fault(TypeMismatch, cond, "condition %v is unset", fr.f.Vars[cond].Name)
	}

	c, err := fr.readI32(cond)
	if err != nil {
		return err
	}

	if (c != 0) != want {
		fr.pc++

		return nil
	}

	return fr.jump(target, carry)
}

func (fr *frame) jump(target ir.BlockID, carry ir.Var) (err error) {
	var v Value

	if carry != ir.Nil {
		v, err = fr.read(carry)
		if err != nil {
			return err
		}
	}

	blk, ok := fr.f.Block(target)
	if !ok {
		return fr.fault(InvalidJumpTarget, ir.Nil, "block %d of %d", target, len(fr.f.Blocks))
	}

	if slot, ok := blk.ValueVar(); ok && carry != ir.Nil {
		err = fr.write(slot, v)
		if err != nil {
			return err
		}
	}

	return fr.enter(target)
}

// enter moves the program counter to the start of block id.
func (fr *frame) enter(id ir.BlockID) error {
	blk, ok := fr.f.Block(id)
	if !ok {
		return fr.fault(InvalidJumpTarget, ir.Nil, "block %d of %d", id, len(fr.f.Blocks))
	}

	fr.b = id
	fr.blk = blk
	fr.pc = 0
	fr.hasPending = false

	return nil
}

func (fr *frame) result() (v Value, err error) {
	slot, ok := fr.blk.ValueVar()

	switch {
	case fr.hasPending:
		v = fr.pending
	case ok:
		v, err = fr.read(slot)
		if err != nil {
			return Value{}, err
		}
	default:
		v = Void
	}

	if v.Type != fr.f.Ret {
		return Value{}, fr.fault(TypeMismatch, slot, "returned %v, declared %v", v.Type, fr.f.Ret)
	}

	return v, nil
}

func (fr *frame) read(v ir.Var) (Value, error) {
	if _, ok := fr.f.Var(v); !ok {
		return Value{}, fr.fault(UnknownVariable, v, "")
	}

	if !fr.set.IsSet(v) {
		return Value{}, fr.fault(UseOfUnsetVariable, v, "%v", fr.f.Vars[v].Name)
	}

	return fr.env[v], nil
}

func (fr *frame) readI32(v ir.Var) (int32, error) {
	x, err := fr.read(v)
	if err != nil {
		return 0, err
	}

	if x.Type != tp.I32 {
		return 0, fr.fault(TypeMismatch, v, "expected i32, got %v", x.Type)
	}

	return x.I32, nil
}

func (fr *frame) write(dst ir.Var, x Value) error {
	d, ok := fr.f.Var(dst)
	if !ok {
		return fr.fault(UnknownVariable, dst, "")
	}

	if d.Type != x.Type {
		return fr.fault(TypeMismatch, dst, "%v is %v, got %v", d.Name, d.Type, x.Type)
	}

	fr.env[dst] = x
	fr.set.Set(dst)

	return nil
}

func (fr *frame) fault(k FaultKind, v ir.Var, msg string, args ...any) *Fault {
	f := &Fault{
		Kind:  k,
		Func:  fr.f.Name,
		Block: fr.b,
		Index: fr.pc,
		Var:   v,
	}

	if msg != "" {
		f.Msg = fmt.Sprintf(msg, args...)
	}

	return f
}
