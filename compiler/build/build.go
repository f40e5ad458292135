package build

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/tp"
	"github.com/slowlang/slowvm/compiler/verify"
)

type (
	// Func assembles an ir.Func. The first allocated block is the entry
	// unless Entry is called.
	Func struct {
		f *ir.Func

		entry bool

		// from[b][i] is where instruction i of block b was emitted.
		from [][]loc.PC
	}
)

func New(name string, ret tp.Type) *Func {
	return &Func{
		f: &ir.Func{
			Name:  name,
			Ret:   ret,
			Entry: ir.NoBlock,
		},
	}
}

func (b *Func) Arg(name string, t tp.Type) ir.Var {
	v := b.declare(name, t)
	b.f.Args = append(b.f.Args, v)

	return v
}

func (b *Func) Local(name string, t tp.Type) ir.Var {
	v := b.declare(name, t)
	b.f.Locals = append(b.f.Locals, v)

	return v
}

// Block allocates a new block with no value slot.
func (b *Func) Block() ir.BlockID {
	return b.alloc(ir.Block{})
}

// BlockValue allocates a new block with fallthrough result slot v.
func (b *Func) BlockValue(v ir.Var) ir.BlockID {
	return b.alloc(ir.BlockValue(v))
}

func (b *Func) alloc(blk ir.Block) ir.BlockID {
	id := ir.BlockID(len(b.f.Blocks))

	b.f.Blocks = append(b.f.Blocks, blk)
	b.from = append(b.from, nil)

	if !b.entry {
		b.f.Entry = id
		b.entry = true
	}

	return id
}

func (b *Func) Entry(id ir.BlockID) {
	b.f.Entry = id
	b.entry = true
}

func (b *Func) Emit(id ir.BlockID, code ...ir.Instr) {
	pc := loc.Caller(1)

	tlog.V("emit").Printw("emit", "func", b.f.Name, "block", id, "n", len(code), "from", pc)

	if id < 0 || int(id) >= len(b.f.Blocks) {
		panic(errors.New("emit to unallocated block %d at %v", id, pc))
	}

	blk := &b.f.Blocks[id]
	blk.Code = append(blk.Code, code...)

	for range code {
		b.from[id] = append(b.from[id], pc)
	}
}

// Finish verifies the function and returns it.
// Verification errors carry the location the offending instruction was emitted at.
func (b *Func) Finish(ctx context.Context) (f *ir.Func, err error) {
	tr := tlog.SpanFromContext(ctx)

	err = verify.Func(b.f)
	if l, ok := err.(verify.List); ok {
		tr.Printw("verify failed", "func", b.f.Name, "errors", len(l))

		e := l[0]

		if e.Block >= 0 && e.Index >= 0 {
			return nil, errors.Wrap(err, "emitted at %v", b.from[e.Block][e.Index])
		}

		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if un := verify.Unreachable(b.f); len(un) != 0 {
		tr.Printw("unreachable blocks", "func", b.f.Name, "blocks", un)
	}

	return b.f, nil
}

// Lookup finds a declared argument or local by name.
func (b *Func) Lookup(name string) (ir.Var, bool) {
	return b.f.Lookup(name)
}

func (b *Func) declare(name string, t tp.Type) ir.Var {
	v := ir.Var(len(b.f.Vars))
	b.f.Vars = append(b.f.Vars, ir.VarDecl{Name: name, Type: t})

	return v
}
