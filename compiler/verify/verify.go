package verify

import (
	"fmt"
	"strings"

	"nikand.dev/go/heap"

	"github.com/slowlang/slowvm/compiler/ir"
	"github.com/slowlang/slowvm/compiler/set"
	"github.com/slowlang/slowvm/compiler/tp"
)

type (
	// Error is a single invariant violation.
	// Index is -1 if the violation is not tied to an instruction.
	Error struct {
		Func  string
		Block ir.BlockID
		Index int

		Msg string
	}

	// List is a non-empty list of violations.
	List []*Error

	checker struct {
		f    *ir.Func
		errs List

		b ir.BlockID
		i int
	}
)

// Func checks f against the ir invariants. It returns List or nil.
func Func(f *ir.Func) error {
	c := &checker{f: f, b: ir.NoBlock, i: -1}

	c.decls()

	if _, ok := f.Block(f.Entry); !ok {
		c.errorf("entry block %d out of range [0, %d)", f.Entry, len(f.Blocks))
	}

	for id := range f.Blocks {
		c.block(ir.BlockID(id))
	}

	if len(c.errs) == 0 {
		return nil
	}

	return c.errs
}

// Package checks every function and that function names are unique.
func Package(p *ir.Package) error {
	var errs List

	seen := map[string]struct{}{}

	for _, f := range p.Funcs {
		if _, ok := seen[f.Name]; ok {
			errs = append(errs, &Error{Func: f.Name, Block: ir.NoBlock, Index: -1, Msg: "function redefined"})
		}

		seen[f.Name] = struct{}{}

		if l, ok := Func(f).(List); ok {
			errs = append(errs, l...)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

// Unreachable lists blocks that can't be reached from the entry block, in increasing order.
func Unreachable(f *ir.Func) (r []ir.BlockID) {
	if _, ok := f.Block(f.Entry); !ok {
		return nil
	}

	visited := set.MakeBitmap(len(f.Blocks))
	queue := heap.Heap[ir.BlockID]{Less: func(d []ir.BlockID, i, j int) bool { return d[i] < d[j] }}

	queue.Push(f.Entry)
	visited.Set(int(f.Entry))

	for queue.Len() != 0 {
		id := queue.Pop()

		for _, x := range f.Blocks[id].Code {
			t, _, ok := ir.Target(x)
			if _, in := f.Block(t); ok && in && !visited.IsSet(int(t)) {
				visited.Set(int(t))
				queue.Push(t)
			}

			if _, ok := x.(ir.Jmp); ok {
				break
			}
		}
	}

	for id := range f.Blocks {
		if !visited.IsSet(id) {
			r = append(r, ir.BlockID(id))
		}
	}

	return r
}

func (c *checker) decls() {
	f := c.f

	if !f.Ret.Valid() {
		c.errorf("invalid return type %v", f.Ret)
	}

	names := map[string]ir.Var{}

	for i, d := range f.Vars {
		v := ir.Var(i)

		if d.Name == "" {
			c.errorf("var %d: empty name", v)
		} else if prev, ok := names[d.Name]; ok {
			c.errorf("var %d: name %q already used by var %d", v, d.Name, prev)
		} else {
			names[d.Name] = v
		}

		if !d.Type.Valid() || d.Type == tp.Void {
			c.errorf("var %v: invalid type %v", d.Name, d.Type)
		}
	}

	decl := set.MakeBits[ir.Var]()

	for _, list := range [][]ir.Var{f.Args, f.Locals} {
		for _, v := range list {
			if !c.declared(v) {
				continue
			}

			if decl.IsSet(v) {
				c.errorf("var %v declared twice in arguments and locals", f.Vars[v].Name)
			}

			decl.Set(v)
		}
	}

	for i, d := range f.Vars {
		if !decl.IsSet(ir.Var(i)) {
			c.errorf("var %v is neither an argument nor a local", d.Name)
		}
	}
}

func (c *checker) block(id ir.BlockID) {
	f := c.f
	blk := &f.Blocks[id]

	c.b, c.i = id, -1

	slot, hasSlot := blk.ValueVar()

	if hasSlot && !c.declared(slot) {
		c.errorf("block value var %d is not declared", slot)
	}

	pending := ir.Nil
	falls := true

	for i, x := range blk.Code {
		c.i = i

		c.instr(x)

		switch x := x.(type) {
		case ir.Val:
			pending = x.Src
		case ir.ValCpy:
			pending = x.Src
		case ir.Jmp:
			falls = false
		}

		if !falls {
			break
		}
	}

	if !falls {
		return
	}

	c.i = -1

	res := tp.Void

	switch {
	case pending != ir.Nil:
		res = c.typ(pending)
	case hasSlot:
		res = c.typ(slot)
	}

	if res != f.Ret {
		c.errorf("falls through with %v, function returns %v", res, f.Ret)
	}
}

func (c *checker) instr(x ir.Instr) {
	if ir.Op(x) == "" {
		c.errorf("invalid instruction %T", x)
		return
	}

	for _, v := range ir.Reads(x) {
		c.use(v)
	}

	if dst := ir.Writes(x); dst != ir.Nil {
		c.use(dst)
	}

	if dst, l, r, ok := ir.Binary(x); ok {
		c.want(dst, tp.I32)
		c.want(l, tp.I32)
		c.want(r, tp.I32)

		return
	}

	switch x := x.(type) {
	case ir.SetImm:
		c.want(x.Dst, tp.I32)
	case ir.SetVar:
		if c.declared(x.Src) {
			c.want(x.Dst, c.typ(x.Src))
		}
	case ir.SetPrm:
		p := c.f.ParamIndex(x.Dst)
		if p < 0 || p >= len(c.f.Args) {
			c.errorf("set_prm %v: no parameter at position %d", c.name(x.Dst), p)
		} else if c.declared(c.f.Args[p]) {
			c.want(x.Dst, c.typ(c.f.Args[p]))
		}
	case ir.JmpEq:
		c.want(x.Cond, tp.I32)
	case ir.JmpNeq:
		c.want(x.Cond, tp.I32)
	}

	t, carry, ok := ir.Target(x)
	if !ok {
		return
	}

	dst, ok := c.f.Block(t)
	if !ok {
		c.errorf("jump target %d out of range [0, %d)", t, len(c.f.Blocks))
		return
	}

	if slot, ok := dst.ValueVar(); ok && carry != ir.Nil && c.declared(slot) {
		c.want(carry, c.typ(slot))
	}
}

func (c *checker) use(v ir.Var) {
	if !c.declared(v) {
		c.errorf("var %d is not declared", v)
	}
}

func (c *checker) want(v ir.Var, t tp.Type) {
	if !c.declared(v) {
		return
	}

	if got := c.typ(v); got != t {
		c.errorf("%v is %v, expected %v", c.name(v), got, t)
	}
}

func (c *checker) declared(v ir.Var) bool {
	_, ok := c.f.Var(v)
	return ok
}

func (c *checker) typ(v ir.Var) tp.Type {
	d, _ := c.f.Var(v)
	return d.Type
}

func (c *checker) name(v ir.Var) string {
	if d, ok := c.f.Var(v); ok {
		return d.Name
	}

	return fmt.Sprintf("var(%d)", v)
}

func (c *checker) errorf(format string, args ...any) {
	c.errs = append(c.errs, &Error{
		Func:  c.f.Name,
		Block: c.b,
		Index: c.i,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Func)

	if e.Block != ir.NoBlock {
		fmt.Fprintf(&b, ": b%d", e.Block)

		if e.Index >= 0 {
			fmt.Fprintf(&b, ":%d", e.Index)
		}
	}

	b.WriteString(": ")
	b.WriteString(e.Msg)

	return b.String()
}

func (l List) Error() string {
	if len(l) == 1 {
		return l[0].Error()
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%d errors:", len(l))

	for _, e := range l {
		b.WriteString("\n\t")
		b.WriteString(e.Error())
	}

	return b.String()
}
