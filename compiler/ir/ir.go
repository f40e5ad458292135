package ir

import (
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/slowvm/compiler/tp"
)

type (
	// Var is an index into the owning Func's Vars table.
	Var int

	// BlockID is an index into the owning Func's Blocks table.
	BlockID int

	VarDecl struct {
		Name string
		Type tp.Type
	}

	Block struct {
		Code []Instr

		// Value is the fallthrough result slot, used only if HasValue is set.
		// The zero Block produces no value.
		Value    Var
		HasValue bool
	}

	Func struct {
		Name string

		Vars   []VarDecl
		Args   []Var
		Locals []Var

		Ret tp.Type

		Entry  BlockID
		Blocks []Block
	}

	Package struct {
		Path string

		Funcs []*Func
	}
)

const (
	Nil Var = -1

	NoBlock BlockID = -1
)

func (b *Block) Instructions() []Instr { return b.Code }

func (b *Block) ValueVar() (Var, bool) {
	if !b.HasValue {
		return Nil, false
	}

	return b.Value, true
}

// BlockValue makes a block with fallthrough result slot v.
func BlockValue(v Var, code ...Instr) Block {
	return Block{Code: code, Value: v, HasValue: true}
}

func (f *Func) Var(v Var) (VarDecl, bool) {
	if v < 0 || int(v) >= len(f.Vars) {
		return VarDecl{}, false
	}

	return f.Vars[v], true
}

func (f *Func) Block(id BlockID) (*Block, bool) {
	if id < 0 || int(id) >= len(f.Blocks) {
		return nil, false
	}

	return &f.Blocks[id], true
}

// Lookup finds a variable by name.
func (f *Func) Lookup(name string) (Var, bool) {
	for i, d := range f.Vars {
		if d.Name == name {
			return Var(i), true
		}
	}

	return Nil, false
}

// ParamIndex returns the incoming parameter position set_prm reads for dst:
// its position among Args if it is an argument, else its position among Locals.
func (f *Func) ParamIndex(dst Var) int {
	for i, a := range f.Args {
		if a == dst {
			return i
		}
	}

	for i, l := range f.Locals {
		if l == dst {
			return i
		}
	}

	return -1
}

func (p *Package) Func(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

func (v Var) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if v == Nil {
		return e.AppendNil(b)
	}

	return e.AppendInt(b, int(v))
}
