package ir

type (
	// Instr is one of the closed set of instruction variants declared below.
	Instr interface {
		instr()
	}

	AddI32 struct {
		Dst, L, R Var
	}

	SubI32 struct {
		Dst, L, R Var
	}

	MulI32 struct {
		Dst, L, R Var
	}

	DivI32 struct {
		Dst, L, R Var
	}

	EqI32 struct {
		Dst, L, R Var
	}

	NeqI32 struct {
		Dst, L, R Var
	}

	SetImm struct {
		Dst Var
		Imm int32
	}

	Val struct {
		Src Var
	}

	ValCpy struct {
		Src Var
	}

	SetVar struct {
		Dst, Src Var
	}

	SetPrm struct {
		Dst Var
	}

	Jmp struct {
		Block BlockID
		Carry Var
	}

	JmpEq struct {
		Cond  Var
		Block BlockID
		Carry Var
	}

	JmpNeq struct {
		Cond  Var
		Block BlockID
		Carry Var
	}
)

func (AddI32) instr() {}
func (SubI32) instr() {}
func (MulI32) instr() {}
func (DivI32) instr() {}
func (EqI32) instr()  {}
func (NeqI32) instr() {}
func (SetImm) instr() {}
func (Val) instr()    {}
func (ValCpy) instr() {}
func (SetVar) instr() {}
func (SetPrm) instr() {}
func (Jmp) instr()    {}
func (JmpEq) instr()  {}
func (JmpNeq) instr() {}

func Jump(b BlockID) Jmp { return Jmp{Block: b, Carry: Nil} }

func JumpWith(b BlockID, carry Var) Jmp { return Jmp{Block: b, Carry: carry} }

func JumpEq(cond Var, b BlockID) JmpEq { return JmpEq{Cond: cond, Block: b, Carry: Nil} }

func JumpNeq(cond Var, b BlockID) JmpNeq { return JmpNeq{Cond: cond, Block: b, Carry: Nil} }

// Op returns the mnemonic of x, or "" for unknown values.
func Op(x Instr) string {
	switch x.(type) {
	case AddI32:
		return "add_i32"
	case SubI32:
		return "sub_i32"
	case MulI32:
		return "mul_i32"
	case DivI32:
		return "div_i32"
	case EqI32:
		return "eq_i32"
	case NeqI32:
		return "neq_i32"
	case SetImm:
		return "set_imm"
	case Val:
		return "val"
	case ValCpy:
		return "val_cpy"
	case SetVar:
		return "set_var"
	case SetPrm:
		return "set_prm"
	case Jmp:
		return "jmp"
	case JmpEq:
		return "jmp_eq"
	case JmpNeq:
		return "jmp_neq"
	default:
		return ""
	}
}

// Binary splits an arithmetic or comparison instruction into its operands.
func Binary(x Instr) (dst, l, r Var, ok bool) {
	switch x := x.(type) {
	case AddI32:
		return x.Dst, x.L, x.R, true
	case SubI32:
		return x.Dst, x.L, x.R, true
	case MulI32:
		return x.Dst, x.L, x.R, true
	case DivI32:
		return x.Dst, x.L, x.R, true
	case EqI32:
		return x.Dst, x.L, x.R, true
	case NeqI32:
		return x.Dst, x.L, x.R, true
	}

	return Nil, Nil, Nil, false
}

// Target returns the jump target and the carried variable of a jump instruction.
func Target(x Instr) (b BlockID, carry Var, ok bool) {
	switch x := x.(type) {
	case Jmp:
		return x.Block, x.Carry, true
	case JmpEq:
		return x.Block, x.Carry, true
	case JmpNeq:
		return x.Block, x.Carry, true
	}

	return NoBlock, Nil, false
}

// Reads lists the variables x reads, in operand order. Nil carries are omitted.
func Reads(x Instr) []Var {
	if _, l, r, ok := Binary(x); ok {
		return []Var{l, r}
	}

	switch x := x.(type) {
	case Val:
		return []Var{x.Src}
	case ValCpy:
		return []Var{x.Src}
	case SetVar:
		return []Var{x.Src}
	case Jmp:
		return carry(nil, x.Carry)
	case JmpEq:
		return carry([]Var{x.Cond}, x.Carry)
	case JmpNeq:
		return carry([]Var{x.Cond}, x.Carry)
	}

	return nil
}

// Writes returns the variable x assigns, or Nil.
func Writes(x Instr) Var {
	if dst, _, _, ok := Binary(x); ok {
		return dst
	}

	switch x := x.(type) {
	case SetImm:
		return x.Dst
	case SetVar:
		return x.Dst
	case SetPrm:
		return x.Dst
	}

	return Nil
}

func carry(vs []Var, c Var) []Var {
	if c == Nil {
		return vs
	}

	return append(vs, c)
}
