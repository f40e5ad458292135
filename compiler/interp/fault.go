package interp

import (
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/slowvm/compiler/ir"
)

type (
	FaultKind int

	// Fault is a terminal execution error of one call.
	// Block and Index locate the faulting instruction;
	// Index is -1 for faults raised outside of an instruction.
	Fault struct {
		Kind FaultKind

		Func  string
		Block ir.BlockID
		Index int
		Var   ir.Var

		Msg string
	}
)

const (
	_ FaultKind = iota
	ArityMismatch
	TypeMismatch
	UseOfUnsetVariable
	DivisionByZero
	InvalidJumpTarget
	UnknownVariable
	InvalidInstruction
	UnknownFunction
	StepLimitExceeded
)

var kindNames = []string{
	ArityMismatch:      "ArityMismatch",
	TypeMismatch:       "TypeMismatch",
	UseOfUnsetVariable: "UseOfUnsetVariable",
	DivisionByZero:     "DivisionByZero",
	InvalidJumpTarget:  "InvalidJumpTarget",
	UnknownVariable:    "UnknownVariable",
	InvalidInstruction: "InvalidInstruction",
	UnknownFunction:    "UnknownFunction",
	StepLimitExceeded:  "StepLimitExceeded",
}

func (k FaultKind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}

	return kindNames[k]
}

func ParseFaultKind(s string) (FaultKind, bool) {
	for k, n := range kindNames {
		if n != "" && n == s {
			return FaultKind(k), true
		}
	}

	return 0, false
}

// FaultKindOf reports the kind of the Fault wrapped in err.
func FaultKindOf(err error) (FaultKind, bool) {
	var f *Fault

	if !errors.As(err, &f) {
		return 0, false
	}

	return f.Kind, true
}

func (f *Fault) Error() string {
	b := hfmt.Appendf(nil, "%v", f.Kind)

	if f.Func != "" {
		b = hfmt.Appendf(b, " in %v", f.Func)
	}

	if f.Index >= 0 {
		b = hfmt.Appendf(b, " at b%d:%d", f.Block, f.Index)
	}

	if f.Var != ir.Nil {
		b = hfmt.Appendf(b, " (var %d)", f.Var)
	}

	if f.Msg != "" {
		b = hfmt.Appendf(b, ": %s", f.Msg)
	}

	return string(b)
}

func (f *Fault) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 5)
	b = e.AppendKeyString(b, "kind", f.Kind.String())
	b = e.AppendKeyString(b, "func", f.Func)
	b = e.AppendKeyInt(b, "block", int(f.Block))
	b = e.AppendKeyInt(b, "index", f.Index)
	b = e.AppendKeyString(b, "msg", f.Msg)

	return b
}
