package interp

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/slowvm/compiler/tp"
)

type (
	// Value is a runtime value tagged with its type.
	Value struct {
		Type tp.Type
		I32  int32
	}
)

var Void = Value{Type: tp.Void}

func I32(x int32) Value {
	return Value{Type: tp.I32, I32: x}
}

func Bool(x bool) Value {
	if x {
		return I32(1)
	}

	return I32(0)
}

// Copy returns an independent copy of v.
// All current value kinds are plain data, so it is v itself.
func (v Value) Copy() Value {
	return v
}

func (v Value) String() string {
	switch v.Type {
	case tp.I32:
		return strconv.FormatInt(int64(v.I32), 10)
	case tp.Void:
		return "void"
	default:
		return v.Type.String()
	}
}

func (v Value) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if v.Type == tp.Void {
		return e.AppendNil(b)
	}

	b = e.AppendMap(b, 2)
	b = e.AppendKeyString(b, "type", v.Type.String())
	b = e.AppendKeyInt64(b, "val", int64(v.I32))

	return b
}
