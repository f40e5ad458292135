package tp

import "tlog.app/go/tlog/tlwire"

type (
	Type int
)

const (
	Void Type = iota
	I32
)

var names = []string{
	Void: "void",
	I32:  "i32",
}

func (t Type) Size() int {
	switch t {
	case I32:
		return 4
	default:
		return 0
	}
}

func (t Type) Valid() bool {
	return t >= Void && int(t) < len(names)
}

func (t Type) String() string {
	if !t.Valid() {
		return "type(?)"
	}

	return names[t]
}

func Parse(s string) (Type, bool) {
	for t, n := range names {
		if n == s {
			return Type(t), true
		}
	}

	return Void, false
}

func (t Type) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, t.String())
}
