package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/slowvm/compiler/ir"
)

// Format appends a listing of x, which is *ir.Package or *ir.Func.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Package:
		return formatPackage(ctx, b, x)
	case *ir.Func:
		return formatFunc(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatPackage(ctx context.Context, b []byte, p *ir.Package) (_ []byte, err error) {
	b = app(b, 0, "package %s\n", p.Path)

	for _, f := range p.Funcs {
		b = append(b, '\n')

		b, err = formatFunc(ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, f *ir.Func) (_ []byte, err error) {
	b = app(b, 0, "func %s(", f.Name)

	for i, a := range f.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%s %v", name(f, a), typ(f, a))
	}

	b = app(b, 0, ") %v {\n", f.Ret)

	for _, l := range f.Locals {
		b = app(b, 1, "var %s %v\n", name(f, l), typ(f, l))
	}

	for id := range f.Blocks {
		b, err = formatBlock(b, f, ir.BlockID(id))
		if err != nil {
			return nil, errors.Wrap(err, "block %d", id)
		}
	}

	b = append(b, "}\n"...)

	return b, nil
}

func formatBlock(b []byte, f *ir.Func, id ir.BlockID) ([]byte, error) {
	blk := &f.Blocks[id]

	b = app(b, 0, "b%d", id)

	if v, ok := blk.ValueVar(); ok {
		b = app(b, 0, "(%s)", name(f, v))
	}

	if id == f.Entry {
		b = append(b, ": // entry\n"...)
	} else {
		b = append(b, ":\n"...)
	}

	for i, x := range blk.Code {
		op := ir.Op(x)
		if op == "" {
			return nil, errors.New("instruction %d: unsupported type: %T", i, x)
		}

		b = app(b, 1, "%s", op)

		switch x := x.(type) {
		case ir.SetImm:
			b = app(b, 0, " %s %d", name(f, x.Dst), x.Imm)
		case ir.SetPrm:
			b = app(b, 0, " %s", name(f, x.Dst))
		default:
			if dst := ir.Writes(x); dst != ir.Nil {
				b = app(b, 0, " %s", name(f, dst))
			}

			if t, carry, ok := ir.Target(x); ok {
				if c, ok := x.(ir.JmpEq); ok {
					b = app(b, 0, " %s", name(f, c.Cond))
				}

				if c, ok := x.(ir.JmpNeq); ok {
					b = app(b, 0, " %s", name(f, c.Cond))
				}

				b = app(b, 0, " b%d", t)

				if carry != ir.Nil {
					b = app(b, 0, " %s", name(f, carry))
				}

				break
			}

			for _, v := range ir.Reads(x) {
				b = app(b, 0, " %s", name(f, v))
			}
		}

		b = append(b, '\n')
	}

	return b, nil
}

func name(f *ir.Func, v ir.Var) string {
	if d, ok := f.Var(v); ok {
		return d.Name
	}

	return string(app(nil, 0, "var(%d)", v))
}

func typ(f *ir.Func, v ir.Var) any {
	if d, ok := f.Var(v); ok {
		return d.Type
	}

	return "?"
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t"

	b = append(b, tabs[:d]...)

	return hfmt.Appendf(b, f, args...)
}
