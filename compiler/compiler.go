package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowvm/compiler/fixture"
	"github.com/slowlang/slowvm/compiler/ir"
)

func LoadFile(ctx context.Context, name string) (*fixture.File, *ir.Package, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Load(ctx, name, text)
}

// Load decodes a scenario and builds its verified program.
func Load(ctx context.Context, name string, text []byte) (f *fixture.File, p *ir.Package, err error) {
	f, err = fixture.Parse(text)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse %v", name)
	}

	p, err = f.Program(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build program")
	}

	if p.Path == "" {
		p.Path = name
	}

	return f, p, nil
}
