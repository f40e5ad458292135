package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowvm/compiler"
	"github.com/slowlang/slowvm/compiler/fixture"
	"github.com/slowlang/slowvm/compiler/format"
	"github.com/slowlang/slowvm/compiler/interp"
)

func main() {
	runCmd := &cli.Command{
		Name:        "run",
		Description: "run scenario calls and check expectations",
		Action:      runAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("steps", 0, "step limit per call, 0 for no limit"),
			cli.NewFlag("func", "", "run only calls to this function"),
			cli.NewFlag("v", "", "tlog verbosity topics (trace_steps, dump_env, emit)"),
		},
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print program listings",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("func", "", "print only this function"),
			cli.NewFlag("v", "", "tlog verbosity topics"),
		},
	}

	app := &cli.Command{
		Name:        "slowvm",
		Description: "slowvm runs slow ir programs",
		Commands: []*cli.Command{
			runCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func runAct(c *cli.Command) (err error) {
	ctx := setup(c)

	it := &interp.Interp{
		StepLimit: int64(c.Int("steps")),
	}

	failed := 0

	for _, a := range c.Args {
		f, p, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		rs, err := fixture.Run(ctx, it, p, fixture.Filter(f.Calls, c.String("func")))
		if err != nil {
			return errors.Wrap(err, "run %v", a)
		}

		for _, r := range rs {
			call := fmt.Sprintf("%s(%s)", r.Func, joinArgs(r.Args))

			if r.Err != nil {
				fmt.Printf("%s fault: %v\n", call, r.Err)
			} else {
				fmt.Printf("%s = %v\n", call, r.Value)
			}

			if r.Mismatch != nil {
				fmt.Printf("\tMISMATCH: %v\n", r.Mismatch)
				failed++
			}
		}
	}

	if failed != 0 {
		return errors.New("%d calls mismatched", failed)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		_, p, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		var x any = p

		if name := c.String("func"); name != "" {
			fn := p.Func(name)
			if fn == nil {
				return errors.New("%v: no function %v", a, name)
			}

			x = fn
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", b)
	}

	return nil
}

func setup(c *cli.Command) context.Context {
	tlog.SetVerbosity(c.String("v"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func joinArgs(args []int32) string {
	var b strings.Builder

	for i, a := range args {
		if i != 0 {
			b.WriteString(", ")
		}

		fmt.Fprintf(&b, "%d", a)
	}

	return b.String()
}
