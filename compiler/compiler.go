// Package compiler implements the top-level pipeline spec.md §1
// describes: preprocess -> parse/build AST -> generate IR -> backend.
//
// Unchanged in shape from compiler/compiler.go (CompileFile reads the
// root file and delegates to Compile, each stage wrapped in
// errors.Wrap), generalized to call this repo's preprocess/parser/
// irgen/backend pipeline instead of front.State.
package compiler

import (
	"bytes"
	"context"
	"os"

	"github.com/olang-dev/olang/compiler/backend"
	"github.com/olang-dev/olang/compiler/irgen"
	"github.com/olang-dev/olang/compiler/parser"
	"github.com/olang-dev/olang/compiler/preprocess"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Options carries the caller-controlled knobs of spec.md §4.7/§6: target
// triple, textual-IR vs. object emission, and the IR-to-stderr switch.
type Options struct {
	Target   string
	EmitLLVM bool
	PrintIR  bool
}

// CompileFile reads name from disk and runs it through the full
// pipeline. A missing root file is a hard failure; only includes
// recover locally from a read error (spec.md §7).
func CompileFile(ctx context.Context, name string, opts Options) (out []byte, err error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Wrap(err, "stat file")
	}

	tlog.SpanFromContext(ctx).Printw("compile file", "name", name)

	return Compile(ctx, name, opts)
}

// Compile runs the full pipeline of spec.md §4 over the root file at
// name: include preprocessing, the merged parse/AST-build pass, IR
// module generation, and the backend driver.
func Compile(ctx context.Context, name string, opts Options) (out []byte, err error) {
	expanded, err := preprocess.ProcessFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}

	prog, err := parser.Parse(ctx, expanded)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	llctx, mod, err := irgen.Generate(ctx, prog, name)
	if err != nil {
		return nil, errors.Wrap(err, "generate ir")
	}
	defer llctx.Dispose()
	defer mod.Dispose()

	var buf bytes.Buffer

	err = backend.Emit(mod, backend.Options{
		Target:   opts.Target,
		EmitLLVM: opts.EmitLLVM,
		PrintIR:  opts.PrintIR,
	}, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "emit")
	}

	return buf.Bytes(), nil
}
