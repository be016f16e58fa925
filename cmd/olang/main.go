// Command olang is the compiler driver of spec.md §6: it compiles one
// source file to a relocatable object file or textual LLVM IR.
//
// Adapted from cmd/slow/main.go's cli.Command tree (Name/Description/
// Flags/Args/Action, cli.RunAndExit driving the process exit code); its
// "parse"/"compile" subcommand split collapses into a single root
// command since spec.md §6 describes one tool, not a command family.
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/olang-dev/olang/compiler"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

func main() {
	app := &cli.Command{
		Name:        "olang",
		Description: "olang compiles Olang source files to native object files or LLVM IR",
		Flags: []*cli.Flag{
			{Name: "o", Description: "output file path"},
			{Name: "emit-llvm", Description: "emit textual LLVM IR instead of an object file"},
			{Name: "print-ir", Description: "additionally print IR to standard error"},
			{Name: "target", Description: "target triple (default: host)"},
		},
		Args:   cli.Args{},
		Action: compileAct,
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) == 0 {
		return errors.New("missing source file argument")
	}

	src := c.Args[0]

	opts := compiler.Options{
		Target:   c.String("target"),
		EmitLLVM: c.Bool("emit-llvm"),
		PrintIR:  c.Bool("print-ir"),
	}

	out, err := compiler.CompileFile(ctx, src, opts)
	if err != nil {
		return errors.Wrap(err, "compile %v", src)
	}

	dest := c.String("o")
	if dest == "" {
		dest = defaultOutputPath(src, opts.EmitLLVM)
	}

	if err := os.WriteFile(dest, out, 0644); err != nil {
		return errors.Wrap(err, "write output %v", dest)
	}

	tlog.SpanFromContext(ctx).Printw("wrote output", "path", dest, "size", len(out))

	return nil
}

// defaultOutputPath implements spec.md §6's `-o` default: the source
// path with its extension replaced by `.o`, or `.ll` under --emit-llvm.
func defaultOutputPath(src string, emitLLVM bool) string {
	ext := ".o"
	if emitLLVM {
		ext = ".ll"
	}

	base := filepath.Base(src)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	return filepath.Join(filepath.Dir(src), base+ext)
}
