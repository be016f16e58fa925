// Package backend implements spec.md §4.7: target initialization, the IR
// verifier, and object/textual-IR emission.
//
// Grounded on compiler/doc.go's documented pipeline
// ("IR -> compile -> Binary Object -> link -> Binary Executable") and on
// the llvm.TargetMachine/llvm.PassManager surface tinygo.org/x/go-llvm
// exposes; compiler/asm and compiler/back did this job against a
// hand-rolled IR and are superseded one-for-one (see DESIGN.md).
package backend

import (
	"io"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"tinygo.org/x/go-llvm"
)

var targetsInitialized bool

// initTargets initializes the native target, target parser, and
// asm-printer registries exactly once per process (spec.md §5: "global
// LLVM target registries are initialized once per process").
func initTargets() {
	if targetsInitialized {
		return
	}

	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmParser()
	llvm.InitializeNativeAsmPrinter()

	targetsInitialized = true
}

// Options configures a single backend run (spec.md §6's CLI surface
// table, minus the file paths which CompileFile resolves).
type Options struct {
	// Target is the LLVM target triple. Empty selects the host default.
	Target string

	// EmitLLVM selects textual IR output over a relocatable object file.
	EmitLLVM bool

	// PrintIR additionally prints the textual IR to standard error,
	// independent of EmitLLVM.
	PrintIR bool
}

// Emit implements spec.md §4.7 end to end: verify, then either print
// textual IR or run the object-emission pass over mod, writing to w.
func Emit(mod llvm.Module, opts Options, w io.Writer) error {
	if opts.PrintIR {
		tlog.Printw("printing IR to stderr")

		var b []byte
		b = hfmt.AppendPrintf(b, "; -- begin module (target %q) --\n", opts.Target)
		_, _ = os.Stderr.Write(b)
		_, _ = io.WriteString(os.Stderr, mod.String())
	}

	if err := verify(mod); err != nil {
		return errors.Wrap(err, "verify module")
	}

	if opts.EmitLLVM {
		_, err := io.WriteString(w, mod.String())
		return errors.Wrap(err, "write textual IR")
	}

	tm, err := targetMachine(opts.Target)
	if err != nil {
		return errors.Wrap(err, "target machine")
	}
	defer tm.Dispose()

	mod.SetDataLayout(tm.CreateTargetData().String())
	mod.SetTarget(tm.Triple())

	return emitObject(mod, tm, w)
}

// verify implements spec.md §7's "Verification failure" error kind: run
// the IR verifier and surface its diagnostic before any emission is
// attempted.
func verify(mod llvm.Module) error {
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		return errors.Wrap(err, "module failed verification")
	}

	return nil
}

// targetMachine implements spec.md §4.7's "Select the target triple:
// caller-supplied or the host default. Instantiate a generic target
// machine (CPU = "generic", features = empty, PIC relocation)."
func targetMachine(triple string) (llvm.TargetMachine, error) {
	initTargets()

	if triple == "" {
		triple = llvm.DefaultTargetTriple()
	}

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.TargetMachine{}, errors.Wrap(err, "lookup target %q", triple)
	}

	tm := target.CreateTargetMachine(
		triple,
		"generic",
		"",
		llvm.CodeGenLevelDefault,
		llvm.RelocPIC,
		llvm.CodeModelDefault,
	)

	return tm, nil
}

// emitObject implements spec.md §4.7's "configure a legacy pass manager
// to emit a relocatable object file; run."
func emitObject(mod llvm.Module, tm llvm.TargetMachine, w io.Writer) error {
	buf, err := tm.EmitToMemoryBuffer(mod, llvm.ObjectFile)
	if err != nil {
		return errors.Wrap(err, "emit object")
	}
	defer buf.Dispose()

	_, err = w.Write(buf.Bytes())

	return errors.Wrap(err, "write object")
}
