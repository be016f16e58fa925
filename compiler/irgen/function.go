package irgen

import (
	"context"

	"github.com/olang-dev/olang/compiler/ast"
	"github.com/olang-dev/olang/compiler/scope"
	"github.com/olang-dev/olang/compiler/types"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"tinygo.org/x/go-llvm"
)

// functionGen is the per-function generator state of spec.md §3.4: a
// stack of scope frames pushed on function entry and on entering an
// if/while/block body, popped on exit.
type functionGen struct {
	g     *Generator
	fn    llvm.Value
	decl  *ast.FunctionDecl
	scope *scope.Stack[llvm.Value]

	// locals tracks the declared type of every parameter and let-bound
	// name in scope. There is no type checker (spec.md's Non-goals), but
	// the expression generator still needs a variable's declared type to
	// pick int-vs-float opcodes, GEP into structs/arrays, and thread
	// pointee types through `*`/`&` (spec.md §9's pointer-typing design
	// note).
	locals map[string]types.Type

	entry llvm.BasicBlock
}

// generate implements spec.md §4.4: create the entry block, spill
// parameters to allocas, walk statements in order, and synthesize a
// default return if the last block has none.
func (fg *functionGen) generate(ctx context.Context) error {
	fg.entry = fg.g.ctx.AddBasicBlock(fg.fn, "entry")
	fg.g.builder.SetInsertPointAtEnd(fg.entry)

	fg.scope.Push()
	defer fg.scope.Pop()

	if err := fg.spillParams(); err != nil {
		return errors.Wrap(err, "spill params")
	}

	for _, st := range fg.decl.Body {
		if err := fg.genStmt(ctx, st); err != nil {
			return err
		}
	}

	if err := fg.synthesizeDefaultReturn(); err != nil {
		return err
	}

	tlog.SpanFromContext(ctx).Printw("function generated", "name", fg.decl.Name)

	return nil
}

// spillParams allocates an alloca per parameter in the entry block,
// stores the incoming argument, and records both the alloca and the raw
// argument value in the current scope (spec.md §4.4, §3.4). Expression
// generation resolves parameters through the alloca, including member
// access on struct parameters; the SSA binding is not read.
func (fg *functionGen) spillParams() error {
	for i, p := range fg.decl.Params {
		arg := fg.fn.Param(i)
		arg.SetName(p.Name)

		lt, err := fg.g.llvmType(p.Type)
		if err != nil {
			return errors.Wrap(err, "param %v", p.Name)
		}

		a := fg.createAlloca(lt, p.Name)
		fg.g.builder.CreateStore(arg, a)

		fg.scope.DefineAlloca(p.Name, a)
		fg.scope.DefineSSA(p.Name, arg)
		fg.locals[p.Name] = p.Type
	}

	return nil
}

// createAlloca inserts at the beginning of the entry block regardless of
// where the corresponding let appears in source, keeping the backend's
// mem2reg pass effective (spec.md §4.4's "Allocation discipline").
func (fg *functionGen) createAlloca(t llvm.Type, name string) llvm.Value {
	cur := fg.g.builder.GetInsertBlock()

	first := fg.entry.FirstInstruction()
	if first.IsNil() {
		fg.g.builder.SetInsertPointAtEnd(fg.entry)
	} else {
		fg.g.builder.SetInsertPointBefore(first)
	}

	a := fg.g.builder.CreateAlloca(t, name)

	fg.g.builder.SetInsertPointAtEnd(cur)

	return a
}

// synthesizeDefaultReturn implements spec.md §4.4's default-return rule:
// void returns `ret void`; non-void scalar returns the zero value of the
// return type; aggregate returns are left unterminated for the verifier
// to flag.
func (fg *functionGen) synthesizeDefaultReturn() error {
	cur := fg.g.builder.GetInsertBlock()

	if blockTerminated(cur) {
		return nil
	}

	if _, ok := fg.decl.Return.(types.Void); ok {
		fg.g.builder.CreateRetVoid()
		return nil
	}

	if types.IsAggregate(fg.decl.Return) {
		// Left unterminated on purpose; the IR verifier rejects this as
		// a user error (spec.md §4.4, §7).
		return nil
	}

	lt, err := fg.g.llvmType(fg.decl.Return)
	if err != nil {
		return errors.Wrap(err, "default return type")
	}

	fg.g.builder.CreateRet(llvm.ConstNull(lt))

	return nil
}

// blockTerminated reports whether b already ends in a terminator
// instruction. Needed throughout §4.5's statement generators because
// inner control flow (a nested return) may have already terminated the
// current block (spec.md §4.5's closing remark).
func blockTerminated(b llvm.BasicBlock) bool {
	last := b.LastInstruction()
	if last.IsNil() {
		return false
	}

	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Unreachable:
		return true
	default:
		return false
	}
}
