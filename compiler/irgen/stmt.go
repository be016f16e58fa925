package irgen

import (
	"context"

	"github.com/olang-dev/olang/compiler/ast"
	"github.com/olang-dev/olang/compiler/set"
	"github.com/olang-dev/olang/compiler/types"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"tinygo.org/x/go-llvm"
)

// genStmt dispatches on statement kind (spec.md §4.5).
func (fg *functionGen) genStmt(ctx context.Context, st ast.Stmt) error {
	switch st := st.(type) {
	case *ast.LetStmt:
		return fg.genLet(ctx, st)
	case *ast.ReturnStmt:
		return fg.genReturn(ctx, st)
	case *ast.ExprStmt:
		_, err := fg.genExpr(ctx, st.X)
		return err
	case *ast.IfStmt:
		return fg.genIf(ctx, st)
	case *ast.WhileStmt:
		return fg.genWhile(ctx, st)
	case *ast.BlockStmt:
		return fg.genBlock(ctx, st)
	default:
		return errors.New("unsupported statement %T", st)
	}
}

// genLet implements spec.md §4.5's LetStmt rule: allocate storage for the
// declared type; for aggregates store a zero-initializer and ignore the
// initializer expression, for scalars evaluate the initializer and store
// its value.
func (fg *functionGen) genLet(ctx context.Context, st *ast.LetStmt) error {
	lt, err := fg.g.llvmType(st.Type)
	if err != nil {
		return errors.Wrap(err, "let %v type", st.Name)
	}

	a := fg.createAlloca(lt, st.Name)
	fg.locals[st.Name] = st.Type

	if types.IsAggregate(st.Type) {
		fg.g.builder.CreateStore(llvm.ConstNull(lt), a)
		fg.scope.DefineAlloca(st.Name, a)

		return nil
	}

	v, err := fg.genExpr(ctx, st.Init)
	if err != nil {
		return errors.Wrap(err, "let %v initializer", st.Name)
	}

	fg.g.builder.CreateStore(v, a)
	fg.scope.DefineAlloca(st.Name, a)

	return nil
}

// genReturn implements spec.md §4.5's ReturnStmt rule.
func (fg *functionGen) genReturn(ctx context.Context, st *ast.ReturnStmt) error {
	if st.Value == nil {
		fg.g.builder.CreateRetVoid()
		return nil
	}

	v, err := fg.genExpr(ctx, st.Value)
	if err != nil {
		return errors.Wrap(err, "return value")
	}

	fg.g.builder.CreateRet(v)

	return nil
}

// genIf implements spec.md §4.5's IfStmt rule: create then/else/merge
// blocks (merge not yet attached), branch on cond, generate each arm in
// a fresh scope, branch to merge at the end of any arm lacking its own
// terminator, and attach merge to the function iff at least one
// predecessor was created.
//
// Predecessor tracking uses compiler/set.Bits[int] keyed by arm (0 for
// then, 1 for else) rather than a bespoke bool, the same structure
// compiler/back uses for liveness sets.
func (fg *functionGen) genIf(ctx context.Context, st *ast.IfStmt) error {
	cond, err := fg.genExpr(ctx, st.Cond)
	if err != nil {
		return errors.Wrap(err, "if condition")
	}

	thenBlock := fg.g.ctx.AddBasicBlock(fg.fn, "then")
	elseBlock := fg.g.ctx.AddBasicBlock(fg.fn, "else")
	mergeBlock := fg.g.ctx.AddBasicBlock(fg.fn, "merge")

	fg.g.builder.CreateCondBr(cond, thenBlock, elseBlock)

	preds := set.MakeBits[int](0)

	fg.g.builder.SetInsertPointAtEnd(thenBlock)

	fg.scope.Push()
	if err := fg.genStmts(ctx, st.Then); err != nil {
		fg.scope.Pop()
		return errors.Wrap(err, "if then-body")
	}
	fg.scope.Pop()

	if !blockTerminated(fg.g.builder.GetInsertBlock()) {
		fg.g.builder.CreateBr(mergeBlock)
		preds.Set(0)
	}

	fg.g.builder.SetInsertPointAtEnd(elseBlock)

	fg.scope.Push()
	if err := fg.genStmts(ctx, st.Else); err != nil {
		fg.scope.Pop()
		return errors.Wrap(err, "if else-body")
	}
	fg.scope.Pop()

	if !blockTerminated(fg.g.builder.GetInsertBlock()) {
		fg.g.builder.CreateBr(mergeBlock)
		preds.Set(1)
	}

	if preds.Size() == 0 {
		// No predecessor ever reached merge (spec.md §8's "if with no
		// else: no merge block is orphaned" generalizes to both arms
		// returning): discard it rather than leave a block with no
		// predecessors attached to the function.
		mergeBlock.EraseFromParent()
		tlog.SpanFromContext(ctx).Printw("if merge discarded", "reason", "no predecessors")

		return nil
	}

	fg.g.builder.SetInsertPointAtEnd(mergeBlock)

	return nil
}

// genWhile implements spec.md §4.5's WhileStmt rule: create cond/body/end
// blocks, branch unconditionally to cond, emit the condition there,
// conditionally branch to body/end, generate the body in a fresh scope,
// branch back to cond if the body falls through, and set insertion to
// end.
func (fg *functionGen) genWhile(ctx context.Context, st *ast.WhileStmt) error {
	condBlock := fg.g.ctx.AddBasicBlock(fg.fn, "cond")
	bodyBlock := fg.g.ctx.AddBasicBlock(fg.fn, "body")
	endBlock := fg.g.ctx.AddBasicBlock(fg.fn, "end")

	fg.g.builder.CreateBr(condBlock)

	fg.g.builder.SetInsertPointAtEnd(condBlock)

	cond, err := fg.genExpr(ctx, st.Cond)
	if err != nil {
		return errors.Wrap(err, "while condition")
	}

	fg.g.builder.CreateCondBr(cond, bodyBlock, endBlock)

	fg.g.builder.SetInsertPointAtEnd(bodyBlock)

	fg.scope.Push()
	if err := fg.genStmts(ctx, st.Body); err != nil {
		fg.scope.Pop()
		return errors.Wrap(err, "while body")
	}
	fg.scope.Pop()

	if !blockTerminated(fg.g.builder.GetInsertBlock()) {
		fg.g.builder.CreateBr(condBlock)
	}

	// When the body always returns, end's only predecessor is cond's
	// false edge; either way it becomes the current insertion point so
	// straight-line code after the loop compiles into it.
	fg.g.builder.SetInsertPointAtEnd(endBlock)

	return nil
}

// genBlock implements SPEC_FULL.md's BlockStmt extension: a bare `{ … }`
// pushes a scope frame with no new basic block.
func (fg *functionGen) genBlock(ctx context.Context, st *ast.BlockStmt) error {
	fg.scope.Push()
	defer fg.scope.Pop()

	return fg.genStmts(ctx, st.Body)
}

func (fg *functionGen) genStmts(ctx context.Context, stmts []ast.Stmt) error {
	for _, st := range stmts {
		if err := fg.genStmt(ctx, st); err != nil {
			return err
		}
	}

	return nil
}
