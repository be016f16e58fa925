package irgen

import (
	"context"

	"github.com/olang-dev/olang/compiler/ast"
	"github.com/olang-dev/olang/compiler/types"
	"tlog.app/go/errors"

	"tinygo.org/x/go-llvm"
)

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true,
}

// genExpr dispatches on expression kind (spec.md §4.6).
func (fg *functionGen) genExpr(ctx context.Context, e ast.Expr) (llvm.Value, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return llvm.ConstInt(fg.g.ctx.Int32Type(), uint64(e.Value), true), nil
	case *ast.FloatLit:
		return llvm.ConstFloat(fg.g.ctx.DoubleType(), e.Value), nil
	case *ast.BoolLit:
		v := uint64(0)
		if e.Value {
			v = 1
		}

		return llvm.ConstInt(fg.g.ctx.Int1Type(), v, false), nil
	case *ast.StringLit:
		return fg.g.builder.CreateGlobalStringPtr(e.Value, "str"), nil
	case *ast.Identifier:
		return fg.genIdentifier(e)
	case *ast.BinaryExpr:
		return fg.genBinary(ctx, e)
	case *ast.UnaryExpr:
		return fg.genUnary(ctx, e)
	case *ast.AssignmentExpr:
		return fg.genAssignment(ctx, e)
	case *ast.CallExpr:
		return fg.genCall(ctx, e)
	case *ast.MemberAccess:
		return fg.genMember(ctx, e)
	case *ast.ArrayAccess:
		return fg.genArrayAccess(ctx, e)
	default:
		return llvm.Value{}, errors.New("unsupported expression %T", e)
	}
}

// genIdentifier loads an addressable local or falls back to the module's
// global table (spec.md §4.6's "Identifier" rule).
func (fg *functionGen) genIdentifier(e *ast.Identifier) (llvm.Value, error) {
	if a, ok := fg.scope.LookupAlloca(e.Name); ok {
		lt, err := fg.g.llvmType(fg.locals[e.Name])
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "identifier %v", e.Name)
		}

		return fg.g.builder.CreateLoad2(lt, a, e.Name), nil
	}

	if gv, ok := fg.g.globals[e.Name]; ok {
		lt, err := fg.g.llvmType(fg.g.globalType[e.Name])
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "identifier %v", e.Name)
		}

		return fg.g.builder.CreateLoad2(lt, gv, e.Name), nil
	}

	return llvm.Value{}, errors.New("undeclared identifier %q", e.Name)
}

// genBinary implements spec.md §4.6's Binary rule: the operand's runtime
// type (read off the left operand's static type, since the language has
// no implicit widening) selects the int or float opcode family;
// `&&`/`||` lower to non-short-circuiting bitwise and/or, per spec.md
// §9's logical-operator design note.
func (fg *functionGen) genBinary(ctx context.Context, e *ast.BinaryExpr) (llvm.Value, error) {
	l, err := fg.genExpr(ctx, e.Left)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "lhs of %q", e.Op)
	}

	r, err := fg.genExpr(ctx, e.Right)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "rhs of %q", e.Op)
	}

	lt, err := fg.exprType(e.Left)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "lhs type of %q", e.Op)
	}

	isFloat := types.IsFloat(lt)

	switch e.Op {
	case "&&":
		return fg.g.builder.CreateAnd(l, r, "and"), nil
	case "||":
		return fg.g.builder.CreateOr(l, r, "or"), nil
	case "+":
		if isFloat {
			return fg.g.builder.CreateFAdd(l, r, "fadd"), nil
		}

		return fg.g.builder.CreateAdd(l, r, "add"), nil
	case "-":
		if isFloat {
			return fg.g.builder.CreateFSub(l, r, "fsub"), nil
		}

		return fg.g.builder.CreateSub(l, r, "sub"), nil
	case "*":
		if isFloat {
			return fg.g.builder.CreateFMul(l, r, "fmul"), nil
		}

		return fg.g.builder.CreateMul(l, r, "mul"), nil
	case "/":
		if isFloat {
			return fg.g.builder.CreateFDiv(l, r, "fdiv"), nil
		}

		return fg.g.builder.CreateSDiv(l, r, "sdiv"), nil
	case "%":
		if isFloat {
			return fg.g.builder.CreateFRem(l, r, "frem"), nil
		}

		return fg.g.builder.CreateSRem(l, r, "srem"), nil
	case "==", "!=", "<", ">", "<=", ">=":
		if isFloat {
			return fg.g.builder.CreateFCmp(fcmpPred[e.Op], l, r, "fcmp"), nil
		}

		return fg.g.builder.CreateICmp(icmpPred[e.Op], l, r, "icmp"), nil
	default:
		return llvm.Value{}, errors.New("unsupported binary operator %q", e.Op)
	}
}

var icmpPred = map[string]llvm.IntPredicate{
	"==": llvm.IntEQ, "!=": llvm.IntNE,
	"<": llvm.IntSLT, ">": llvm.IntSGT,
	"<=": llvm.IntSLE, ">=": llvm.IntSGE,
}

var fcmpPred = map[string]llvm.FloatPredicate{
	"==": llvm.FloatOEQ, "!=": llvm.FloatONE,
	"<": llvm.FloatOLT, ">": llvm.FloatOGT,
	"<=": llvm.FloatOLE, ">=": llvm.FloatOGE,
}

// genUnary implements spec.md §4.6's Unary rule. `*` threads the declared
// pointee type of its operand instead of assuming i32 (spec.md §9's
// pointer-typing design note); `&` takes the operand's address without
// evaluating it.
func (fg *functionGen) genUnary(ctx context.Context, e *ast.UnaryExpr) (llvm.Value, error) {
	switch e.Op {
	case "&":
		addr, _, err := fg.genAddr(ctx, e.Operand)
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "address-of operand")
		}

		return addr, nil
	case "*":
		ptr, err := fg.genExpr(ctx, e.Operand)
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "deref operand")
		}

		opType, err := fg.exprType(e.Operand)
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "deref operand type")
		}

		pt, ok := opType.(types.Ptr)
		if !ok {
			return llvm.Value{}, errors.New("dereference of non-pointer type %v", opType)
		}

		lt, err := fg.g.llvmType(pt.Elem)
		if err != nil {
			return llvm.Value{}, err
		}

		return fg.g.builder.CreateLoad2(lt, ptr, "deref"), nil
	}

	v, err := fg.genExpr(ctx, e.Operand)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "operand of %q", e.Op)
	}

	switch e.Op {
	case "!":
		return fg.g.builder.CreateNot(v, "not"), nil
	case "-":
		t, err := fg.exprType(e.Operand)
		if err != nil {
			return llvm.Value{}, err
		}

		if types.IsFloat(t) {
			return fg.g.builder.CreateFNeg(v, "fneg"), nil
		}

		return fg.g.builder.CreateNeg(v, "neg"), nil
	default:
		return llvm.Value{}, errors.New("unsupported unary operator %q", e.Op)
	}
}

// genAssignment implements spec.md §4.6's Assignment rule: the Lhs is
// pattern-matched for an address, never evaluated as a value.
func (fg *functionGen) genAssignment(ctx context.Context, e *ast.AssignmentExpr) (llvm.Value, error) {
	addr, _, err := fg.genAddr(ctx, e.Lhs)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "assignment target")
	}

	v, err := fg.genExpr(ctx, e.Rhs)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "assignment value")
	}

	fg.g.builder.CreateStore(v, addr)

	return v, nil
}

// genCall implements spec.md §4.6's Call rule: arguments evaluate
// left-to-right, the result is named only when the callee is non-void.
func (fg *functionGen) genCall(ctx context.Context, e *ast.CallExpr) (llvm.Value, error) {
	fn, ok := fg.g.funcs[e.Callee]
	if !ok {
		return llvm.Value{}, errors.New("call to undeclared function %q", e.Callee)
	}

	fnType := fg.g.funcTypes[e.Callee]

	args := make([]llvm.Value, len(e.Args))

	for i, a := range e.Args {
		v, err := fg.genExpr(ctx, a)
		if err != nil {
			return llvm.Value{}, errors.Wrap(err, "argument %d of %v", i, e.Callee)
		}

		args[i] = v
	}

	name := "call"
	if _, ok := fg.g.funcReturn[e.Callee].(types.Void); ok {
		name = ""
	}

	return fg.g.builder.CreateCall2(fnType, fn, args, name), nil
}

// genMember implements spec.md §4.6's Member rule: GEP+load through an
// addressable object's per-struct field-index map (spec.md §9's
// field-indexing design note), falling back to extract-value when the
// object has no address (e.g. a by-value struct returned from a call).
func (fg *functionGen) genMember(ctx context.Context, e *ast.MemberAccess) (llvm.Value, error) {
	addr, elemType, err := fg.genAddr(ctx, e)
	if err == nil {
		lt, err := fg.g.llvmType(elemType)
		if err != nil {
			return llvm.Value{}, err
		}

		return fg.g.builder.CreateLoad2(lt, addr, e.Member), nil
	}

	objType, terr := fg.exprType(e.Object)
	if terr != nil {
		return llvm.Value{}, errors.Wrap(err, "member %v: not addressable and type unknown", e.Member)
	}

	st, ok := objType.(types.Struct)
	if !ok {
		return llvm.Value{}, errors.New("member access on non-struct type %v", objType)
	}

	def, derr := fg.g.structDef(st.Name)
	if derr != nil {
		return llvm.Value{}, derr
	}

	idx, ok := def.FieldIndex(e.Member)
	if !ok {
		return llvm.Value{}, errors.New("struct %v has no field %q", st.Name, e.Member)
	}

	obj, err := fg.genExpr(ctx, e.Object)
	if err != nil {
		return llvm.Value{}, errors.Wrap(err, "member %v object", e.Member)
	}

	return fg.g.builder.CreateExtractValue(obj, idx, e.Member), nil
}

// genArrayAccess implements spec.md §4.6's ArrayAccess rule via GEP+load.
func (fg *functionGen) genArrayAccess(ctx context.Context, e *ast.ArrayAccess) (llvm.Value, error) {
	addr, elemType, err := fg.genAddr(ctx, e)
	if err != nil {
		return llvm.Value{}, err
	}

	lt, err := fg.g.llvmType(elemType)
	if err != nil {
		return llvm.Value{}, err
	}

	return fg.g.builder.CreateLoad2(lt, addr, "elem"), nil
}

// genAddr resolves e to an address and the declared type stored at that
// address, for the lvalue positions spec.md §4.6 names: Identifier,
// MemberAccess, ArrayAccess, and dereference (`*p = v`).
func (fg *functionGen) genAddr(ctx context.Context, e ast.Expr) (llvm.Value, types.Type, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		if a, ok := fg.scope.LookupAlloca(e.Name); ok {
			return a, fg.locals[e.Name], nil
		}

		if gv, ok := fg.g.globals[e.Name]; ok {
			return gv, fg.g.globalType[e.Name], nil
		}

		return llvm.Value{}, nil, errors.New("undeclared identifier %q", e.Name)

	case *ast.MemberAccess:
		base, baseType, err := fg.genAddr(ctx, e.Object)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		st, ok := baseType.(types.Struct)
		if !ok {
			return llvm.Value{}, nil, errors.New("member access on non-struct type %v", baseType)
		}

		def, err := fg.g.structDef(st.Name)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		idx, ok := def.FieldIndex(e.Member)
		if !ok {
			return llvm.Value{}, nil, errors.New("struct %v has no field %q", st.Name, e.Member)
		}

		lt, err := fg.g.llvmType(baseType)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		zero := llvm.ConstInt(fg.g.ctx.Int32Type(), 0, false)
		fidx := llvm.ConstInt(fg.g.ctx.Int32Type(), uint64(idx), false)

		addr := fg.g.builder.CreateGEP2(lt, base, []llvm.Value{zero, fidx}, e.Member)

		return addr, def.Fields[idx].Type, nil

	case *ast.ArrayAccess:
		base, baseType, err := fg.genAddr(ctx, e.Array)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		at, ok := baseType.(types.Array)
		if !ok {
			return llvm.Value{}, nil, errors.New("index into non-array type %v", baseType)
		}

		idx, err := fg.genExpr(ctx, e.Index)
		if err != nil {
			return llvm.Value{}, nil, errors.Wrap(err, "array index")
		}

		lt, err := fg.g.llvmType(baseType)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		zero := llvm.ConstInt(fg.g.ctx.Int32Type(), 0, false)

		addr := fg.g.builder.CreateGEP2(lt, base, []llvm.Value{zero, idx}, "elem")

		return addr, at.Elem, nil

	case *ast.UnaryExpr:
		if e.Op != "*" {
			return llvm.Value{}, nil, errors.New("expression is not addressable")
		}

		ptr, err := fg.genExpr(ctx, e.Operand)
		if err != nil {
			return llvm.Value{}, nil, errors.Wrap(err, "deref operand")
		}

		opType, err := fg.exprType(e.Operand)
		if err != nil {
			return llvm.Value{}, nil, err
		}

		pt, ok := opType.(types.Ptr)
		if !ok {
			return llvm.Value{}, nil, errors.New("dereference of non-pointer type %v", opType)
		}

		return ptr, pt.Elem, nil

	default:
		return llvm.Value{}, nil, errors.New("expression %T is not addressable", e)
	}
}

// exprType infers the static type of e without a type checker (spec.md's
// Non-goals): enough structural bookkeeping to pick opcodes and GEP
// shapes, not a general inference algorithm.
func (fg *functionGen) exprType(e ast.Expr) (types.Type, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return types.Int{Bits: 32}, nil
	case *ast.FloatLit:
		return types.Float{Bits: 64}, nil
	case *ast.BoolLit:
		return types.Bool{}, nil
	case *ast.StringLit:
		return types.Ptr{Elem: types.Int{Bits: 8}}, nil
	case *ast.Identifier:
		if t, ok := fg.locals[e.Name]; ok {
			return t, nil
		}

		if t, ok := fg.g.globalType[e.Name]; ok {
			return t, nil
		}

		return nil, errors.New("undeclared identifier %q", e.Name)
	case *ast.BinaryExpr:
		if comparisonOps[e.Op] {
			return types.Bool{}, nil
		}

		return fg.exprType(e.Left)
	case *ast.UnaryExpr:
		switch e.Op {
		case "!":
			return types.Bool{}, nil
		case "&":
			t, err := fg.exprType(e.Operand)
			if err != nil {
				return nil, err
			}

			return types.Ptr{Elem: t}, nil
		case "*":
			t, err := fg.exprType(e.Operand)
			if err != nil {
				return nil, err
			}

			pt, ok := t.(types.Ptr)
			if !ok {
				return nil, errors.New("dereference of non-pointer type %v", t)
			}

			return pt.Elem, nil
		default:
			return fg.exprType(e.Operand)
		}
	case *ast.AssignmentExpr:
		return fg.exprType(e.Lhs)
	case *ast.CallExpr:
		t, ok := fg.g.funcReturn[e.Callee]
		if !ok {
			return nil, errors.New("call to undeclared function %q", e.Callee)
		}

		return t, nil
	case *ast.MemberAccess:
		objType, err := fg.exprType(e.Object)
		if err != nil {
			return nil, err
		}

		st, ok := objType.(types.Struct)
		if !ok {
			return nil, errors.New("member access on non-struct type %v", objType)
		}

		def, err := fg.g.structDef(st.Name)
		if err != nil {
			return nil, err
		}

		idx, ok := def.FieldIndex(e.Member)
		if !ok {
			return nil, errors.New("struct %v has no field %q", st.Name, e.Member)
		}

		return def.Fields[idx].Type, nil
	case *ast.ArrayAccess:
		arrType, err := fg.exprType(e.Array)
		if err != nil {
			return nil, err
		}

		at, ok := arrType.(types.Array)
		if !ok {
			return nil, errors.New("index into non-array type %v", arrType)
		}

		return at.Elem, nil
	default:
		return nil, errors.New("cannot infer type of %T", e)
	}
}
