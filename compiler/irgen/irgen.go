// Package irgen implements spec.md §4.3 (the IR module builder), §4.4
// (the function generator), §4.5 (statement generators), and §4.6
// (expression generators): the mapping from AST nodes to LLVM IR.
//
// Grounded on compiler/back/back.go's three-part shape (prologue, a
// per-declaration sweep wrapped in errors.Wrap(err, "func %v", f.Name),
// worklist-based block traversal) and compiler/analyze/analyze.go's
// node-type switch dispatch, rebuilt against llvm.Module/llvm.Builder
// (tinygo.org/x/go-llvm) instead of compiler/ir's own int-indexed
// representation, since spec.md's IR module is LLVM IR itself.
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

// Generator carries per-module state: the struct-name -> struct-type map
// populated by the struct sweep (spec.md §3.4's "Per-module" state), plus
// the function and global tables needed to resolve calls and identifier
// fallback to module scope.
type Generator struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder

	structs    types.StructTable
	llvmStruct map[string]llvm.Type

	funcs      map[string]llvm.Value
	funcTypes  map[string]llvm.Type
	funcReturn map[string]types.Type
	globals    map[string]llvm.Value
	globalType map[string]types.Type
}

// Generate runs four ordered sweeps over prog's top-level declarations
// (spec.md §4.3's struct, extern and function sweeps, plus the global
// sweep between structs and externs) and returns the finished module.
// Ordering is
// mandatory: struct declarations precede any code referencing them,
// extern declarations precede the function sweep so calls can resolve.
func Generate(ctx context.Context, prog *ast.Program, moduleName string) (llvm.Context, llvm.Module, error) {
	llctx := llvm.NewContext()

	g := &Generator{
		ctx:        llctx,
		mod:        llctx.NewModule(moduleName),
		builder:    llctx.NewBuilder(),
		structs:    make(types.StructTable),
		llvmStruct: make(map[string]llvm.Type),
		funcs:      make(map[string]llvm.Value),
		funcTypes:  make(map[string]llvm.Type),
		funcReturn: make(map[string]types.Type),
		globals:    make(map[string]llvm.Value),
		globalType: make(map[string]types.Type),
	}

	if err := g.structSweep(ctx, prog); err != nil {
		return llvm.Context{}, llvm.Module{}, errors.Wrap(err, "struct sweep")
	}

	if err := g.globalSweep(ctx, prog); err != nil {
		return llvm.Context{}, llvm.Module{}, errors.Wrap(err, "global sweep")
	}

	if err := g.externSweep(ctx, prog); err != nil {
		return llvm.Context{}, llvm.Module{}, errors.Wrap(err, "extern sweep")
	}

	if err := g.functionSweep(ctx, prog); err != nil {
		return llvm.Context{}, llvm.Module{}, errors.Wrap(err, "function sweep")
	}

	return llctx, g.mod, nil
}

// structSweep materializes a named LLVM struct type for each StructDecl
// and registers it in the struct-name map (spec.md §4.3 step 1). Two
// passes are required: create every named type with an empty body first
// (so field types that reference a later-declared struct still resolve),
// then fill in bodies once every name is known.
func (g *Generator) structSweep(ctx context.Context, prog *ast.Program) error {
	var decls []*ast.StructDecl

	for _, d := range prog.Decls {
		sd, ok := d.(*ast.StructDecl)
		if !ok {
			continue
		}

		decls = append(decls, sd)
		g.llvmStruct[sd.Name] = g.ctx.StructCreateNamed(sd.Name)
	}

	for _, sd := range decls {
		fields := make([]types.Field, len(sd.Fields))
		llvmFields := make([]llvm.Type, len(sd.Fields))

		for i, f := range sd.Fields {
			fields[i] = types.Field{Name: f.Name, Type: f.Type}

			lt, err := g.llvmType(f.Type)
			if err != nil {
				return errors.Wrap(err, "struct %v field %v", sd.Name, f.Name)
			}

			llvmFields[i] = lt
		}

		g.structs[sd.Name] = types.NewStructDef(sd.Name, fields)
		g.llvmStruct[sd.Name].StructSetBody(llvmFields, false)

		tlog.SpanFromContext(ctx).Printw("struct sweep", "name", sd.Name, "fields", len(fields))
	}

	return nil
}

// globalSweep implements SPEC_FULL.md's GlobalDecl extension: a
// module-level variable sweep that runs after structs (a global's type
// may itself be a Struct(name)) and before externs/functions (so
// identifier lookups that fall through to module scope resolve).
func (g *Generator) globalSweep(ctx context.Context, prog *ast.Program) error {
	for _, d := range prog.Decls {
		gd, ok := d.(*ast.GlobalDecl)
		if !ok {
			continue
		}

		lt, err := g.llvmType(gd.Type)
		if err != nil {
			return errors.Wrap(err, "global %v", gd.Name)
		}

		gv := g.mod.AddGlobal(lt, gd.Name)

		init, err := g.globalInitializer(gd, lt)
		if err != nil {
			return errors.Wrap(err, "global %v initializer", gd.Name)
		}

		gv.SetInitializer(init)
		gv.SetLinkage(linkageOf(gd.Export))

		g.globals[gd.Name] = gv
		g.globalType[gd.Name] = gd.Type

		tlog.SpanFromContext(ctx).Printw("global sweep", "name", gd.Name, "export", gd.Export)
	}

	return nil
}

func (g *Generator) globalInitializer(gd *ast.GlobalDecl, lt llvm.Type) (llvm.Value, error) {
	if gd.Init == nil || types.IsAggregate(gd.Type) {
		return llvm.ConstNull(lt), nil
	}

	switch init := gd.Init.(type) {
	case *ast.IntLit:
		return llvm.ConstInt(lt, uint64(init.Value), true), nil
	case *ast.FloatLit:
		return llvm.ConstFloat(lt, init.Value), nil
	case *ast.BoolLit:
		v := uint64(0)
		if init.Value {
			v = 1
		}

		return llvm.ConstInt(lt, v, false), nil
	default:
		return llvm.ConstNull(lt), errors.New("global initializer must be a literal constant")
	}
}

// externSweep declares an external function symbol for each ExternDecl
// with no body (spec.md §4.3 step 2), so the function sweep's calls can
// resolve.
func (g *Generator) externSweep(ctx context.Context, prog *ast.Program) error {
	for _, d := range prog.Decls {
		ed, ok := d.(*ast.ExternDecl)
		if !ok {
			continue
		}

		fnType, err := g.functionType(ed.Params, ed.Return)
		if err != nil {
			return errors.Wrap(err, "extern %v", ed.Name)
		}

		fn := g.mod.AddFunction(ed.Name, fnType)
		fn.SetLinkage(llvm.ExternalLinkage)

		g.funcs[ed.Name] = fn
		g.funcTypes[ed.Name] = fnType
		g.funcReturn[ed.Name] = ed.Return

		tlog.SpanFromContext(ctx).Printw("extern sweep", "name", ed.Name)
	}

	return nil
}

// functionSweep builds the body of every FunctionDecl (spec.md §4.3 step
// 3, §4.4). Function signatures for every declared function are
// registered before any body is generated so mutually recursive calls
// resolve regardless of declaration order.
func (g *Generator) functionSweep(ctx context.Context, prog *ast.Program) error {
	var decls []*ast.FunctionDecl

	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunctionDecl)
		if !ok {
			continue
		}

		fnType, err := g.functionType(fd.Params, fd.Return)
		if err != nil {
			return errors.Wrap(err, "function %v signature", fd.Name)
		}

		fn := g.mod.AddFunction(fd.Name, fnType)
		fn.SetLinkage(linkageOf(fd.Export))

		g.funcs[fd.Name] = fn
		g.funcTypes[fd.Name] = fnType
		g.funcReturn[fd.Name] = fd.Return

		decls = append(decls, fd)
	}

	for _, fd := range decls {
		fn := g.funcs[fd.Name]

		fgen := &functionGen{
			g:      g,
			fn:     fn,
			decl:   fd,
			scope:  scope.New[llvm.Value](),
			locals: make(map[string]types.Type),
		}

		if err := fgen.generate(ctx); err != nil {
			return errors.Wrap(err, "function %v", fd.Name)
		}
	}

	return nil
}

func (g *Generator) functionType(params []ast.Param, ret types.Type) (llvm.Type, error) {
	paramTypes := make([]llvm.Type, len(params))

	for i, p := range params {
		lt, err := g.llvmType(p.Type)
		if err != nil {
			return llvm.Type{}, errors.Wrap(err, "param %v", p.Name)
		}

		paramTypes[i] = lt
	}

	retType, err := g.llvmType(ret)
	if err != nil {
		return llvm.Type{}, errors.Wrap(err, "return type")
	}

	return llvm.FunctionType(retType, paramTypes, false), nil
}

func linkageOf(export bool) llvm.Linkage {
	if export {
		return llvm.ExternalLinkage
	}

	return llvm.InternalLinkage
}

// llvmType maps a types.Type onto its LLVM representation (spec.md
// §3.1/§4.3). Struct(name) resolves against the struct sweep's
// llvmStruct map, enforcing the invariant that a struct must be declared
// before first use.
func (g *Generator) llvmType(t types.Type) (llvm.Type, error) {
	switch t := t.(type) {
	case types.Bool:
		return g.ctx.Int1Type(), nil
	case types.Int:
		return g.intType(t.Bits)
	case types.Float:
		return g.floatType(t.Bits)
	case types.Ptr:
		elem, err := g.llvmType(t.Elem)
		if err != nil {
			return llvm.Type{}, err
		}

		return llvm.PointerType(elem, 0), nil
	case types.Array:
		elem, err := g.llvmType(t.Elem)
		if err != nil {
			return llvm.Type{}, err
		}

		return llvm.ArrayType(elem, t.Len), nil
	case types.Struct:
		lt, ok := g.llvmStruct[t.Name]
		if !ok {
			return llvm.Type{}, errors.New("undeclared struct %q", t.Name)
		}

		return lt, nil
	case types.Void:
		return g.ctx.VoidType(), nil
	default:
		return llvm.Type{}, errors.New("unsupported type %T", t)
	}
}

func (g *Generator) intType(bits int) (llvm.Type, error) {
	switch bits {
	case 1:
		return g.ctx.Int1Type(), nil
	case 8:
		return g.ctx.Int8Type(), nil
	case 16:
		return g.ctx.Int16Type(), nil
	case 32:
		return g.ctx.Int32Type(), nil
	case 64:
		return g.ctx.Int64Type(), nil
	default:
		return llvm.Type{}, errors.New("unsupported integer width %d", bits)
	}
}

func (g *Generator) floatType(bits int) (llvm.Type, error) {
	switch bits {
	case 16:
		return g.ctx.HalfType(), nil
	case 32:
		return g.ctx.FloatType(), nil
	case 64:
		return g.ctx.DoubleType(), nil
	default:
		return llvm.Type{}, errors.New("unsupported float width %d", bits)
	}
}

// structDef resolves a nominal struct type to its field table, used by
// member access/assignment (spec.md §4.6, §9's field-indexing design
// note).
func (g *Generator) structDef(name string) (*types.StructDef, error) {
	d, ok := g.structs[name]
	if !ok {
		return nil, errors.New("undeclared struct %q", name)
	}

	return d, nil
}
