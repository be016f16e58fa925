// Package types implements the Type model of spec.md §3.1: a closed,
// tagged set of integer widths, floating widths, pointers, fixed arrays,
// nominal structs, and void.
//
// Adapted from compiler/tp: Int.Size/Ptr.Size/Array.Size keep its shape,
// Struct was changed from an inline {Fields} value type to a nominal
// reference resolved against a module's struct table (see StructTable),
// per spec.md's invariant that "every Struct carries a name that must be
// declared in the same compilation unit before first use in code
// generation".
package types

import "fmt"

type (
	// Type is any member of the closed set described in spec.md §3.1.
	Type interface {
		Size() int
		String() string
	}

	// Int is a signed integer of the given bit width. The language has no
	// unsigned integer type: arithmetic is signed, comparisons are signed.
	Int struct {
		Bits int
	}

	// Float is an IEEE-754 floating type of the given bit width.
	Float struct {
		Bits int
	}

	// Bool is the 1-bit boolean type (i1 in the surface grammar).
	Bool struct{}

	// Ptr owns the Type of its referent.
	Ptr struct {
		Elem Type
	}

	// Array is a fixed-length, N >= 0, homogeneous aggregate.
	Array struct {
		Elem Type
		Len  int
	}

	// Struct is a nominal reference to a struct declared elsewhere in the
	// compilation unit. It does not carry its own field list: that lives
	// in the StructTable entry the name resolves to.
	Struct struct {
		Name string
	}

	// Void is valid only as a function return type.
	Void struct{}

	// StructDef is the resolved shape of a struct declaration: an ordered
	// field list plus a name->index map built during the module builder's
	// struct sweep (spec.md §4.3). Replacing the hard-coded {x,y,z} field
	// table (spec.md §4.6, §9) with this per-struct map is this repo's
	// resolution of that design note.
	StructDef struct {
		Name    string
		Fields  []Field
		indexOf map[string]int
	}

	Field struct {
		Name string
		Type Type
	}

	// StructTable maps a struct name to its resolved definition. Populated
	// by the module builder's struct sweep (spec.md §4.3) before any code
	// generation that might reference a Struct(name) type.
	StructTable map[string]*StructDef
)

func NewStructDef(name string, fields []Field) *StructDef {
	d := &StructDef{
		Name:    name,
		Fields:  fields,
		indexOf: make(map[string]int, len(fields)),
	}

	for i, f := range fields {
		d.indexOf[f.Name] = i
	}

	return d
}

// FieldIndex returns the index of a field by name and whether it exists.
func (d *StructDef) FieldIndex(name string) (int, bool) {
	i, ok := d.indexOf[name]
	return i, ok
}

func (x Int) Size() int   { return x.Bits / 8 }
func (x Float) Size() int { return x.Bits / 8 }
func (x Bool) Size() int  { return 1 }
func (x Ptr) Size() int   { return 8 }
func (x Array) Size() int { return x.Elem.Size() * x.Len }
func (x Void) Size() int  { return 0 }

// Size of a nominal Struct cannot be known without its StructTable entry;
// code paths that need it resolve through StructTable first and call
// StructDef.Size instead.
func (x Struct) Size() int { return 0 }

func (d *StructDef) Size() (s int) {
	for _, f := range d.Fields {
		s += f.Type.Size()
	}

	return s
}

func (x Int) String() string    { return fmt.Sprintf("i%d", x.Bits) }
func (x Float) String() string  { return fmt.Sprintf("f%d", x.Bits) }
func (x Bool) String() string   { return "i1" }
func (x Ptr) String() string    { return "*" + x.Elem.String() }
func (x Array) String() string  { return fmt.Sprintf("array[%d] %s", x.Len, x.Elem.String()) }
func (x Struct) String() string { return x.Name }
func (x Void) String() string   { return "void" }

// IsAggregate reports whether values of t are struct- or array-shaped,
// i.e. whether a LetStmt for t stores a zero-initializer and ignores its
// initializer expression (spec.md §4.5).
func IsAggregate(t Type) bool {
	switch t.(type) {
	case Struct, Array:
		return true
	default:
		return false
	}
}

// IsFloat reports whether arithmetic on t should use the floating variant
// of a binary operator (spec.md §4.6).
func IsFloat(t Type) bool {
	_, ok := t.(Float)
	return ok
}
