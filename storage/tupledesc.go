// Package storage implements the on-disk heap-file page format (C2/C3)
// and the tuple/descriptor model (C1) the rest of the engine builds on.
package storage

import (
	"strings"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
)

// FieldDesc names one column of a TupleDesc. Name is informational only —
// two descriptors compare equal if their field types match positionally,
// regardless of names.
type FieldDesc struct {
	Type field.Type
	Name string
}

// TupleDesc is the ordered schema of a tuple: a sequence of typed,
// optionally named fields with a fixed total byte width.
type TupleDesc struct {
	fields []FieldDesc
}

// NewTupleDesc builds a descriptor from field descriptions. It must have
// at least one field.
func NewTupleDesc(fields ...FieldDesc) *TupleDesc {
	common.Assert(len(fields) > 0, "storage: TupleDesc requires at least one field")
	cp := make([]FieldDesc, len(fields))
	copy(cp, fields)
	return &TupleDesc{fields: cp}
}

// NumFields returns the number of fields in the descriptor.
func (d *TupleDesc) NumFields() int { return len(d.fields) }

// FieldType returns the type of field i.
func (d *TupleDesc) FieldType(i int) field.Type { return d.fields[i].Type }

// FieldName returns the name of field i.
func (d *TupleDesc) FieldName(i int) string { return d.fields[i].Name }

// FieldIndex returns the index of the field with the given name, or
// NoSuchElement if none matches.
func (d *TupleDesc) FieldIndex(name string) (int, error) {
	for i, f := range d.fields {
		if f.Name == name {
			return i, nil
		}
	}
	return 0, common.NewError(common.NoSuchElement, "no field named %q", name)
}

// Size returns the total serialized byte width of a tuple matching this
// descriptor: the sum of each field's fixed width.
func (d *TupleDesc) Size() int {
	total := 0
	for _, f := range d.fields {
		total += f.Type.Width()
	}
	return total
}

// Equals reports whether d and other describe the same sequence of field
// types. Names are informational and do not affect equality.
func (d *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(d.fields) != len(other.fields) {
		return false
	}
	for i := range d.fields {
		if d.fields[i].Type != other.fields[i].Type {
			return false
		}
	}
	return true
}

// Merge concatenates d's fields followed by other's fields into a new
// descriptor.
func (d *TupleDesc) Merge(other *TupleDesc) *TupleDesc {
	merged := make([]FieldDesc, 0, len(d.fields)+len(other.fields))
	merged = append(merged, d.fields...)
	merged = append(merged, other.fields...)
	return &TupleDesc{fields: merged}
}

// WithAliasPrefix returns a copy of d with every field name prefixed by
// "alias.", used by SeqScan to disambiguate columns from different table
// references in a join.
func (d *TupleDesc) WithAliasPrefix(alias string) *TupleDesc {
	renamed := make([]FieldDesc, len(d.fields))
	for i, f := range d.fields {
		name := f.Name
		if alias != "" {
			name = alias + "." + f.Name
		}
		renamed[i] = FieldDesc{Type: f.Type, Name: name}
	}
	return &TupleDesc{fields: renamed}
}

func (d *TupleDesc) String() string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Type.String() + "(" + f.Name + ")"
	}
	return strings.Join(names, ", ")
}
