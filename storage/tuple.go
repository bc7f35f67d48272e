package storage

import (
	"strings"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
)

// Tuple is a descriptor plus an ordered sequence of field values matching
// that descriptor, plus an optional record identifier stamped by the
// storage layer when the tuple is materialized from (or inserted onto) a
// page.
type Tuple struct {
	Desc   *TupleDesc
	Fields []field.Value
	RID    common.RecordID

	hasRID bool
}

// NewTuple builds a tuple from a descriptor and values, with no RID set.
func NewTuple(desc *TupleDesc, values ...field.Value) *Tuple {
	common.Assert(len(values) == desc.NumFields(), "storage: value count does not match descriptor")
	fields := make([]field.Value, len(values))
	copy(fields, values)
	return &Tuple{Desc: desc, Fields: fields}
}

// SetRID stamps the tuple's record identifier.
func (t *Tuple) SetRID(rid common.RecordID) {
	t.RID = rid
	t.hasRID = true
}

// HasRID reports whether the tuple carries a valid record identifier.
func (t *Tuple) HasRID() bool { return t.hasRID }

// SetField overwrites the value at index i, which must match the
// descriptor's type at that index.
func (t *Tuple) SetField(i int, v field.Value) {
	common.Assert(v.Type() == t.Desc.FieldType(i), "storage: field type mismatch at index %d", i)
	t.Fields[i] = v
}

// Equals compares two tuples field-by-field; record identifiers are not
// considered.
func (t *Tuple) Equals(other *Tuple) bool {
	if !t.Desc.Equals(other.Desc) {
		return false
	}
	for i := range t.Fields {
		if !t.Fields[i].Equals(other.Fields[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Fields))
	for i, v := range t.Fields {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\t")
}

// WriteTo serializes the tuple's fields, in descriptor order, into buf.
// buf must be at least Desc.Size() bytes.
func (t *Tuple) WriteTo(buf []byte) {
	off := 0
	for i, v := range t.Fields {
		w := t.Desc.FieldType(i).Width()
		v.WriteTo(buf[off : off+w])
		off += w
	}
}

// ReadTuple deserializes a tuple matching desc from buf.
func ReadTuple(desc *TupleDesc, buf []byte) *Tuple {
	values := make([]field.Value, desc.NumFields())
	off := 0
	for i := 0; i < desc.NumFields(); i++ {
		t := desc.FieldType(i)
		w := t.Width()
		values[i] = field.ReadFrom(t, buf[off:off+w])
		off += w
	}
	return &Tuple{Desc: desc, Fields: values}
}
