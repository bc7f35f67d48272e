package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlang/heapdb/field"
)

func sampleDesc() *TupleDesc {
	return NewTupleDesc(
		FieldDesc{Type: field.IntType, Name: "id"},
		FieldDesc{Type: field.StringType, Name: "name"},
	)
}

func TestTupleDescSize(t *testing.T) {
	d := sampleDesc()
	assert.Equal(t, field.IntType.Width()+field.StringType.Width(), d.Size())
}

func TestTupleDescEqualsIgnoresNames(t *testing.T) {
	a := NewTupleDesc(FieldDesc{Type: field.IntType, Name: "a"})
	b := NewTupleDesc(FieldDesc{Type: field.IntType, Name: "b"})
	assert.True(t, a.Equals(b), "descriptors with matching positional types should be equal regardless of names")

	c := NewTupleDesc(FieldDesc{Type: field.StringType, Name: "a"})
	assert.False(t, a.Equals(c))
}

func TestTupleDescFieldIndex(t *testing.T) {
	d := sampleDesc()
	idx, err := d.FieldIndex("name")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = d.FieldIndex("missing")
	assert.Error(t, err)
}

func TestTupleDescMerge(t *testing.T) {
	a := NewTupleDesc(FieldDesc{Type: field.IntType, Name: "a"})
	b := NewTupleDesc(FieldDesc{Type: field.StringType, Name: "b"})
	merged := a.Merge(b)
	require.Equal(t, 2, merged.NumFields())
	assert.Equal(t, field.IntType, merged.FieldType(0))
	assert.Equal(t, field.StringType, merged.FieldType(1))
}

func TestTupleDescWithAliasPrefix(t *testing.T) {
	d := sampleDesc().WithAliasPrefix("t")
	assert.Equal(t, "t.id", d.FieldName(0))
	assert.Equal(t, "t.name", d.FieldName(1))
}
