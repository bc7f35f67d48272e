package execution

import (
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// Predicate compares one field of a tuple against a fixed literal, used
// by Filter.
type Predicate struct {
	FieldIndex int
	Op         field.Op
	Literal    field.Value
}

// Filter reports whether t satisfies p.
func (p Predicate) Filter(t *storage.Tuple) bool {
	v := t.Fields[p.FieldIndex]
	if p.Op == field.Like {
		return field.EvalLike(v.AsString(), p.Literal.AsString())
	}
	return p.Op.Eval(v.Compare(p.Literal))
}

// JoinPredicate compares one field of a left tuple against one field of
// a right tuple, used by Join.
type JoinPredicate struct {
	LeftField  int
	Op         field.Op
	RightField int
}

// Filter reports whether the pair (left, right) satisfies jp.
func (jp JoinPredicate) Filter(left, right *storage.Tuple) bool {
	lv := left.Fields[jp.LeftField]
	rv := right.Fields[jp.RightField]
	if jp.Op == field.Like {
		return field.EvalLike(lv.AsString(), rv.AsString())
	}
	return jp.Op.Eval(lv.Compare(rv))
}
