package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// Join implements nested-loops join: for each left tuple, it rewinds and
// scans the right child, emitting the concatenation of the two tuples
// wherever predicate holds.
type Join struct {
	predicate JoinPredicate
	left      DbIterator
	right     DbIterator
	desc      *storage.TupleDesc

	curLeft *storage.Tuple
	lookahead
}

// NewJoin builds a join of left and right under predicate.
func NewJoin(predicate JoinPredicate, left, right DbIterator) *Join {
	return &Join{
		predicate: predicate,
		left:      left,
		right:     right,
		desc:      left.TupleDesc().Merge(right.TupleDesc()),
	}
}

// TupleDesc implements DbIterator.
func (j *Join) TupleDesc() *storage.TupleDesc { return j.desc }

// Children implements DbIterator.
func (j *Join) Children() []DbIterator { return []DbIterator{j.left, j.right} }

// SetChildren implements DbIterator.
func (j *Join) SetChildren(children []DbIterator) {
	j.left, j.right = children[0], children[1]
	j.desc = j.left.TupleDesc().Merge(j.right.TupleDesc())
}

// Open implements DbIterator.
func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		return err
	}
	j.curLeft = nil
	j.reset(j.fetchNext)
	return nil
}

func (j *Join) fetchNext() (*storage.Tuple, error) {
	for {
		if j.curLeft == nil {
			hasLeft, err := j.left.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasLeft {
				return nil, common.NewError(common.NoSuchElement, "join exhausted")
			}
			j.curLeft, err = j.left.Next()
			if err != nil {
				return nil, err
			}
			if err := j.right.Rewind(); err != nil {
				return nil, err
			}
		}

		hasRight, err := j.right.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasRight {
			j.curLeft = nil
			continue
		}
		rt, err := j.right.Next()
		if err != nil {
			return nil, err
		}
		if j.predicate.Filter(j.curLeft, rt) {
			return concatTuples(j.curLeft, rt, j.desc), nil
		}
	}
}

func concatTuples(left, right *storage.Tuple, desc *storage.TupleDesc) *storage.Tuple {
	values := make([]field.Value, 0, len(left.Fields)+len(right.Fields))
	values = append(values, left.Fields...)
	values = append(values, right.Fields...)
	return storage.NewTuple(desc, values...)
}

// HasNext implements DbIterator.
func (j *Join) HasNext() (bool, error) { return j.hasNext() }

// Next implements DbIterator.
func (j *Join) Next() (*storage.Tuple, error) { return j.next() }

// Rewind implements DbIterator.
func (j *Join) Rewind() error {
	if err := j.left.Rewind(); err != nil {
		return err
	}
	j.curLeft = nil
	j.reset(j.fetchNext)
	return nil
}

// Close implements DbIterator.
func (j *Join) Close() error {
	j.close()
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}
