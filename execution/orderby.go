package execution

import (
	"sort"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/storage"
)

// OrderBy sorts its child's tuples into memory by fieldIndex, then
// replays them in order.
type OrderBy struct {
	fieldIndex int
	ascending  bool
	child      DbIterator

	buffered []*storage.Tuple
	pos      int
	open     bool
}

// NewOrderBy builds a sort of child on fieldIndex.
func NewOrderBy(fieldIndex int, ascending bool, child DbIterator) *OrderBy {
	return &OrderBy{fieldIndex: fieldIndex, ascending: ascending, child: child}
}

// TupleDesc implements DbIterator.
func (o *OrderBy) TupleDesc() *storage.TupleDesc { return o.child.TupleDesc() }

// Children implements DbIterator.
func (o *OrderBy) Children() []DbIterator { return []DbIterator{o.child} }

// SetChildren implements DbIterator.
func (o *OrderBy) SetChildren(children []DbIterator) { o.child = children[0] }

// Open reads every tuple from child into memory and sorts them.
func (o *OrderBy) Open() error {
	if err := o.child.Open(); err != nil {
		return err
	}
	o.buffered = nil
	for {
		has, err := o.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := o.child.Next()
		if err != nil {
			return err
		}
		o.buffered = append(o.buffered, t)
	}
	sort.SliceStable(o.buffered, func(i, j int) bool {
		cmp := o.buffered[i].Fields[o.fieldIndex].Compare(o.buffered[j].Fields[o.fieldIndex])
		if o.ascending {
			return cmp < 0
		}
		return cmp > 0
	})
	o.pos = 0
	o.open = true
	return nil
}

// HasNext implements DbIterator.
func (o *OrderBy) HasNext() (bool, error) {
	if !o.open {
		return false, nil
	}
	return o.pos < len(o.buffered), nil
}

// Next implements DbIterator.
func (o *OrderBy) Next() (*storage.Tuple, error) {
	has, err := o.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, common.NewError(common.NoSuchElement, "order-by exhausted")
	}
	t := o.buffered[o.pos]
	o.pos++
	return t, nil
}

// Rewind implements DbIterator; re-sorts from scratch.
func (o *OrderBy) Rewind() error {
	if err := o.child.Rewind(); err != nil {
		return err
	}
	return o.Open()
}

// Close implements DbIterator.
func (o *OrderBy) Close() error {
	o.open = false
	o.buffered = nil
	return o.child.Close()
}
