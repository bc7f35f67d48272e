package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// tupleDeleter is the buffer pool capability Delete needs.
type tupleDeleter interface {
	DeleteTuple(tid common.TransactionID, t *storage.Tuple) error
}

// Delete drains child, deleting each of its tuples via pool, symmetric
// to Insert.
type Delete struct {
	tid   common.TransactionID
	child DbIterator
	pool  tupleDeleter
	desc  *storage.TupleDesc

	done bool
	open bool
}

// NewDelete builds a delete of child's tuples.
func NewDelete(tid common.TransactionID, child DbIterator, pool tupleDeleter) *Delete {
	return &Delete{
		tid:   tid,
		child: child,
		pool:  pool,
		desc:  storage.NewTupleDesc(storage.FieldDesc{Type: field.IntType, Name: "count"}),
	}
}

// TupleDesc implements DbIterator.
func (d *Delete) TupleDesc() *storage.TupleDesc { return d.desc }

// Children implements DbIterator.
func (d *Delete) Children() []DbIterator { return []DbIterator{d.child} }

// SetChildren implements DbIterator.
func (d *Delete) SetChildren(children []DbIterator) { d.child = children[0] }

// Open implements DbIterator.
func (d *Delete) Open() error {
	if err := d.child.Open(); err != nil {
		return err
	}
	d.done = false
	d.open = true
	return nil
}

// HasNext implements DbIterator; true exactly once.
func (d *Delete) HasNext() (bool, error) {
	return d.open && !d.done, nil
}

// Next drains child fully, deleting every tuple, and returns the number
// deleted as a one-field tuple.
func (d *Delete) Next() (*storage.Tuple, error) {
	if d.done || !d.open {
		return nil, common.NewError(common.NoSuchElement, "delete exhausted")
	}
	var count int32
	for {
		has, err := d.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := d.child.Next()
		if err != nil {
			return nil, err
		}
		if err := d.pool.DeleteTuple(d.tid, t); err != nil {
			return nil, err
		}
		count++
	}
	d.done = true
	return storage.NewTuple(d.desc, field.IntValue(count)), nil
}

// Rewind implements DbIterator.
func (d *Delete) Rewind() error {
	if err := d.child.Rewind(); err != nil {
		return err
	}
	d.done = false
	return nil
}

// Close implements DbIterator.
func (d *Delete) Close() error {
	d.open = false
	return d.child.Close()
}
