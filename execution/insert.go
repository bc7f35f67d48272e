package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// tupleInserter is the buffer pool capability Insert needs.
type tupleInserter interface {
	InsertTuple(tid common.TransactionID, tableID common.TableID, t *storage.Tuple) error
}

// Insert drains child, inserting each of its tuples into tableID via
// pool. Its first Next returns a one-field {count} tuple; every
// subsequent call is exhausted. child's descriptor must match the
// target table's, checked at construction.
type Insert struct {
	tid     common.TransactionID
	child   DbIterator
	tableID common.TableID
	pool    tupleInserter
	desc    *storage.TupleDesc

	done bool
	open bool
}

// NewInsert builds an insert of child's tuples into tableID. tableDesc
// must equal child's descriptor, else it returns a DbError.
func NewInsert(tid common.TransactionID, child DbIterator, tableID common.TableID, tableDesc *storage.TupleDesc, pool tupleInserter) (*Insert, error) {
	if !child.TupleDesc().Equals(tableDesc) {
		return nil, common.NewError(common.DbError, "insert: child descriptor does not match table descriptor")
	}
	return &Insert{
		tid:     tid,
		child:   child,
		tableID: tableID,
		pool:    pool,
		desc:    storage.NewTupleDesc(storage.FieldDesc{Type: field.IntType, Name: "count"}),
	}, nil
}

// TupleDesc implements DbIterator.
func (ins *Insert) TupleDesc() *storage.TupleDesc { return ins.desc }

// Children implements DbIterator.
func (ins *Insert) Children() []DbIterator { return []DbIterator{ins.child} }

// SetChildren implements DbIterator.
func (ins *Insert) SetChildren(children []DbIterator) { ins.child = children[0] }

// Open implements DbIterator.
func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.done = false
	ins.open = true
	return nil
}

// HasNext implements DbIterator; true exactly once, before the count
// tuple has been produced.
func (ins *Insert) HasNext() (bool, error) {
	return ins.open && !ins.done, nil
}

// Next drains child fully, inserting every tuple, and returns the
// number inserted as a one-field tuple.
func (ins *Insert) Next() (*storage.Tuple, error) {
	if ins.done || !ins.open {
		return nil, common.NewError(common.NoSuchElement, "insert exhausted")
	}
	var count int32
	for {
		has, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.pool.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}
	ins.done = true
	return storage.NewTuple(ins.desc, field.IntValue(count)), nil
}

// Rewind implements DbIterator.
func (ins *Insert) Rewind() error {
	if err := ins.child.Rewind(); err != nil {
		return err
	}
	ins.done = false
	return nil
}

// Close implements DbIterator.
func (ins *Insert) Close() error {
	ins.open = false
	return ins.child.Close()
}
