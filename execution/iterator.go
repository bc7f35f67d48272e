// Package execution implements the pull-based operator algebra (C7):
// scan, filter, join, aggregate, order-by, project, insert, delete, all
// sharing the same Open/HasNext/Next/Rewind/Close capability.
package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/storage"
)

// DbIterator is the capability every operator in the tree exposes. next
// on an unopened or exhausted iterator fails with NoSuchElement.
type DbIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*storage.Tuple, error)
	Rewind() error
	Close() error
	TupleDesc() *storage.TupleDesc
	Children() []DbIterator
	SetChildren(children []DbIterator)
}

// lookahead memoizes the next tuple so HasNext is idempotent between
// Next calls, and both are satisfied by a single underlying fetch
// primitive. Operators embed this and implement fetchNext.
type lookahead struct {
	fetch       func() (*storage.Tuple, error)
	buffered    *storage.Tuple
	hasBuffered bool
	open        bool
}

func (l *lookahead) reset(fetch func() (*storage.Tuple, error)) {
	l.fetch = fetch
	l.buffered = nil
	l.hasBuffered = false
	l.open = true
}

func (l *lookahead) close() {
	l.open = false
	l.buffered = nil
	l.hasBuffered = false
	l.fetch = nil
}

func (l *lookahead) hasNext() (bool, error) {
	if !l.open {
		return false, nil
	}
	if l.hasBuffered {
		return true, nil
	}
	t, err := l.fetch()
	if err != nil {
		if common.IsKind(err, common.NoSuchElement) {
			return false, nil
		}
		return false, err
	}
	l.buffered = t
	l.hasBuffered = true
	return true, nil
}

func (l *lookahead) next() (*storage.Tuple, error) {
	has, err := l.hasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, common.NewError(common.NoSuchElement, "iterator exhausted")
	}
	t := l.buffered
	l.buffered = nil
	l.hasBuffered = false
	return t, nil
}
