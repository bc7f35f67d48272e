package execution

import "github.com/hlang/heapdb/storage"

// Filter yields only the tuples from child that satisfy predicate.
type Filter struct {
	predicate Predicate
	child     DbIterator
	lookahead
}

// NewFilter builds a filter over child using predicate.
func NewFilter(predicate Predicate, child DbIterator) *Filter {
	return &Filter{predicate: predicate, child: child}
}

// TupleDesc implements DbIterator; a filter's output shape equals its
// child's.
func (f *Filter) TupleDesc() *storage.TupleDesc { return f.child.TupleDesc() }

// Children implements DbIterator.
func (f *Filter) Children() []DbIterator { return []DbIterator{f.child} }

// SetChildren implements DbIterator.
func (f *Filter) SetChildren(children []DbIterator) { f.child = children[0] }

// Open implements DbIterator.
func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.reset(f.fetchNext)
	return nil
}

func (f *Filter) fetchNext() (*storage.Tuple, error) {
	for {
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		if f.predicate.Filter(t) {
			return t, nil
		}
	}
}

// HasNext implements DbIterator.
func (f *Filter) HasNext() (bool, error) { return f.hasNext() }

// Next implements DbIterator.
func (f *Filter) Next() (*storage.Tuple, error) { return f.next() }

// Rewind implements DbIterator.
func (f *Filter) Rewind() error {
	if err := f.child.Rewind(); err != nil {
		return err
	}
	f.reset(f.fetchNext)
	return nil
}

// Close implements DbIterator.
func (f *Filter) Close() error {
	f.close()
	return f.child.Close()
}
