package execution

import (
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// Project reindexes a child's fields into a new, possibly narrower or
// reordered, tuple shape.
type Project struct {
	fieldIndices []int
	child        DbIterator
	desc         *storage.TupleDesc
	lookahead
}

// NewProject builds a projection of child onto fieldIndices, naming and
// typing the output fields from names/types.
func NewProject(fieldIndices []int, names []string, types []field.Type, child DbIterator) *Project {
	fields := make([]storage.FieldDesc, len(fieldIndices))
	for i := range fieldIndices {
		fields[i] = storage.FieldDesc{Type: types[i], Name: names[i]}
	}
	return &Project{
		fieldIndices: fieldIndices,
		child:        child,
		desc:         storage.NewTupleDesc(fields...),
	}
}

// TupleDesc implements DbIterator.
func (p *Project) TupleDesc() *storage.TupleDesc { return p.desc }

// Children implements DbIterator.
func (p *Project) Children() []DbIterator { return []DbIterator{p.child} }

// SetChildren implements DbIterator.
func (p *Project) SetChildren(children []DbIterator) { p.child = children[0] }

// Open implements DbIterator.
func (p *Project) Open() error {
	if err := p.child.Open(); err != nil {
		return err
	}
	p.reset(p.fetchNext)
	return nil
}

func (p *Project) fetchNext() (*storage.Tuple, error) {
	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	values := make([]field.Value, len(p.fieldIndices))
	for i, idx := range p.fieldIndices {
		values[i] = t.Fields[idx]
	}
	return storage.NewTuple(p.desc, values...), nil
}

// HasNext implements DbIterator.
func (p *Project) HasNext() (bool, error) { return p.hasNext() }

// Next implements DbIterator.
func (p *Project) Next() (*storage.Tuple, error) { return p.next() }

// Rewind implements DbIterator.
func (p *Project) Rewind() error {
	if err := p.child.Rewind(); err != nil {
		return err
	}
	p.reset(p.fetchNext)
	return nil
}

// Close implements DbIterator.
func (p *Project) Close() error {
	p.close()
	return p.child.Close()
}
