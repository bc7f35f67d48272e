package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/storage"
)

// SeqScan is a leaf operator that pulls every tuple out of one table's
// heap file, in the order the file's iterator visits pages and slots.
type SeqScan struct {
	tid     common.TransactionID
	tableID common.TableID
	alias   string
	file    *storage.HeapFile
	pool    storage.PageFetcher
	desc    *storage.TupleDesc

	it *storage.HeapFileIterator
	lookahead
}

// NewSeqScan builds a scan of file under tid, requesting pages from
// pool and naming its output fields "alias.col". If alias is "", the
// table's own field names are used unprefixed.
func NewSeqScan(tid common.TransactionID, file *storage.HeapFile, pool storage.PageFetcher, alias string) *SeqScan {
	return &SeqScan{
		tid:     tid,
		tableID: file.TableID(),
		alias:   alias,
		file:    file,
		pool:    pool,
		desc:    file.TupleDesc().WithAliasPrefix(alias),
	}
}

// TupleDesc implements DbIterator.
func (s *SeqScan) TupleDesc() *storage.TupleDesc { return s.desc }

// Children implements DbIterator; SeqScan is a leaf.
func (s *SeqScan) Children() []DbIterator { return nil }

// SetChildren implements DbIterator; SeqScan accepts none.
func (s *SeqScan) SetChildren(children []DbIterator) {
	common.Assert(len(children) == 0, "execution: SeqScan takes no children")
}

// Open implements DbIterator.
func (s *SeqScan) Open() error {
	s.it = s.file.Iterator(s.tid, s.pool)
	if err := s.it.Open(); err != nil {
		return err
	}
	s.reset(s.fetchNext)
	return nil
}

func (s *SeqScan) fetchNext() (*storage.Tuple, error) {
	t, err := s.it.Next()
	if err != nil {
		return nil, err
	}
	return relabel(t, s.desc), nil
}

// relabel returns a shallow copy of t stamped with desc, so a scan's
// output carries alias-prefixed field names without mutating the
// underlying page-owned tuple.
func relabel(t *storage.Tuple, desc *storage.TupleDesc) *storage.Tuple {
	out := &storage.Tuple{Desc: desc, Fields: t.Fields}
	if t.HasRID() {
		out.SetRID(t.RID)
	}
	return out
}

// HasNext implements DbIterator.
func (s *SeqScan) HasNext() (bool, error) { return s.hasNext() }

// Next implements DbIterator.
func (s *SeqScan) Next() (*storage.Tuple, error) { return s.next() }

// Rewind implements DbIterator.
func (s *SeqScan) Rewind() error {
	if err := s.it.Rewind(); err != nil {
		return err
	}
	s.reset(s.fetchNext)
	return nil
}

// Close implements DbIterator.
func (s *SeqScan) Close() error {
	s.close()
	if s.it != nil {
		return s.it.Close()
	}
	return nil
}
