package storage

import (
	"math/bits"

	"github.com/hlang/heapdb/common"
)

// PageSize is the fixed byte size of every page on disk, P in the design
// document.
const PageSize = 4096

// NumSlots returns N, the number of fixed-width slots a page can hold
// given a tuple width, per the header-bitmap layout in the design
// document: N = floor((P*8) / (tupleWidth*8 + 1)).
func NumSlots(tupleWidth int) int {
	return (PageSize * 8) / (tupleWidth*8 + 1)
}

func headerBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// HeapPage is a fixed-size slotted page: a header bitmap of slot
// occupancy followed by N fixed-width slots, followed by unused padding.
// It holds the raw byte buffer as its mutable in-memory representation —
// mutating a HeapPage mutates the same bytes GetPageData later returns.
type HeapPage struct {
	id         common.PageID
	desc       *TupleDesc
	numSlots   int
	headerLen  int
	bytes      []byte
	dirty      bool
	dirtiedBy  common.TransactionID
	hasDirtier bool
}

// NewHeapPage parses buf as a heap page for id under desc. buf must be
// exactly PageSize bytes, or Corrupt is returned; the byte buffer is
// retained (not copied) as the page's mutable representation.
func NewHeapPage(id common.PageID, desc *TupleDesc, buf []byte) (*HeapPage, error) {
	if len(buf) != PageSize {
		return nil, common.NewError(common.Corrupt, "heap page buffer has length %d, want %d", len(buf), PageSize)
	}
	numSlots := NumSlots(desc.Size())
	return &HeapPage{
		id:        id,
		desc:      desc,
		numSlots:  numSlots,
		headerLen: headerBytes(numSlots),
		bytes:     buf,
	}, nil
}

// CreateEmptyPageData returns a zeroed buffer of PageSize bytes, suitable
// for passing to NewHeapPage to build a fresh empty page.
func CreateEmptyPageData() []byte {
	return make([]byte, PageSize)
}

// ID returns the page's identifier.
func (p *HeapPage) ID() common.PageID { return p.id }

// NumSlots returns N, the fixed slot count of the page.
func (p *HeapPage) NumSlots() int { return p.numSlots }

func (p *HeapPage) slotOffset(i int) int {
	return p.headerLen + i*p.desc.Size()
}

// IsSlotUsed reports whether slot i's occupancy bit is set.
func (p *HeapPage) IsSlotUsed(i int) bool {
	common.Assert(i >= 0 && i < p.numSlots, "storage: slot index %d out of range", i)
	return p.bytes[i/8]&(1<<uint(i%8)) != 0
}

// MarkSlotUsed sets or clears slot i's occupancy bit.
func (p *HeapPage) MarkSlotUsed(i int, used bool) {
	common.Assert(i >= 0 && i < p.numSlots, "storage: slot index %d out of range", i)
	mask := byte(1 << uint(i%8))
	if used {
		p.bytes[i/8] |= mask
	} else {
		p.bytes[i/8] &^= mask
	}
}

// GetNumEmptySlots returns the count of unoccupied slots.
func (p *HeapPage) GetNumEmptySlots() int {
	used := 0
	full := p.numSlots / 8
	for i := 0; i < full; i++ {
		used += bits.OnesCount8(p.bytes[i])
	}
	for i := full * 8; i < p.numSlots; i++ {
		if p.IsSlotUsed(i) {
			used++
		}
	}
	return p.numSlots - used
}

// GetTuple returns the tuple stored in slot i, or nil if the slot is
// empty. The returned tuple's RID is stamped to (p.id, i).
func (p *HeapPage) GetTuple(i int) *Tuple {
	if !p.IsSlotUsed(i) {
		return nil
	}
	off := p.slotOffset(i)
	t := ReadTuple(p.desc, p.bytes[off:off+p.desc.Size()])
	t.SetRID(common.RecordID{PageID: p.id, Slot: i})
	return t
}

// InsertTuple writes t into the lowest-numbered empty slot, stamping its
// RID. It fails with DbError(NoSpace) if the page is full, or
// DbError(SchemaMismatch) if t's descriptor does not match the page's.
func (p *HeapPage) InsertTuple(t *Tuple) error {
	if !t.Desc.Equals(p.desc) {
		return common.NewError(common.DbError, "insertTuple: schema mismatch")
	}
	slot := -1
	for i := 0; i < p.numSlots; i++ {
		if !p.IsSlotUsed(i) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return common.NewError(common.DbError, "insertTuple: page %s has no free slot", p.id)
	}
	off := p.slotOffset(slot)
	t.WriteTo(p.bytes[off : off+p.desc.Size()])
	p.MarkSlotUsed(slot, true)
	t.SetRID(common.RecordID{PageID: p.id, Slot: slot})
	return nil
}

// DeleteTuple clears the slot occupied by t.RID. It fails with DbError if
// t does not belong to this page or its slot is already empty.
func (p *HeapPage) DeleteTuple(t *Tuple) error {
	if !t.HasRID() || t.RID.PageID != p.id {
		return common.NewError(common.DbError, "deleteTuple: tuple is not on page %s", p.id)
	}
	slot := t.RID.Slot
	if slot < 0 || slot >= p.numSlots || !p.IsSlotUsed(slot) {
		return common.NewError(common.DbError, "deleteTuple: slot %d already empty", slot)
	}
	p.MarkSlotUsed(slot, false)
	return nil
}

// Iterator returns a fresh, forward-only sequence of tuples over all used
// slots in ascending slot order. It is not restartable; callers that need
// to iterate again build a new one.
func (p *HeapPage) Iterator() *PageTupleIterator {
	return &PageTupleIterator{page: p, next: 0}
}

// MarkDirty records whether the page has been modified since its last
// flush, and by which transaction.
func (p *HeapPage) MarkDirty(dirty bool, tid common.TransactionID) {
	p.dirty = dirty
	p.hasDirtier = dirty
	p.dirtiedBy = tid
}

// IsDirty returns the id of the transaction that last dirtied the page,
// and true, or (0, false) if the page is clean.
func (p *HeapPage) IsDirty() (common.TransactionID, bool) {
	return p.dirtiedBy, p.hasDirtier
}

// GetPageData serializes the page's current state for write-through. The
// returned slice is the page's own backing buffer, already up to date
// after every InsertTuple/DeleteTuple/MarkSlotUsed call.
func (p *HeapPage) GetPageData() []byte {
	return p.bytes
}

// PageTupleIterator walks a HeapPage's used slots in ascending order.
type PageTupleIterator struct {
	page *HeapPage
	next int
}

// HasNext reports whether another tuple remains.
func (it *PageTupleIterator) HasNext() bool {
	for it.next < it.page.numSlots {
		if it.page.IsSlotUsed(it.next) {
			return true
		}
		it.next++
	}
	return false
}

// Next returns the next tuple, advancing the cursor. Fails NoSuchElement
// if exhausted.
func (it *PageTupleIterator) Next() (*Tuple, error) {
	if !it.HasNext() {
		return nil, common.NewError(common.NoSuchElement, "page iterator exhausted")
	}
	t := it.page.GetTuple(it.next)
	it.next++
	return t, nil
}
