package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
)

func testPageID() common.PageID {
	return common.PageID{TableID: 1, PageNum: 0}
}

func newTestPage(t *testing.T) *HeapPage {
	t.Helper()
	p, err := NewHeapPage(testPageID(), sampleDesc(), CreateEmptyPageData())
	require.NoError(t, err)
	return p
}

func TestNewHeapPageRejectsWrongSize(t *testing.T) {
	_, err := NewHeapPage(testPageID(), sampleDesc(), make([]byte, PageSize-1))
	assert.Error(t, err, "wrong-size buffer should be rejected as Corrupt")
	assert.True(t, common.IsKind(err, common.Corrupt))
}

func TestHeapPageInsertFillsAllSlots(t *testing.T) {
	p := newTestPage(t)
	numSlots := p.NumSlots()
	require.Greater(t, numSlots, 0)
	assert.Equal(t, numSlots, p.GetNumEmptySlots())

	for i := 0; i < numSlots; i++ {
		tup := NewTuple(p.desc, field.IntValue(int32(i)), field.StringValue(fmt.Sprintf("val-%d", i)))
		require.NoError(t, p.InsertTuple(tup))
		assert.Equal(t, numSlots-i-1, p.GetNumEmptySlots())
		assert.Equal(t, i, tup.RID.Slot, "tuples fill the lowest-numbered free slot first")
	}

	overflow := NewTuple(p.desc, field.IntValue(0), field.StringValue("overflow"))
	err := p.InsertTuple(overflow)
	assert.Error(t, err, "inserting into a full page should fail")
	assert.True(t, common.IsKind(err, common.DbError))
}

func TestHeapPageInsertRejectsSchemaMismatch(t *testing.T) {
	p := newTestPage(t)
	wrongDesc := NewTupleDesc(FieldDesc{Type: field.IntType, Name: "only"})
	tup := NewTuple(wrongDesc, field.IntValue(1))
	err := p.InsertTuple(tup)
	assert.Error(t, err)
	assert.True(t, common.IsKind(err, common.DbError))
}

func TestHeapPageDeleteFreesSlot(t *testing.T) {
	p := newTestPage(t)
	tup := NewTuple(p.desc, field.IntValue(1), field.StringValue("a"))
	require.NoError(t, p.InsertTuple(tup))
	before := p.GetNumEmptySlots()

	require.NoError(t, p.DeleteTuple(tup))
	assert.Equal(t, before+1, p.GetNumEmptySlots())
	assert.False(t, p.IsSlotUsed(tup.RID.Slot))

	err := p.DeleteTuple(tup)
	assert.Error(t, err, "deleting an already-empty slot should fail")
}

func TestHeapPageIteratorVisitsOnlyUsedSlots(t *testing.T) {
	p := newTestPage(t)
	var inserted []*Tuple
	for i := 0; i < 5; i++ {
		tup := NewTuple(p.desc, field.IntValue(int32(i)), field.StringValue(fmt.Sprintf("v%d", i)))
		require.NoError(t, p.InsertTuple(tup))
		inserted = append(inserted, tup)
	}
	require.NoError(t, p.DeleteTuple(inserted[2]))

	it := p.Iterator()
	count := 0
	for it.HasNext() {
		tup, err := it.Next()
		require.NoError(t, err)
		assert.NotEqual(t, int32(2), tup.Fields[0].AsInt(), "deleted tuple should not be visited")
		count++
	}
	assert.Equal(t, 4, count)

	_, err := it.Next()
	assert.Error(t, err, "exhausted iterator should fail NoSuchElement")
	assert.True(t, common.IsKind(err, common.NoSuchElement))
}

func TestHeapPageDirtyTracking(t *testing.T) {
	p := newTestPage(t)
	_, dirty := p.IsDirty()
	assert.False(t, dirty)

	p.MarkDirty(true, common.TransactionID(5))
	tid, dirty := p.IsDirty()
	assert.True(t, dirty)
	assert.Equal(t, common.TransactionID(5), tid)

	p.MarkDirty(false, 0)
	_, dirty = p.IsDirty()
	assert.False(t, dirty)
}

func TestHeapPageBytesSurviveReconstruction(t *testing.T) {
	p := newTestPage(t)
	tup := NewTuple(p.desc, field.IntValue(42), field.StringValue("hello"))
	require.NoError(t, p.InsertTuple(tup))

	reconstructed, err := NewHeapPage(testPageID(), p.desc, p.GetPageData())
	require.NoError(t, err)
	got := reconstructed.GetTuple(0)
	require.NotNil(t, got)
	assert.Equal(t, int32(42), got.Fields[0].AsInt())
	assert.Equal(t, "hello", got.Fields[1].AsString())
}
