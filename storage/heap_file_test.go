package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
)

func makeSampleTuple(i int) *Tuple {
	return NewTuple(sampleDesc(), field.IntValue(int32(i)), field.StringValue("v"))
}

// directFetcher is a PageFetcher that reads pages straight off the heap
// file, ignoring locks, for testing HeapFile in isolation from the
// buffer pool.
type directFetcher struct {
	hf *HeapFile
}

func (f *directFetcher) GetPage(_ common.TransactionID, pid common.PageID, _ common.Permission) (*HeapPage, error) {
	return f.hf.ReadPage(pid)
}

func newTestHeapFile(t *testing.T) (*HeapFile, *directFetcher) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.dat")
	df, err := NewDiskFile(path)
	require.NoError(t, err)
	id, err := common.TableIDFromPath(path)
	require.NoError(t, err)
	hf := NewHeapFile(df, id, sampleDesc())
	return hf, &directFetcher{hf: hf}
}

func TestHeapFileInsertAllocatesNewPageWhenFull(t *testing.T) {
	hf, fetcher := newTestHeapFile(t)
	numSlots := NumSlots(sampleDesc().Size())

	for i := 0; i < numSlots+1; i++ {
		tup := makeSampleTuple(i)
		page, err := hf.InsertTuple(common.TransactionID(1), tup, fetcher)
		require.NoError(t, err)
		require.NoError(t, hf.WritePage(page))
	}

	n, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "inserting one more tuple than a page holds should allocate a second page")
}

func TestHeapFileIteratorWalksAllPages(t *testing.T) {
	hf, fetcher := newTestHeapFile(t)
	numSlots := NumSlots(sampleDesc().Size())
	total := numSlots + 3

	for i := 0; i < total; i++ {
		tup := makeSampleTuple(i)
		page, err := hf.InsertTuple(common.TransactionID(1), tup, fetcher)
		require.NoError(t, err)
		require.NoError(t, hf.WritePage(page))
	}

	it := hf.Iterator(common.TransactionID(2), fetcher)
	require.NoError(t, it.Open())
	count := 0
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, total, count)
	require.NoError(t, it.Close())
}

func TestHeapFileDeleteRejectsForeignTuple(t *testing.T) {
	hf, fetcher := newTestHeapFile(t)
	other := common.PageID{TableID: hf.TableID() + 1, PageNum: 0}
	tup := makeSampleTuple(0)
	tup.SetRID(common.RecordID{PageID: other, Slot: 0})

	_, err := hf.DeleteTuple(common.TransactionID(1), tup, fetcher)
	assert.Error(t, err)
	assert.True(t, common.IsKind(err, common.DbError))
}
