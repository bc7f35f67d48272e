package storage

import "github.com/hlang/heapdb/common"

// PageFetcher is the capability a HeapFile needs to obtain pages under
// lock, implemented by the buffer pool. Heap files never keep a private
// copy of a page across calls; every access goes back through the
// fetcher so the buffer pool remains the single owner of cached pages.
type PageFetcher interface {
	GetPage(tid common.TransactionID, pid common.PageID, perm common.Permission) (*HeapPage, error)
}

// HeapFile is the ordered sequence of heap pages backing one table on
// disk. Its TableID is derived from the hash of its canonical path.
type HeapFile struct {
	file    DBFile
	desc    *TupleDesc
	tableID common.TableID
}

// NewHeapFile wraps file as the heap file for tableID with the given
// tuple descriptor.
func NewHeapFile(file DBFile, tableID common.TableID, desc *TupleDesc) *HeapFile {
	return &HeapFile{file: file, desc: desc, tableID: tableID}
}

// TableID returns the file's stable identifier.
func (hf *HeapFile) TableID() common.TableID { return hf.tableID }

// TupleDesc returns the file's tuple descriptor.
func (hf *HeapFile) TupleDesc() *TupleDesc { return hf.desc }

// NumPages returns K = floor(fileLength/PageSize).
func (hf *HeapFile) NumPages() (int, error) {
	return hf.file.NumPages()
}

// ReadPage reads the raw bytes of page pid.PageNum off disk and parses
// them as a HeapPage.
func (hf *HeapFile) ReadPage(pid common.PageID) (*HeapPage, error) {
	buf, err := hf.file.ReadPage(int(pid.PageNum))
	if err != nil {
		return nil, err
	}
	return NewHeapPage(pid, hf.desc, buf)
}

// WritePage writes page's current bytes at its page number, extending the
// file if necessary (DiskFile.WritePage does so implicitly via WriteAt).
func (hf *HeapFile) WritePage(page *HeapPage) error {
	return hf.file.WritePage(int(page.ID().PageNum), page.GetPageData())
}

func (hf *HeapFile) pageID(pageNum int) common.PageID {
	return common.PageID{TableID: hf.tableID, PageNum: int32(pageNum)}
}

// InsertTuple scans existing pages for free space, obtaining each through
// pool with write permission; if none has room, it allocates and writes
// through a new empty page. It returns the single page the tuple landed
// on, for the buffer pool to mark dirty.
func (hf *HeapFile) InsertTuple(tid common.TransactionID, t *Tuple, pool PageFetcher) (*HeapPage, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}
	for i := 0; i < numPages; i++ {
		page, err := pool.GetPage(tid, hf.pageID(i), common.ReadWrite)
		if err != nil {
			return nil, err
		}
		if page.GetNumEmptySlots() > 0 {
			if err := page.InsertTuple(t); err != nil {
				return nil, err
			}
			return page, nil
		}
	}

	newPage, err := NewHeapPage(hf.pageID(numPages), hf.desc, CreateEmptyPageData())
	if err != nil {
		return nil, err
	}
	if err := hf.WritePage(newPage); err != nil {
		return nil, err
	}
	page, err := pool.GetPage(tid, newPage.ID(), common.ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.InsertTuple(t); err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteTuple fetches the page holding t with write permission and
// deletes it there. t must belong to this file's table.
func (hf *HeapFile) DeleteTuple(tid common.TransactionID, t *Tuple, pool PageFetcher) (*HeapPage, error) {
	if !t.HasRID() || t.RID.PageID.TableID != hf.tableID {
		return nil, common.NewError(common.DbError, "deleteTuple: tuple does not belong to this table")
	}
	page, err := pool.GetPage(tid, t.RID.PageID, common.ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.DeleteTuple(t); err != nil {
		return nil, err
	}
	return page, nil
}

// Iterator returns a fresh page-by-page cursor over the file's tuples for
// transaction tid, requesting each page through pool with read
// permission.
func (hf *HeapFile) Iterator(tid common.TransactionID, pool PageFetcher) *HeapFileIterator {
	return &HeapFileIterator{hf: hf, tid: tid, pool: pool, pageNum: -1}
}

// HeapFileIterator walks a HeapFile page by page, and within each page,
// slot by slot, in ascending order. It is a state machine over
// {Closed, Open(currentPage, pageIter)} per the design document.
type HeapFileIterator struct {
	hf       *HeapFile
	tid      common.TransactionID
	pool     PageFetcher
	open     bool
	pageNum  int
	pageIter *PageTupleIterator
}

// Open positions the cursor at page 0.
func (it *HeapFileIterator) Open() error {
	it.open = true
	it.pageNum = 0
	it.pageIter = nil
	return it.loadCurrentPage()
}

func (it *HeapFileIterator) loadCurrentPage() error {
	numPages, err := it.hf.NumPages()
	if err != nil {
		return err
	}
	if it.pageNum >= numPages {
		it.pageIter = nil
		return nil
	}
	page, err := it.pool.GetPage(it.tid, it.hf.pageID(it.pageNum), common.ReadOnly)
	if err != nil {
		return err
	}
	it.pageIter = page.Iterator()
	return nil
}

// HasNext advances through pages until a tuple is found or the pages are
// exhausted.
func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.open {
		return false, nil
	}
	for {
		if it.pageIter == nil {
			return false, nil
		}
		if it.pageIter.HasNext() {
			return true, nil
		}
		it.pageNum++
		if err := it.loadCurrentPage(); err != nil {
			return false, err
		}
	}
}

// Next returns the next tuple, or NoSuchElement if exhausted.
func (it *HeapFileIterator) Next() (*Tuple, error) {
	has, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, common.NewError(common.NoSuchElement, "heap file iterator exhausted")
	}
	return it.pageIter.Next()
}

// Rewind is equivalent to Close followed by Open.
func (it *HeapFileIterator) Rewind() error {
	if err := it.Close(); err != nil {
		return err
	}
	return it.Open()
}

// Close releases the iterator's state, making it unusable until Open is
// called again.
func (it *HeapFileIterator) Close() error {
	it.open = false
	it.pageIter = nil
	return nil
}
