package storage

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/dblog"
	"github.com/hlang/heapdb/transaction"
)

// FileResolver looks up the heap file backing a table, so the buffer pool
// can read pages through on a cache miss without holding a direct
// reference to the catalog.
type FileResolver interface {
	GetDatabaseFile(tableID common.TableID) (*HeapFile, error)
}

// BufferPool is the bounded, shared page cache (C6). It acquires page
// locks through a LockManager before serving a page, and follows a
// NO-STEAL/FORCE recovery discipline: dirty pages are never evicted, and
// a transaction's dirtied pages are flushed at commit or discarded at
// abort.
type BufferPool struct {
	capacity int
	files    FileResolver
	locks    *transaction.LockManager

	mu    sync.Mutex // guards the miss path: eviction + insertion
	cache *xsync.MapOf[common.PageID, *HeapPage]
}

// NewBufferPool creates a buffer pool bounded to capacity pages, backed
// by files for cache misses and locks for lock acquisition.
func NewBufferPool(capacity int, files FileResolver, locks *transaction.LockManager) *BufferPool {
	return &BufferPool{
		capacity: capacity,
		files:    files,
		locks:    locks,
		cache:    xsync.NewMapOf[common.PageID, *HeapPage](),
	}
}

// GetPage acquires the lock implied by perm (S for ReadOnly, X for
// ReadWrite), then returns the cached page, reading it from its heap
// file and evicting a victim if necessary on a miss. May fail with
// TransactionAborted (propagated from the lock manager) or DbError if
// every cached page is dirty and none can be evicted.
func (bp *BufferPool) GetPage(tid common.TransactionID, pid common.PageID, perm common.Permission) (*HeapPage, error) {
	mode := transaction.Shared
	if perm == common.ReadWrite {
		mode = transaction.Exclusive
	}
	if err := bp.locks.AcquireLock(tid, pid, mode); err != nil {
		return nil, err
	}

	if page, ok := bp.cache.Load(pid); ok {
		return page, nil
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if page, ok := bp.cache.Load(pid); ok {
		return page, nil
	}

	if bp.cache.Size() >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	file, err := bp.files.GetDatabaseFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	page, err := file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	bp.cache.Store(pid, page)
	return page, nil
}

// evictLocked discards one clean cached page, never a dirty one
// (NO-STEAL). Fails DbError if every cached page is dirty. Must be
// called with bp.mu held.
func (bp *BufferPool) evictLocked() error {
	var victim common.PageID
	found := false
	bp.cache.Range(func(pid common.PageID, page *HeapPage) bool {
		if _, dirty := page.IsDirty(); !dirty {
			victim = pid
			found = true
			return false
		}
		return true
	})
	if !found {
		return common.NewError(common.DbError, "buffer pool: all pages dirty")
	}
	dblog.Logger.WithField("page", victim.String()).Debug("evicting clean page")
	bp.cache.Delete(victim)
	return nil
}

// InsertTuple delegates to tableID's heap file, marks every page it
// dirties with tid, and re-inserts them into the cache.
func (bp *BufferPool) InsertTuple(tid common.TransactionID, tableID common.TableID, t *Tuple) error {
	file, err := bp.files.GetDatabaseFile(tableID)
	if err != nil {
		return err
	}
	page, err := file.InsertTuple(tid, t, bp)
	if err != nil {
		return err
	}
	page.MarkDirty(true, tid)
	bp.cache.Store(page.ID(), page)
	return nil
}

// DeleteTuple routes t through the heap file that owns
// t.RID.PageID.TableID and marks the resulting page dirty.
func (bp *BufferPool) DeleteTuple(tid common.TransactionID, t *Tuple) error {
	if !t.HasRID() {
		return common.NewError(common.DbError, "deleteTuple: tuple has no record id")
	}
	file, err := bp.files.GetDatabaseFile(t.RID.PageID.TableID)
	if err != nil {
		return err
	}
	page, err := file.DeleteTuple(tid, t, bp)
	if err != nil {
		return err
	}
	page.MarkDirty(true, tid)
	bp.cache.Store(page.ID(), page)
	return nil
}

// flushPage writes pid's cached page through to disk if dirty, and
// clears its dirty bit. No-op if pid is not cached or is clean.
func (bp *BufferPool) flushPage(pid common.PageID) error {
	page, ok := bp.cache.Load(pid)
	if !ok {
		return nil
	}
	if _, dirty := page.IsDirty(); !dirty {
		return nil
	}
	file, err := bp.files.GetDatabaseFile(pid.TableID)
	if err != nil {
		return err
	}
	if err := file.WritePage(page); err != nil {
		return err
	}
	page.MarkDirty(false, 0)
	return nil
}

// FlushAllPages writes every dirty cached page to disk. It is intended
// for tests only: calling it mid-transaction breaks NO-STEAL, since it
// writes uncommitted data.
func (bp *BufferPool) FlushAllPages() error {
	var firstErr error
	bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
		if err := bp.flushPage(pid); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// DiscardPage evicts pid from the cache without flushing it.
func (bp *BufferPool) DiscardPage(pid common.PageID) {
	bp.cache.Delete(pid)
}

// TransactionComplete flushes (on commit) or discards (on abort) every
// page tid dirtied, per the NO-STEAL/FORCE recovery discipline, then
// releases all of tid's locks.
func (bp *BufferPool) TransactionComplete(tid common.TransactionID, commit bool) error {
	pages := bp.locks.PagesHeldBy(tid)
	var firstErr error
	for _, pid := range pages {
		if commit {
			if err := bp.flushPage(pid); err != nil && firstErr == nil {
				firstErr = err
			}
		} else if page, ok := bp.cache.Load(pid); ok {
			if _, dirty := page.IsDirty(); dirty {
				bp.DiscardPage(pid)
			}
		}
	}
	bp.locks.ReleaseAll(tid)
	dblog.WithTxn(uint64(tid)).WithField("commit", commit).WithField("pages", len(pages)).Info("transaction complete")
	return firstErr
}

// Commit is shorthand for TransactionComplete(tid, true).
func (bp *BufferPool) Commit(tid common.TransactionID) error {
	return bp.TransactionComplete(tid, true)
}

// Abort is shorthand for TransactionComplete(tid, false).
func (bp *BufferPool) Abort(tid common.TransactionID) error {
	return bp.TransactionComplete(tid, false)
}
