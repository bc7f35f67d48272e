// Package transaction implements the lock manager (C5): per-page S/X
// locks with a single monitor, FIFO-by-wakeup waiting, and timeout-abort
// deadlock resolution, per the design document §4.4.
package transaction

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/dblog"
)

// LockMode is the granularity of access a transaction holds or requests
// on a page.
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

func (m LockMode) String() string {
	if m == Exclusive {
		return "X"
	}
	return "S"
}

type lockState struct {
	mode    LockMode
	holders map[common.TransactionID]struct{}
}

// LockManager grants and releases page-granularity S/X locks across
// transactions. All lock-table mutations and waits are serialized on a
// single mutex; a condition variable broadcasts on every release so
// waiters can re-check whether their request is now grantable.
type LockManager struct {
	mu         sync.Mutex
	cond       *sync.Cond
	pageLocks  map[common.PageID]*lockState
	heldBy     map[common.TransactionID]map[common.PageID]struct{}
	timeoutMax time.Duration
}

// NewLockManager creates a lock manager whose deadlock-detection timeout
// is drawn uniformly from [0, timeoutMax) per lock request.
func NewLockManager(timeoutMax time.Duration) *LockManager {
	lm := &LockManager{
		pageLocks: make(map[common.PageID]*lockState),
		heldBy:    make(map[common.TransactionID]map[common.PageID]struct{}),
		timeoutMax: timeoutMax,
	}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

func (lm *LockManager) recordHeld(tid common.TransactionID, pid common.PageID) {
	set, ok := lm.heldBy[tid]
	if !ok {
		set = make(map[common.PageID]struct{})
		lm.heldBy[tid] = set
	}
	set[pid] = struct{}{}
}

func (lm *LockManager) forgetHeld(tid common.TransactionID, pid common.PageID) {
	set, ok := lm.heldBy[tid]
	if !ok {
		return
	}
	delete(set, pid)
	if len(set) == 0 {
		delete(lm.heldBy, tid)
	}
}

// AcquireLock blocks the caller until tid holds mode on pid, or the
// per-request random timeout elapses, in which case it returns a
// TransactionAborted error. Re-requesting a mode already held is a
// no-op; requesting X while already holding sole S upgrades in place.
func (lm *LockManager) AcquireLock(tid common.TransactionID, pid common.PageID, mode LockMode) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	start := time.Now()
	timeout := time.Duration(0)
	if lm.timeoutMax > 0 {
		timeout = time.Duration(rand.Int63n(int64(lm.timeoutMax)))
	}

	for {
		st, exists := lm.pageLocks[pid]
		if !exists {
			lm.pageLocks[pid] = &lockState{mode: mode, holders: map[common.TransactionID]struct{}{tid: {}}}
			lm.recordHeld(tid, pid)
			return nil
		}

		if st.mode == Exclusive {
			if _, sole := st.holders[tid]; sole && len(st.holders) == 1 {
				return nil // X subsumes any re-request
			}
		} else { // Shared
			if mode == Shared {
				st.holders[tid] = struct{}{}
				lm.recordHeld(tid, pid)
				return nil
			}
			// requested X: upgrade only if tid is the sole S-holder
			if _, ok := st.holders[tid]; ok && len(st.holders) == 1 {
				st.mode = Exclusive
				return nil
			}
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			dblog.WithTxn(uint64(tid)).WithField("page", pid.String()).Warn("lock wait timed out, aborting")
			return common.NewError(common.TransactionAborted, "acquireLock: txn %d timed out waiting for %s on %s", tid, mode, pid)
		}

		lm.waitWithTimeout(timeout - elapsed)
	}
}

// waitWithTimeout blocks on the condition variable until either a
// release broadcasts or remaining elapses, whichever comes first. Must
// be called with lm.mu held; it releases and reacquires the lock as
// sync.Cond.Wait does.
func (lm *LockManager) waitWithTimeout(remaining time.Duration) {
	timer := time.AfterFunc(remaining, func() {
		lm.mu.Lock()
		lm.cond.Broadcast()
		lm.mu.Unlock()
	})
	lm.cond.Wait()
	timer.Stop()
}

// ReleaseLock releases tid's lock on pid, if any, and wakes all waiters.
func (lm *LockManager) ReleaseLock(tid common.TransactionID, pid common.PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
	lm.cond.Broadcast()
}

func (lm *LockManager) releaseLocked(tid common.TransactionID, pid common.PageID) {
	st, ok := lm.pageLocks[pid]
	if !ok {
		return
	}
	delete(st.holders, tid)
	if len(st.holders) == 0 {
		delete(lm.pageLocks, pid)
	}
	lm.forgetHeld(tid, pid)
}

// ReleaseAll releases every page currently held by tid.
func (lm *LockManager) ReleaseAll(tid common.TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	pages := make([]common.PageID, 0, len(lm.heldBy[tid]))
	for pid := range lm.heldBy[tid] {
		pages = append(pages, pid)
	}
	for _, pid := range pages {
		lm.releaseLocked(tid, pid)
	}
	lm.cond.Broadcast()
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (lm *LockManager) HoldsLock(tid common.TransactionID, pid common.PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	set, ok := lm.heldBy[tid]
	if !ok {
		return false
	}
	_, held := set[pid]
	return held
}

// PagesHeldBy returns a snapshot of the pages currently locked by tid,
// used by the buffer pool at transaction end.
func (lm *LockManager) PagesHeldBy(tid common.TransactionID) []common.PageID {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	set := lm.heldBy[tid]
	pages := make([]common.PageID, 0, len(set))
	for pid := range set {
		pages = append(pages, pid)
	}
	return pages
}
