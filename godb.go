// Package heapdb is the top-level container wiring the storage,
// transaction, and catalog layers into one engine, grounded on
// _examples/yale-systems-go-db-2024's GoDB top-level composition.
package heapdb

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/hlang/heapdb/catalog"
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/config"
	"github.com/hlang/heapdb/dblog"
	"github.com/hlang/heapdb/storage"
	"github.com/hlang/heapdb/transaction"
)

// DB is the top-level container for the storage and execution engine. It
// bundles the catalog, buffer pool, and lock manager and hands them out
// explicitly to callers and operators, rather than exposing a global
// singleton.
type DB struct {
	Catalog     *catalog.Catalog
	BufferPool  *storage.BufferPool
	LockManager *transaction.LockManager
	Config      *config.Config
}

// Open builds a DB rooted at cfg.DataDir, ready to accept AddTable calls
// or an OpenSchema catalog load.
func Open(cfg *config.Config) (*DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, common.WrapError(common.IoError, err, "create data dir %q", cfg.DataDir)
	}
	dblog.SetLevel(cfg.LogLevel)

	cat := catalog.New()
	locks := transaction.NewLockManager(cfg.LockTimeoutMax)
	pool := storage.NewBufferPool(cfg.BufferPoolPages, cat, locks)

	return &DB{Catalog: cat, BufferPool: pool, LockManager: locks, Config: cfg}, nil
}

// OpenSchema parses the catalog file at path (the grammar of
// catalog.LoadSchema) and opens one heap file per table under
// db.Config.DataDir.
func (db *DB) OpenSchema(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return common.WrapError(common.IoError, err, "open schema %q", path)
	}
	defer f.Close()
	return db.loadSchemaFrom(f)
}

func (db *DB) loadSchemaFrom(r io.Reader) error {
	specs, err := catalog.LoadSchema(r)
	if err != nil {
		return err
	}
	return db.Catalog.OpenTables(db.Config.DataDir, specs)
}

var txnCounter uint64

// NewTransaction mints a fresh transaction id. The engine does not track
// transaction state beyond the lock manager and buffer pool's own
// bookkeeping; callers pass the id through their operator tree and end
// it with Commit or Abort.
func (db *DB) NewTransaction() common.TransactionID {
	return common.TransactionID(atomic.AddUint64(&txnCounter, 1))
}

// Commit flushes and unlocks every page tid dirtied.
func (db *DB) Commit(tid common.TransactionID) error {
	return db.BufferPool.Commit(tid)
}

// Abort discards and unlocks every page tid dirtied.
func (db *DB) Abort(tid common.TransactionID) error {
	return db.BufferPool.Abort(tid)
}

