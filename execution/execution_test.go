package execution

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
	"github.com/hlang/heapdb/transaction"
)

func intDesc() *storage.TupleDesc {
	return storage.NewTupleDesc(storage.FieldDesc{Type: field.IntType, Name: "id"})
}

func idNameDesc() *storage.TupleDesc {
	return storage.NewTupleDesc(
		storage.FieldDesc{Type: field.IntType, Name: "id"},
		storage.FieldDesc{Type: field.StringType, Name: "name"},
	)
}

// harness holds a lock manager and builds tables and buffer pools over
// them, for tests to build operator trees against.
type harness struct {
	t     *testing.T
	pool  *storage.BufferPool
	locks *transaction.LockManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	locks := transaction.NewLockManager(200 * time.Millisecond)
	return &harness{t: t, locks: locks}
}

func (h *harness) newTable(name string, desc *storage.TupleDesc) *storage.HeapFile {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), name+".dat")
	df, err := storage.NewDiskFile(path)
	require.NoError(h.t, err)
	id, err := common.TableIDFromPath(path)
	require.NoError(h.t, err)
	return storage.NewHeapFile(df, id, desc)
}

type fixedResolver struct {
	files map[common.TableID]*storage.HeapFile
}

func (r *fixedResolver) GetDatabaseFile(id common.TableID) (*storage.HeapFile, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, common.NewError(common.NoSuchElement, "no table")
	}
	return f, nil
}

func (h *harness) buildPool(files ...*storage.HeapFile) *storage.BufferPool {
	m := make(map[common.TableID]*storage.HeapFile)
	for _, f := range files {
		m[f.TableID()] = f
	}
	return storage.NewBufferPool(50, &fixedResolver{files: m}, h.locks)
}

func insertInts(t *testing.T, pool *storage.BufferPool, tid common.TransactionID, file *storage.HeapFile, values ...int32) {
	t.Helper()
	for _, v := range values {
		tup := storage.NewTuple(intDesc(), field.IntValue(v))
		require.NoError(t, pool.InsertTuple(tid, file.TableID(), tup))
	}
}

func drain(t *testing.T, it DbIterator) []*storage.Tuple {
	t.Helper()
	var out []*storage.Tuple
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		out = append(out, tup)
	}
	return out
}

func TestScanScenario(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)

	tid := common.TransactionID(1)
	insertInts(t, pool, tid, a, 1, 2, 3)
	require.NoError(t, pool.Commit(tid))

	scan := NewSeqScan(common.TransactionID(2), a, pool, "a")
	require.NoError(t, scan.Open())
	tuples := drain(t, scan)
	require.Len(t, tuples, 3)
	assert.Equal(t, int32(1), tuples[0].Fields[0].AsInt())
	assert.Equal(t, int32(2), tuples[1].Fields[0].AsInt())
	assert.Equal(t, int32(3), tuples[2].Fields[0].AsInt())

	has, err := scan.HasNext()
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, scan.Close())
}

func TestFilterScenario(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)
	tid := common.TransactionID(1)
	insertInts(t, pool, tid, a, 1, 2, 3)
	require.NoError(t, pool.Commit(tid))

	scan := NewSeqScan(common.TransactionID(2), a, pool, "a")
	filter := NewFilter(Predicate{FieldIndex: 0, Op: field.GreaterThan, Literal: field.IntValue(1)}, scan)
	require.NoError(t, filter.Open())
	tuples := drain(t, filter)
	require.Len(t, tuples, 2)
	assert.Equal(t, int32(2), tuples[0].Fields[0].AsInt())
	assert.Equal(t, int32(3), tuples[1].Fields[0].AsInt())
}

func TestJoinScenario(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	b := h.newTable("b", idNameDesc())
	pool := h.buildPool(a, b)

	tid := common.TransactionID(1)
	insertInts(t, pool, tid, a, 1, 2, 3)
	for _, row := range []struct {
		id   int32
		name string
	}{{2, "x"}, {3, "y"}, {4, "z"}} {
		require.NoError(t, pool.InsertTuple(tid, b.TableID(), storage.NewTuple(idNameDesc(), field.IntValue(row.id), field.StringValue(row.name))))
	}
	require.NoError(t, pool.Commit(tid))

	scanA := NewSeqScan(common.TransactionID(2), a, pool, "a")
	scanB := NewSeqScan(common.TransactionID(2), b, pool, "b")
	join := NewJoin(JoinPredicate{LeftField: 0, Op: field.Equals, RightField: 0}, scanA, scanB)
	require.NoError(t, join.Open())
	tuples := drain(t, join)
	require.Len(t, tuples, 2)
	assert.Equal(t, int32(2), tuples[0].Fields[0].AsInt())
	assert.Equal(t, "x", tuples[0].Fields[2].AsString())
	assert.Equal(t, int32(3), tuples[1].Fields[0].AsInt())
	assert.Equal(t, "y", tuples[1].Fields[2].AsString())
}

func TestAggregateScenario(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)
	tid := common.TransactionID(1)
	insertInts(t, pool, tid, a, 1, 2, 3)
	require.NoError(t, pool.Commit(tid))

	scan := NewSeqScan(common.TransactionID(2), a, pool, "a")
	agg := NewAggregate(scan, 0, NoGrouping, Count)
	require.NoError(t, agg.Open())
	tuples := drain(t, agg)
	require.Len(t, tuples, 1)
	assert.Equal(t, int32(3), tuples[0].Fields[0].AsInt())
}

func TestAggregateAvgTruncates(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)
	tid := common.TransactionID(1)
	insertInts(t, pool, tid, a, 2, 4, 5)
	require.NoError(t, pool.Commit(tid))

	scan := NewSeqScan(common.TransactionID(2), a, pool, "a")
	agg := NewAggregate(scan, 0, NoGrouping, Avg)
	require.NoError(t, agg.Open())
	tuples := drain(t, agg)
	require.Len(t, tuples, 1)
	assert.Equal(t, int32(3), tuples[0].Fields[0].AsInt(), "avg of {2,4,5} should truncate 3.67 down to 3")
}

func TestConcurrencyAbortScenario(t *testing.T) {
	locks := transaction.NewLockManager(60 * time.Millisecond)
	pid := common.PageID{TableID: 1, PageNum: 0}
	require.NoError(t, locks.AcquireLock(1, pid, transaction.Exclusive))

	err := locks.AcquireLock(2, pid, transaction.Shared)
	assert.Error(t, err)
	assert.True(t, common.IsKind(err, common.TransactionAborted))
	assert.Empty(t, locks.PagesHeldBy(2), "T2's lock set should be empty after its abort")
	assert.True(t, locks.HoldsLock(1, pid), "T1's lock is unaffected by T2's timeout")
}

func TestCommitAbortVisibilityScenario(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)

	tid1 := common.TransactionID(1)
	insertInts(t, pool, tid1, a, 7)
	require.NoError(t, pool.Abort(tid1))

	scan := NewSeqScan(common.TransactionID(2), a, pool, "a")
	require.NoError(t, scan.Open())
	tuples := drain(t, scan)
	assert.Empty(t, tuples, "aborted insert must not be visible to a later scan")
	require.NoError(t, scan.Close())
	require.NoError(t, pool.Commit(common.TransactionID(2)))

	tid3 := common.TransactionID(3)
	insertInts(t, pool, tid3, a, 8)
	require.NoError(t, pool.Commit(tid3))

	scan2 := NewSeqScan(common.TransactionID(4), a, pool, "a")
	require.NoError(t, scan2.Open())
	tuples = drain(t, scan2)
	require.Len(t, tuples, 1)
	assert.Equal(t, int32(8), tuples[0].Fields[0].AsInt())
}

func TestInsertOperatorReturnsCountThenExhausted(t *testing.T) {
	h := newHarness(t)
	src := h.newTable("src", intDesc())
	dst := h.newTable("dst", intDesc())
	pool := h.buildPool(src, dst)

	seedTid := common.TransactionID(1)
	insertInts(t, pool, seedTid, src, 1, 2, 3)
	require.NoError(t, pool.Commit(seedTid))

	tid := common.TransactionID(2)
	scan := NewSeqScan(tid, src, pool, "src")
	ins, err := NewInsert(tid, scan, dst.TableID(), dst.TupleDesc(), pool)
	require.NoError(t, err)
	require.NoError(t, ins.Open())

	has, err := ins.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	countTuple, err := ins.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(3), countTuple.Fields[0].AsInt())

	has, err = ins.HasNext()
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, pool.Commit(tid))

	verify := NewSeqScan(common.TransactionID(3), dst, pool, "dst")
	require.NoError(t, verify.Open())
	assert.Len(t, drain(t, verify), 3)
}

func TestDeleteOperatorRemovesTuples(t *testing.T) {
	h := newHarness(t)
	a := h.newTable("a", intDesc())
	pool := h.buildPool(a)

	seedTid := common.TransactionID(1)
	insertInts(t, pool, seedTid, a, 1, 2, 3)
	require.NoError(t, pool.Commit(seedTid))

	tid := common.TransactionID(2)
	scan := NewSeqScan(tid, a, pool, "a")
	filter := NewFilter(Predicate{FieldIndex: 0, Op: field.Equals, Literal: field.IntValue(2)}, scan)
	del := NewDelete(tid, filter, pool)
	require.NoError(t, del.Open())
	countTuple, err := del.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(1), countTuple.Fields[0].AsInt())
	require.NoError(t, pool.Commit(tid))

	verify := NewSeqScan(common.TransactionID(3), a, pool, "a")
	require.NoError(t, verify.Open())
	remaining := drain(t, verify)
	require.Len(t, remaining, 2)
	assert.Equal(t, int32(1), remaining[0].Fields[0].AsInt())
	assert.Equal(t, int32(3), remaining[1].Fields[0].AsInt())
}
