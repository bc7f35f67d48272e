package execution

import (
	"github.com/hlang/heapdb/common"
	"github.com/hlang/heapdb/field"
	"github.com/hlang/heapdb/storage"
)

// AggOp is a supported aggregate operation.
type AggOp int

const (
	Min AggOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggOp) String() string {
	switch op {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Count:
		return "count"
	default:
		return "?"
	}
}

// NoGrouping marks an Aggregate with no group-by field.
const NoGrouping = -1

// groupState is the running accumulator for one group (or the single
// implicit group when there is no grouping field). count and sum are
// tracked alongside the displayed value so AVG updates in O(1) per
// incoming tuple instead of rescanning the group.
type groupState struct {
	count int64
	sum   int64
	value field.Value
	set   bool
}

// Aggregate computes one aggregate value per group (or a single value
// overall, when groupField is NoGrouping), materializing every group in
// Open and replaying them on Next.
type Aggregate struct {
	child      DbIterator
	aggField   int
	groupField int
	op         AggOp
	desc       *storage.TupleDesc

	groups []field.Value // group keys, in first-seen order (or one zero-Value entry)
	states map[string]*groupState
	pos    int
	open   bool
}

// NewAggregate builds an aggregate over child's aggField column, grouped
// by groupField (or NoGrouping), using op.
func NewAggregate(child DbIterator, aggField, groupField int, op AggOp) *Aggregate {
	childDesc := child.TupleDesc()
	var fields []storage.FieldDesc
	if groupField != NoGrouping {
		fields = append(fields, storage.FieldDesc{
			Type: childDesc.FieldType(groupField),
			Name: childDesc.FieldName(groupField),
		})
	}
	fields = append(fields, storage.FieldDesc{Type: field.IntType, Name: op.String() + "(" + childDesc.FieldName(aggField) + ")"})

	return &Aggregate{
		child:      child,
		aggField:   aggField,
		groupField: groupField,
		op:         op,
		desc:       storage.NewTupleDesc(fields...),
	}
}

// TupleDesc implements DbIterator.
func (a *Aggregate) TupleDesc() *storage.TupleDesc { return a.desc }

// Children implements DbIterator.
func (a *Aggregate) Children() []DbIterator { return []DbIterator{a.child} }

// SetChildren implements DbIterator.
func (a *Aggregate) SetChildren(children []DbIterator) { a.child = children[0] }

func groupKey(t *storage.Tuple, groupField int) (field.Value, string) {
	if groupField == NoGrouping {
		return field.Value{}, ""
	}
	v := t.Fields[groupField]
	return v, v.String()
}

// Open reads every tuple from child and folds it into its group's
// running accumulator.
func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}
	a.states = make(map[string]*groupState)
	a.groups = nil

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		key, keyStr := groupKey(t, a.groupField)
		st, ok := a.states[keyStr]
		if !ok {
			st = &groupState{}
			a.states[keyStr] = st
			a.groups = append(a.groups, key)
		}
		a.fold(st, t.Fields[a.aggField])
	}

	a.pos = 0
	a.open = true
	return nil
}

func (a *Aggregate) fold(st *groupState, v field.Value) {
	st.count++
	if a.op == Sum || a.op == Avg {
		st.sum += int64(v.AsInt())
	}
	switch a.op {
	case Min:
		if !st.set || v.Compare(st.value) < 0 {
			st.value = v
		}
	case Max:
		if !st.set || v.Compare(st.value) > 0 {
			st.value = v
		}
	}
	st.set = true
}

func (a *Aggregate) result(st *groupState) field.Value {
	switch a.op {
	case Min, Max:
		return st.value
	case Sum:
		return field.IntValue(int32(st.sum))
	case Avg:
		return field.IntValue(int32(st.sum / st.count)) // integer truncation
	case Count:
		return field.IntValue(int32(st.count))
	default:
		panic("execution: unknown AggOp")
	}
}

// HasNext implements DbIterator.
func (a *Aggregate) HasNext() (bool, error) {
	if !a.open {
		return false, nil
	}
	return a.pos < len(a.groups), nil
}

// Next implements DbIterator.
func (a *Aggregate) Next() (*storage.Tuple, error) {
	has, err := a.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, common.NewError(common.NoSuchElement, "aggregate exhausted")
	}
	key := a.groups[a.pos]
	keyStr := ""
	if a.groupField != NoGrouping {
		keyStr = key.String()
	}
	st := a.states[keyStr]
	a.pos++

	var values []field.Value
	if a.groupField != NoGrouping {
		values = append(values, key)
	}
	values = append(values, a.result(st))
	return storage.NewTuple(a.desc, values...), nil
}

// Rewind implements DbIterator; re-runs Open against the child.
func (a *Aggregate) Rewind() error {
	if err := a.child.Rewind(); err != nil {
		return err
	}
	return a.Open()
}

// Close implements DbIterator.
func (a *Aggregate) Close() error {
	a.open = false
	a.states = nil
	a.groups = nil
	return a.child.Close()
}
