// Package stats implements the fixed-width integer histogram (C8) used
// to estimate filter selectivity for query planning.
package stats

import (
	"math"

	"github.com/hlang/heapdb/field"
)

// IntHistogram is an equi-width histogram over the closed range
// [min, max], used to estimate the selectivity of a comparison against
// a column without scanning it.
type IntHistogram struct {
	buckets []int64
	min     int32
	max     int32
	width   float64
	total   int64
}

// NewIntHistogram builds an empty histogram with bucketCount equal-width
// buckets spanning [min, max].
func NewIntHistogram(bucketCount int, min, max int32) *IntHistogram {
	width := float64(int64(max)-int64(min)+1) / float64(bucketCount)
	return &IntHistogram{
		buckets: make([]int64, bucketCount),
		min:     min,
		max:     max,
		width:   width,
	}
}

func (h *IntHistogram) bucketOf(v int32) int {
	return int(math.Floor(float64(v-h.min) / h.width))
}

// AddValue records one occurrence of v, ignoring it if out of range.
func (h *IntHistogram) AddValue(v int32) {
	b := h.bucketOf(v)
	if b < 0 || b >= len(h.buckets) {
		return
	}
	h.buckets[b]++
	h.total++
}

// rightEdge returns the exclusive upper boundary of bucket b.
func (h *IntHistogram) rightEdge(b int) float64 {
	return float64(h.min) + float64(b+1)*h.width
}

func (h *IntHistogram) height(b int) int64 {
	if b < 0 || b >= len(h.buckets) {
		return 0
	}
	return h.buckets[b]
}

// EstimateSelectivity returns the fraction of values expected to satisfy
// "field op v", per the design document's bucket formulas.
func (h *IntHistogram) EstimateSelectivity(op field.Op, v int32) float64 {
	if h.total == 0 {
		return 0
	}
	if v < h.min {
		switch op {
		case field.GreaterThan, field.GreaterThanOrEqual, field.NotEquals:
			return 1
		default:
			return 0
		}
	}
	if v > h.max {
		switch op {
		case field.LessThan, field.LessThanOrEqual, field.NotEquals:
			return 1
		default:
			return 0
		}
	}

	b := h.bucketOf(v)

	switch op {
	case field.Equals:
		return (float64(h.height(b)) / math.Ceil(h.width)) / float64(h.total)
	case field.NotEquals:
		return 1 - h.EstimateSelectivity(field.Equals, v)
	case field.GreaterThan:
		frac := float64(h.height(b)) / float64(h.total) * (h.rightEdge(b) - float64(v) - 1) / math.Ceil(h.width)
		var rest int64
		for j := b + 1; j < len(h.buckets); j++ {
			rest += h.buckets[j]
		}
		return frac + float64(rest)/float64(h.total)
	case field.GreaterThanOrEqual:
		return h.EstimateSelectivity(field.GreaterThan, v) + h.EstimateSelectivity(field.Equals, v)
	case field.LessThanOrEqual:
		return 1 - h.EstimateSelectivity(field.GreaterThan, v)
	case field.LessThan:
		return 1 - h.EstimateSelectivity(field.GreaterThanOrEqual, v)
	default:
		return 0
	}
}
