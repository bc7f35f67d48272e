package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalLikePrefixSuffixInterior(t *testing.T) {
	assert.True(t, EvalLike("hello world", "hello%"))
	assert.True(t, EvalLike("hello world", "%world"))
	assert.True(t, EvalLike("hello world", "%lo wo%"))
	assert.True(t, EvalLike("hello world", "hello world"))
	assert.False(t, EvalLike("hello world", "goodbye%"))
	assert.False(t, EvalLike("hello", "hello world"))
}

func TestEvalComparisons(t *testing.T) {
	assert.True(t, Equals.Eval(0))
	assert.False(t, Equals.Eval(1))
	assert.True(t, LessThan.Eval(-1))
	assert.True(t, GreaterThanOrEqual.Eval(0))
	assert.True(t, NotEquals.Eval(-1))
}

func TestEvalPanicsOnLike(t *testing.T) {
	assert.Panics(t, func() { Like.Eval(0) })
}
