package field

import "strings"

// Op is a comparison operator usable in predicates, joins, and histogram
// selectivity estimation.
type Op int

const (
	Equals Op = iota
	NotEquals
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Like
)

func (op Op) String() string {
	switch op {
	case Equals:
		return "="
	case NotEquals:
		return "<>"
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case Like:
		return "LIKE"
	default:
		return "?"
	}
}

// Eval applies op to the ordered pair (a, b), where cmp = a.Compare(b).
// Like is only meaningful for StringType operands and is handled
// separately by callers via EvalLike.
func (op Op) Eval(cmp int) bool {
	switch op {
	case Equals:
		return cmp == 0
	case NotEquals:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case LessThanOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case GreaterThanOrEqual:
		return cmp >= 0
	default:
		panic("field: Eval called with non-comparison Op")
	}
}

// EvalLike implements the LIKE operator's single wildcard convention: a
// '%' anywhere in pattern matches any run of characters; a pattern with no
// '%' requires an exact match. This is the minimal LIKE semantics needed
// by Filter predicates over StringType fields.
func EvalLike(value, pattern string) bool {
	if !strings.Contains(pattern, "%") {
		return value == pattern
	}
	parts := strings.Split(pattern, "%")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(value[pos:], part)
		if idx == -1 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}
	if last := parts[len(parts)-1]; last != "" && !strings.HasSuffix(value, last) {
		return false
	}
	return true
}
