// Package field implements the engine's closed set of primitive value
// types: a tagged variant over {Int, String} with fixed byte width per
// type and dispatch-by-tag comparison, in place of open type hierarchies.
package field

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hlang/heapdb/common"
)

// Type is the tag identifying which primitive kind a Value holds.
type Type int8

const (
	IntType Type = iota
	StringType
)

// StringMaxLen is the fixed maximum length, in bytes, of a StringType
// value's UTF-8 payload.
const StringMaxLen = 32

// Width returns the fixed serialized byte width of the type.
func (t Type) Width() int {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + StringMaxLen
	default:
		panic(fmt.Sprintf("field: unknown type %d", t))
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// ParseType parses a catalog-file type name (case-insensitive).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "int":
		return IntType, nil
	case "string":
		return StringType, nil
	default:
		return 0, common.NewError(common.DbError, "unknown field type %q", s)
	}
}

// Value is a value drawn from the engine's fixed primitive domain. It is
// comparable with == only within a single Type; use Compare for ordering.
type Value struct {
	typ    Type
	intVal int32
	strVal string
}

// IntValue constructs an Int value.
func IntValue(v int32) Value { return Value{typ: IntType, intVal: v} }

// StringValue constructs a String value, truncating to StringMaxLen bytes
// if necessary (callers that need non-lossy storage must pre-validate).
func StringValue(v string) Value {
	if len(v) > StringMaxLen {
		v = v[:StringMaxLen]
	}
	return Value{typ: StringType, strVal: v}
}

// Type returns the value's tag.
func (v Value) Type() Type { return v.typ }

// AsInt returns the underlying int32. Panics if v is not an IntType.
func (v Value) AsInt() int32 {
	common.Assert(v.typ == IntType, "field: AsInt on non-int value")
	return v.intVal
}

// AsString returns the underlying string. Panics if v is not a StringType.
func (v Value) AsString() string {
	common.Assert(v.typ == StringType, "field: AsString on non-string value")
	return v.strVal
}

// Equals reports whether v and other hold the same type and value.
func (v Value) Equals(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	return v.Compare(other) == 0
}

// Compare returns -1, 0, or 1 according to whether v is less than, equal
// to, or greater than other. Both values must share a Type.
func (v Value) Compare(other Value) int {
	common.Assert(v.typ == other.typ, "field: Compare across mismatched types")
	switch v.typ {
	case IntType:
		switch {
		case v.intVal < other.intVal:
			return -1
		case v.intVal > other.intVal:
			return 1
		default:
			return 0
		}
	case StringType:
		return strings.Compare(v.strVal, other.strVal)
	default:
		panic("field: Compare on unknown type")
	}
}

func (v Value) String() string {
	switch v.typ {
	case IntType:
		return fmt.Sprintf("%d", v.intVal)
	case StringType:
		return v.strVal
	default:
		return "<unknown>"
	}
}

// WriteTo serializes v into buf using the engine's on-disk field
// encodings: a big-endian int32 for IntType, or a big-endian uint32
// length prefix followed by StringMaxLen zero-padded bytes for
// StringType. buf must be at least v.Type().Width() bytes.
func (v Value) WriteTo(buf []byte) {
	common.Assert(len(buf) >= v.typ.Width(), "field: buffer too small for %s", v.typ)
	switch v.typ {
	case IntType:
		binary.BigEndian.PutUint32(buf, uint32(v.intVal))
	case StringType:
		n := len(v.strVal)
		binary.BigEndian.PutUint32(buf, uint32(n))
		copy(buf[4:], v.strVal)
		for i := 4 + n; i < v.typ.Width(); i++ {
			buf[i] = 0
		}
	}
}

// ReadFrom deserializes a Value of the given type from buf.
func ReadFrom(t Type, buf []byte) Value {
	common.Assert(len(buf) >= t.Width(), "field: buffer too small for %s", t)
	switch t {
	case IntType:
		return Value{typ: IntType, intVal: int32(binary.BigEndian.Uint32(buf))}
	case StringType:
		n := binary.BigEndian.Uint32(buf)
		common.Assert(int(n) <= StringMaxLen, "field: corrupt string length %d", n)
		return Value{typ: StringType, strVal: string(buf[4 : 4+n])}
	default:
		panic(fmt.Sprintf("field: ReadFrom unknown type %d", t))
	}
}
