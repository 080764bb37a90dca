// Package data holds the values templates operate on.
package data

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Value represents a template data value, which may be one of the enumerated
// types.  The zero value represents an Undefined value.
type Value interface {
	// Truthy returns true unless the value is nil, false or undefined.
	Truthy() bool

	// String formats this value for output in a template.
	String() string

	// Equals returns true if the two values are equal.  Specifically, if:
	// - They are comparable: they have the same Type, or they are Int and Float
	// - (Primitives) They have the same value
	// - (Lists, Maps) They are the same instance
	// Uncomparable types and unequal values return false.
	Equals(other Value) bool
}

// Value types
type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	Int       int64
	Float     float64
	String    string
	Safe      string // markup that is written without escaping
	List      []Value
	Map       map[string]Value
)

// Index retrieves a value from this list, or Undefined if out of bounds.
// Negative indexes count from the end.
func (v List) Index(i int) Value {
	if i < 0 {
		i += len(v)
	}
	if !(0 <= i && i < len(v)) {
		return Undefined{}
	}
	return v[i]
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (v Map) Key(k string) Value {
	var result, ok = v[k]
	if !ok {
		return Undefined{}
	}
	return result
}

// Keys returns the map keys in sorted order.
func (v Map) Keys() []string {
	var keys = make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truthy ----------

func (v Undefined) Truthy() bool { return false }
func (v Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool      { return bool(v) }
func (v Int) Truthy() bool       { return true }
func (v Float) Truthy() bool     { return !math.IsNaN(float64(v)) }
func (v String) Truthy() bool    { return true }
func (v Safe) Truthy() bool      { return true }
func (v List) Truthy() bool      { return true }
func (v Map) Truthy() bool       { return true }

// String ----------

func (v Undefined) String() string { return "" }
func (v Null) String() string      { return "" }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v String) String() string    { return string(v) }
func (v Safe) String() string      { return string(v) }

func (v List) String() string {
	var b strings.Builder
	for _, item := range v {
		b.WriteString(item.String())
	}
	return b.String()
}

func (v Map) String() string {
	var items = make([]string, len(v))
	for i, k := range v.Keys() {
		items[i] = k + ": " + v[k].String()
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// Equals ----------

func (v Undefined) Equals(other Value) bool {
	switch other.(type) {
	case Undefined, Null:
		return true
	}
	return false
}

func (v Null) Equals(other Value) bool {
	switch other.(type) {
	case Undefined, Null:
		return true
	}
	return false
}

func (v Bool) Equals(other Value) bool {
	if o, ok := other.(Bool); ok {
		return bool(v) == bool(o)
	}
	return false
}

func (v String) Equals(other Value) bool {
	switch o := other.(type) {
	case String:
		return string(v) == string(o)
	case Safe:
		return string(v) == string(o)
	}
	return false
}

func (v Safe) Equals(other Value) bool {
	return String(v).Equals(other)
}

func (v List) Equals(other Value) bool {
	if o, ok := other.(List); ok {
		return reflect.ValueOf(v).Pointer() == reflect.ValueOf(o).Pointer()
	}
	return false
}

func (v Map) Equals(other Value) bool {
	if o, ok := other.(Map); ok {
		return reflect.ValueOf(v).Pointer() == reflect.ValueOf(o).Pointer()
	}
	return false
}

func (v Int) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return v == o
	case Float:
		return float64(v) == float64(o)
	}
	return false
}

func (v Float) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return float64(v) == float64(o)
	case Float:
		return v == o
	}
	return false
}

// Compare orders two values.  Numbers compare numerically and strings
// lexically; ok is false for any other combination.
func Compare(a, b Value) (cmp int, ok bool) {
	if x, isNum := number(a); isNum {
		if y, isNum := number(b); isNum {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if x, isStr := text(a); isStr {
		if y, isStr := text(b); isStr {
			return strings.Compare(x, y), true
		}
	}
	return 0, false
}

// Size returns the length of strings, lists and maps, and 0 otherwise.
func Size(v Value) int {
	switch v := v.(type) {
	case String:
		return len([]rune(string(v)))
	case Safe:
		return len([]rune(string(v)))
	case List:
		return len(v)
	case Map:
		return len(v)
	}
	return 0
}

// IsEmpty reports whether v is undefined, nil, or an empty string, list or map.
func IsEmpty(v Value) bool {
	switch v := v.(type) {
	case Undefined, Null:
		return true
	case String, Safe, List, Map:
		return Size(v) == 0
	}
	return false
}

// Number returns v as a float64 if it is numeric, or parses it if it is a
// numeric string.
func Number(v Value) (float64, bool) {
	if f, ok := number(v); ok {
		return f, true
	}
	if s, ok := text(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func number(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

func text(v Value) (string, bool) {
	switch v := v.(type) {
	case String:
		return string(v), true
	case Safe:
		return string(v), true
	}
	return "", false
}
