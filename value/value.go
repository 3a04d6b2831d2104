// Package value implements the ISB value model: a tagged union of Number,
// String and Array, with the conversion rules between them and the
// auto-promotion of a scalar into an Array on first indexed write.
package value

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value variants.
const (
	Number Kind = iota
	String
	Array
)

// divisionPrecision is the number of fractional decimal digits kept when a
// division does not terminate exactly. Chosen generously since ISB numbers
// are base-10 fixed point, not binary float: repeating decimals are
// rounded here rather than silently losing precision to float64 rounding.
const divisionPrecision = 20

// Value is an ISB runtime value: exactly one of Number, String or Array.
// The zero Value is the Number 0; reads of unset registers and memory
// slots yield Empty (the empty string) instead.
type Value struct {
	kind Kind
	num  decimal.Decimal
	str  string
	arr  *arrayData
}

// arrayData is the ordered, sparse, string-keyed backing store for an Array
// value. Arrays are reference types at the Go level so that indexed writes
// (store_arr) can mutate in place; callers that need copy semantics (plain
// assignment) must call Clone.
type arrayData struct {
	keys   []string
	values map[string]Value
}

func newArrayData() *arrayData {
	return &arrayData{values: make(map[string]Value)}
}

// Empty is the canonical empty-string value, returned for any read that
// yields the empty string by convention: unset registers, unset memory,
// missing array keys, and indexing into a scalar.
var Empty = Value{kind: String}

// NewNumber returns a Number value.
func NewNumber(d decimal.Decimal) Value {
	return Value{kind: Number, num: d}
}

// NewInt returns a Number value from a native integer, mainly used by the
// VM for small constants (comparison results, return addresses).
func NewInt(n int64) Value {
	return Value{kind: Number, num: decimal.NewFromInt(n)}
}

// NewString returns a String value.
func NewString(s string) Value {
	return Value{kind: String, str: s}
}

// NewArray returns a fresh, empty Array value.
func NewArray() Value {
	return Value{kind: Array, arr: newArrayData()}
}

// ParseNumber parses literal decimal text (as produced by the lexer for a
// numeric literal, or typed at a REPL) into a Number value. Parsing never
// goes through float64, so "0.1" is stored exactly.
func ParseNumber(text string) (Value, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Value{}, err
	}
	return NewNumber(d), nil
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsArray reports whether v holds an Array.
func (v Value) IsArray() bool { return v.kind == Array }

// Number returns the numeric view of v: the Number itself, a String parsed
// as decimal (zero on failure), or zero for an Array.
func (v Value) Number() decimal.Decimal {
	switch v.kind {
	case Number:
		return v.num
	case String:
		d, err := decimal.NewFromString(strings.TrimSpace(v.str))
		if err != nil {
			return decimal.Zero
		}
		return d
	default: // Array
		return decimal.Zero
	}
}

// Str returns the string view of v: the decimal's canonical text, the
// String itself, or the empty string for an Array.
func (v Value) Str() string {
	switch v.kind {
	case Number:
		return v.num.String()
	case String:
		return v.str
	default: // Array
		return ""
	}
}

// Bool returns the boolean view of v, per the language's truthiness rules:
// a Number is true iff non-zero, a String is true iff non-empty and not
// (case-insensitively) the literal "false", and an Array is always true.
func (v Value) Bool() bool {
	switch v.kind {
	case Number:
		return !v.num.IsZero()
	case String:
		if v.str == "" {
			return false
		}
		return !strings.EqualFold(v.str, "false")
	default: // Array
		return true
	}
}

// Equal reports whether v and w compare equal under the language's equality
// rules: numeric comparison if both sides coerce to a number cleanly,
// lexicographic string comparison otherwise. Arrays are equal only to
// themselves (identity), matching their "always true, no numeric/string
// form" boolean/conversion rules.
func (v Value) Equal(w Value) bool {
	c, ok := v.Compare(w)
	if !ok {
		return false
	}
	return c == 0
}

// Compare orders v against w: numerically when both operands are Numbers
// (or Strings that parse cleanly as decimals), lexicographically on their
// string form otherwise. The second return value is false when v or w is
// an Array, since arrays have no ordering, except that an Array compared
// with the very same Array yields (0, true).
func (v Value) Compare(w Value) (int, bool) {
	if v.kind == Array || w.kind == Array {
		if v.kind == Array && w.kind == Array {
			return 0, v.arr == w.arr
		}
		return 0, false
	}
	if numeric(v) && numeric(w) {
		return v.Number().Cmp(w.Number()), true
	}
	return strings.Compare(v.Str(), w.Str()), true
}

// numeric reports whether v can be treated as a number for comparison
// purposes: it either already is one, or is a string that parses cleanly.
func numeric(v Value) bool {
	if v.kind == Number {
		return true
	}
	if v.kind != String {
		return false
	}
	_, err := decimal.NewFromString(strings.TrimSpace(v.str))
	return err == nil
}

// CanonicalKey returns the array-key text for v: a Number's canonical
// decimal string, or a String's literal text, so that a[0.1+0.2] and
// a[0.3] resolve to the same key while a[0] and a["0"] also coexist as the
// same key by design (both normalize to "0").
func CanonicalKey(v Value) string {
	if v.kind == Number {
		return v.num.String()
	}
	return v.Str()
}

// Get reads key from v. This never fails: indexing a non-array returns the
// empty string, and a missing key returns the empty string.
func (v Value) Get(key string) Value {
	if v.kind != Array {
		return Empty
	}
	if val, ok := v.arr.values[key]; ok {
		return val
	}
	return Empty
}

// GetPath walks a chain of keys (deepest index last) through nested
// arrays, returning the empty string as soon as the path runs into a
// missing key or a non-array value.
func (v Value) GetPath(keys []string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
	}
	return cur
}

// Set returns an Array value with key bound to val, auto-promoting v to a
// fresh array first if v is not already one (i.e. assigning into an unset
// or scalar slot creates the array). The receiver's own array, if any, is
// mutated in place and returned.
func (v Value) Set(key string, val Value) Value {
	arr := v.arr
	if v.kind != Array || arr == nil {
		arr = newArrayData()
	}
	if _, exists := arr.values[key]; !exists {
		arr.keys = append(arr.keys, key)
	}
	arr.values[key] = val
	return Value{kind: Array, arr: arr}
}

// SetPath writes val at the nested path described by keys (deepest index
// last), auto-promoting every intermediate slot to an array -- including
// overwriting a scalar found along the way -- and returns the (possibly
// newly created) root array value.
func (v Value) SetPath(keys []string, val Value) Value {
	if len(keys) == 0 {
		return val
	}
	root := v
	if root.kind != Array || root.arr == nil {
		root = NewArray()
	}
	cur := root
	for i := 0; i < len(keys)-1; i++ {
		k := keys[i]
		child, ok := cur.arr.values[k]
		if !ok || child.kind != Array {
			child = NewArray()
			cur.arr.setChild(k, child)
		}
		cur = child
	}
	cur.arr.setChild(keys[len(keys)-1], val)
	return root
}

func (a *arrayData) setChild(key string, val Value) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = val
}

// Keys returns the array's keys in insertion order. Returns nil for a
// non-array value.
func (v Value) Keys() []string {
	if v.kind != Array || v.arr == nil {
		return nil
	}
	out := make([]string, len(v.arr.keys))
	copy(out, v.arr.keys)
	return out
}

// Div divides a by b at the language's fixed decimal precision, reporting
// ok=false for division by zero instead of panicking or producing NaN/Inf.
func Div(a, b decimal.Decimal) (result decimal.Decimal, ok bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.DivRound(b, int32(divisionPrecision)), true
}

// Mod returns the remainder of a divided by b, reporting ok=false for
// division by zero.
func Mod(a, b decimal.Decimal) (result decimal.Decimal, ok bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Mod(b), true
}

// Clone deep-copies v: scalars are returned as-is (they are immutable), an
// Array is recursively copied so that the clone shares no backing storage
// with the original, matching the "assignment copies values... arrays by
// deep clone on store" rule.
func (v Value) Clone() Value {
	if v.kind != Array || v.arr == nil {
		return v
	}
	na := newArrayData()
	na.keys = append(na.keys, v.arr.keys...)
	for k, cv := range v.arr.values {
		na.values[k] = cv.Clone()
	}
	return Value{kind: Array, arr: na}
}
