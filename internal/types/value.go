package types

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	Null Kind = iota
	String
	Number
	Integer
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Integer:
		return "integer"
	default:
		return "null"
	}
}

// Value is a single cell: absent, a string, a float or an exact integer.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	i    int64
}

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// StringValue wraps s. An empty string is still a String, not Null.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue wraps f. NaN is kept as a Number.
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }

// IntegerValue wraps n exactly. Parcel identifiers go past 2^53, where a
// float64 stops telling neighbours apart.
func IntegerValue(n int64) Value { return Value{kind: Integer, i: n} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

// Str returns the string payload and whether v holds a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == String
}

// Num returns the numeric payload and whether v holds a number. Integers are
// converted and may round above 2^53; use Int for the exact value.
func (v Value) Num() (float64, bool) {
	if v.kind == Integer {
		return float64(v.i), true
	}
	return v.num, v.kind == Number
}

// Int returns the exact payload and whether v holds an integer.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == Integer
}

// IsNaN reports whether v has no usable numeric reading: Null, a NaN number,
// or a string that does not parse as a float.
func (v Value) IsNaN() bool {
	switch v.kind {
	case Number:
		return math.IsNaN(v.num)
	case Integer:
		return false
	case String:
		_, ok := ParseNumber(v.str)
		return !ok
	default:
		return true
	}
}

// String renders v the way it is written to CSV: Null and NaN are empty,
// integers are exact and floats use the shortest representation.
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		if math.IsNaN(v.num) {
			return ""
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Integer:
		return strconv.FormatInt(v.i, 10)
	default:
		return ""
	}
}

// Any returns v as a driver-friendly Go value (nil, string, float64 or int64).
func (v Value) Any() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		if math.IsNaN(v.num) {
			return nil
		}
		return v.num
	case Integer:
		return v.i
	default:
		return nil
	}
}

// Equal compares kind and payload. NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case String:
		return v.str == o.str
	case Number:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case Integer:
		return v.i == o.i
	default:
		return true
	}
}

// ParseNumber parses a cell as a float, tolerating surrounding whitespace.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseInteger parses a cell as a base-10 int64, tolerating surrounding
// whitespace.
func ParseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// TypeColumn converts raw cells of one column into Values. Empty cells become
// Null. If every remaining cell is an integer the column holds exact
// integers, if every one is numeric it holds floats, otherwise every cell is
// kept as a string.
func TypeColumn(cells []string) []Value {
	kind := Integer
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if kind == Integer {
			if _, ok := ParseInteger(c); ok {
				continue
			}
			kind = Number
		}
		if _, ok := ParseNumber(c); !ok {
			kind = String
			break
		}
	}

	out := make([]Value, len(cells))
	for i, c := range cells {
		if strings.TrimSpace(c) == "" {
			out[i] = NullValue()
			continue
		}
		switch kind {
		case Integer:
			n, _ := ParseInteger(c)
			out[i] = IntegerValue(n)
		case Number:
			f, _ := ParseNumber(c)
			out[i] = NumberValue(f)
		default:
			out[i] = StringValue(c)
		}
	}
	return out
}
