package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a free-form scalar field. It accepts a JSON string or a JSON
// number and keeps the raw text so a record survives a serialize and
// deserialize cycle unchanged. Numeric interpretation happens on demand.
type Value string

// Float parses the value as a finite number. Surrounding whitespace is
// ignored; empty text, non-numeric text, NaN and infinities report false.
func (v Value) Float() (float64, bool) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool {
	return v == ""
}

// String returns the raw text.
func (v Value) String() string {
	return string(v)
}

// Number builds a Value from a float using the shortest representation.
func Number(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// MarshalJSON emits a JSON number when the raw text is a valid number
// literal, a JSON string otherwise, and null for an empty value.
func (v Value) MarshalJSON() ([]byte, error) {
	if v == "" {
		return []byte("null"), nil
	}
	if isNumberLiteral(string(v)) {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

// UnmarshalJSON accepts strings, numbers and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*v = ""
		return nil
	case strings.HasPrefix(s, `"`):
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = Value(text)
		return nil
	case isNumberLiteral(s):
		*v = Value(s)
		return nil
	case s == "true" || s == "false":
		*v = Value(s)
		return nil
	default:
		return fmt.Errorf("%w: unsupported value %s", ErrInvalidData, s)
	}
}

// isNumberLiteral reports whether s is exactly a JSON number literal.
func isNumberLiteral(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if c != '-' && (c < '0' || c > '9') {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
