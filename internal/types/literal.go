package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Literal is a scalar written by the user (a default value or a validation
// rule operand). It keeps the source text so generation can render it
// verbatim. JSON strings, numbers, booleans and null are all accepted.
type Literal string

// String returns the literal's text.
func (l Literal) String() string { return string(l) }

// IsNumber reports whether the literal parses as a number.
func (l Literal) IsNumber() bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(l)), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON accepts any JSON scalar. Strings are unquoted, everything else
// keeps its raw JSON text.
func (l *Literal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return fmt.Errorf("literal: empty value")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("literal: %w", err)
		}
		*l = Literal(s)
	case '{', '[':
		return fmt.Errorf("literal: expected a scalar, got %s", raw)
	case 'n':
		*l = ""
	default:
		*l = Literal(raw)
	}
	return nil
}

// MarshalJSON writes JSON numbers and booleans bare and everything else as
// a JSON string. Text such as "007" or ".5" parses as a number but is not a
// JSON number, so it stays quoted.
func (l Literal) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(l))
	if s == "true" || s == "false" || (l.IsNumber() && json.Valid([]byte(s))) {
		return []byte(s), nil
	}
	return json.Marshal(string(l))
}
