package core

// numeric.go interprets numeric text from the historical dataset.
//
// Parsing is lenient in the way spreadsheet exports need: leading whitespace
// is ignored and the longest numeric prefix wins, so "2010 (est.)" is 2010
// and "12.5%" is 12.5. Text with no numeric prefix becomes NaN. NaN is a
// value, not an error; rows are never dropped because of it.

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// floatPrefixRegex matches the longest leading decimal literal.
var floatPrefixRegex = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// Number is a float64 that may hold NaN for text that failed to parse.
// Non-finite values encode as JSON null.
type Number float64

// NaN returns the not-a-number sentinel.
func NaN() Number {
	return Number(math.NaN())
}

// IsNaN reports whether n is the not-a-number sentinel.
func (n Number) IsNaN() bool {
	return math.IsNaN(float64(n))
}

// Finite reports whether n is neither NaN nor infinite.
func (n Number) Finite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to NaN.
func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// ParseFloat returns the value of the longest leading decimal literal in s,
// or NaN if there is none.
func ParseFloat(s string) Number {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := floatPrefixRegex.FindString(s)
	if m == "" {
		return NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	// Out-of-range literals come back as ±Inf with ErrRange; keep them.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return NaN()
	}
	return Number(f)
}

// ParseInt returns the integer value of the leading digits in s, or NaN if
// there are none. A 0x prefix selects hexadecimal.
func ParseInt(s string) Number {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return NaN()
	}

	// Accumulate as float so very long digit runs don't overflow.
	var v float64
	for i := 0; i < end; i++ {
		v = v*float64(base) + float64(digitValue(s[i]))
	}
	return Number(sign * v)
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
