// =============================================================================
// catatkeu - Field Normalizers
// =============================================================================
//
// Leaf utilities shared by the spreadsheet and text importers. Every function
// here degrades a malformed value to a safe default instead of returning an
// error: imported files are user-authored and inconsistencies are expected.
//
// INPUT VALUES:
//   Values arrive either as spreadsheet cells (string, float64, time.Time,
//   bool) or as text segments (string). All functions accept `any` and switch
//   on the dynamic type.
//
// ABSENT VALUES:
//   IsAbsent is the only absent-value predicate. nil, an empty or
//   whitespace-only string and the sentinel "-" are all absent.
//
// =============================================================================

package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AbsentSentinel is the placeholder exports write for "no value".
const AbsentSentinel = "-"

// Normalizer carries the context the date rules depend on.
type Normalizer struct {
	// Now returns the current time; today's date is the fallback for dates.
	// Defaults to time.Now.
	Now func() time.Time

	// Use1904 selects the 1904 workbook date system for serial dates.
	Use1904 bool
}

// Today returns the current date in YYYY-MM-DD.
func (n *Normalizer) Today() string {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	return now().Format(DateLayout)
}

// =============================================================================
// ABSENT VALUES
// =============================================================================

// IsAbsent reports whether raw carries no value.
func IsAbsent(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(v)
		return s == "" || s == AbsentSentinel
	}
	return false
}

// =============================================================================
// TEXT
// =============================================================================

// Stringify returns the verbatim text of a value. Whole floats print without
// a fractional part so a numeric cell "12" stays "12".
func Stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(DateLayout)
	case interface{ String() string }:
		return v.String()
	}
	return ""
}

// SanitizeText returns "" for absent values and the stringified value
// otherwise. No trimming or escaping is applied.
func SanitizeText(raw any) string {
	if IsAbsent(raw) {
		return ""
	}
	return Stringify(raw)
}

// =============================================================================
// AMOUNTS
// =============================================================================

// ParseAmount converts a currency-formatted value to whole rupiah.
//
// Numbers are taken as-is (floats rounded to the nearest integer). Strings
// keep only their digits, so "Rp 1.500.000" is 1500000. Empty, unparsable and
// negative numeric input yields 0.
func ParseAmount(raw any) int64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return clampNonNegative(int64(v))
	case int64:
		return clampNonNegative(v)
	case float64:
		return amountFromFloat(v)
	case float32:
		return amountFromFloat(float64(v))
	case string:
		return amountFromString(v)
	}
	return amountFromString(Stringify(raw))
}

func amountFromFloat(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(v).Round(0)
	if !d.IsInteger() || d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0
	}
	return d.IntPart()
}

func amountFromString(s string) int64 {
	digits := onlyDigits(s)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// =============================================================================
// NULLABLE INTEGERS
// =============================================================================

// ParseNullableInt parses the leading integer of a value ("7 bulan" is 7).
// Absent input and input without a leading integer return nil.
func ParseNullableInt(raw any) *int64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	case float64:
		return intFromFloat(v)
	case float32:
		return intFromFloat(float64(v))
	case string:
		return leadingInt(v)
	}
	return leadingInt(Stringify(raw))
}

// intFromFloat truncates v, returning nil when it does not fit an int64
// instead of letting the conversion saturate.
func intFromFloat(v float64) *int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt64 || v >= math.MaxInt64 {
		return nil
	}
	n := int64(math.Trunc(v))
	return &n
}

// leadingInt mirrors integer-prefix parsing: optional sign, then digits.
func leadingInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return nil
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// IntOr dereferences p, returning def when p is nil or not positive.
func IntOr(p *int64, def int64) int64 {
	if p == nil || *p <= 0 {
		return def
	}
	return *p
}
