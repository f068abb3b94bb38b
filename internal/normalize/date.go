package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the canonical stored date format.
const DateLayout = "2006-01-02"

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// genericLayouts stand in for a free-form timestamp parser. Month-first
// slash dates are deliberately absent: slash dates are day-first.
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 2 2006",
	"Mon Jan 02 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-2006",
}

// indonesianMonths maps Indonesian month names (lower case) to month numbers.
var indonesianMonths = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"maret":     time.March,
	"april":     time.April,
	"mei":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"agustus":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"desember":  time.December,
}

// ParseDate normalizes a date value to YYYY-MM-DD.
//
// RESOLUTION ORDER:
//  0. absent ("", "-", nil)          -> today
//  1. time.Time                       -> formatted directly
//  2. number                          -> workbook serial date
//  3. YYYY-MM-DD                      -> passed through
//  4. DD/MM/YYYY                      -> reordered
//  5. generic timestamp layouts       -> date part
//  6. "3 Februari 2026"               -> Indonesian month table
//  7. anything else                   -> today
//
// Candidates that are not real calendar dates ("31/02/2026") fall through to
// the next rule, so the result is always a valid date.
func (n *Normalizer) ParseDate(raw any) string {
	if IsAbsent(raw) {
		return n.Today()
	}

	switch v := raw.(type) {
	case time.Time:
		if !v.IsZero() && inCalendarRange(v) {
			return v.Format(DateLayout)
		}
		return n.Today()
	case float64:
		if s, ok := n.serialDate(v); ok {
			return s
		}
		return n.Today()
	case float32:
		if s, ok := n.serialDate(float64(v)); ok {
			return s
		}
		return n.Today()
	case int:
		if s, ok := n.serialDate(float64(v)); ok {
			return s
		}
		return n.Today()
	case int64:
		if s, ok := n.serialDate(float64(v)); ok {
			return s
		}
		return n.Today()
	}

	s := strings.TrimSpace(Stringify(raw))

	if isoDatePattern.MatchString(s) {
		if _, err := time.Parse(DateLayout, s); err == nil {
			return s
		}
	}

	if m := dmyDatePattern.FindStringSubmatch(s); m != nil {
		if d, ok := civilDate(m[3], m[2], m[1]); ok {
			return d
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}

	if d, ok := indonesianLongDate(s); ok {
		return d
	}

	return n.Today()
}

// ParseDueDate is ParseDate for optional dates: an absent value stays empty
// instead of becoming today.
func (n *Normalizer) ParseDueDate(raw any) string {
	if IsAbsent(raw) {
		return ""
	}
	return n.ParseDate(raw)
}

// serialDate decodes a workbook serial day number.
func (n *Normalizer) serialDate(serial float64) (string, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 {
		return "", false
	}
	use1904 := n != nil && n.Use1904
	t, err := excelize.ExcelDateToTime(serial, use1904)
	if err != nil || !inCalendarRange(t) {
		return "", false
	}
	return t.Format(DateLayout), true
}

// inCalendarRange reports whether t has a four-digit year, the only years
// YYYY-MM-DD can hold. A number typed as 20260203 decodes far past that.
func inCalendarRange(t time.Time) bool {
	return t.Year() >= 1 && t.Year() <= 9999
}

// indonesianLongDate parses "day monthName year" with an Indonesian month name.
func indonesianLongDate(s string) (string, bool) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return "", false
	}
	month, ok := indonesianMonths[strings.ToLower(parts[1])]
	if !ok {
		return "", false
	}
	return civilDate(parts[2], strconv.Itoa(int(month)), parts[0])
}

// civilDate builds a YYYY-MM-DD string and rejects impossible dates.
func civilDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return t.Format(DateLayout), true
}
