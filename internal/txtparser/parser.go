// =============================================================================
// catatkeu - Text Export Parser
// =============================================================================
//
// This module reads the human-readable text dump the app exports and splits
// it into item records. The dump looks like:
//
//   📋 DATA HUTANG
//   --------------------------------------------------
//   1. KPR Rumah
//      Tipe: KPR
//      Total Hutang: Rp 150.000.000
//      Periode: 120 bulan
//      Tanggal: 3 Februari 2026
//      Catatan: -
//   2. Motor
//      ...
//   --------------------------------------------------
//
// PARSING PROCESS:
//   1. Decode the bytes (BOM, Windows-1252 fallback, line endings)
//   2. Locate a section by its title marker
//   3. Cut the section at the next dash rule or the next section title
//   4. Tokenize numbered lines into items and merge "Label: value" lines
//
// =============================================================================

package txtparser

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// RuleWidth is the minimum number of dashes in a section rule line.
const RuleWidth = 50

var itemLinePattern = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)

// =============================================================================
// DECODING
// =============================================================================

// Decode converts raw export bytes to text. A UTF-8 byte order mark is
// dropped, bytes that are not valid UTF-8 are read as Windows-1252 and CRLF
// line endings become LF.
func Decode(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(data) {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()))
		if err == nil {
			data = decoded
		}
	}

	text := string(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// =============================================================================
// SECTIONS
// =============================================================================

// Section names a block of the export and the markers that open it.
type Section struct {
	// Key identifies the section ("hutang", "piutang", ...).
	Key string

	// Markers are tried in order; the first one found opens the section.
	Markers []string
}

// Title returns the marker text without its leading symbol, e.g.
// "📋 DATA HUTANG" becomes "DATA HUTANG".
func Title(marker string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(marker, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}))
}

// IsRule reports whether line is a section rule (a run of dashes).
func IsRule(line string) bool {
	s := strings.TrimSpace(line)
	return len(s) >= RuleWidth && strings.Trim(s, "-") == ""
}

// ExtractSection returns the text of the first section opened by one of
// markers. Each marker is looked up verbatim first, then by its title text,
// so exports whose emoji were mangled in transit still match.
//
// The section starts at the marker line. Rule lines directly under the title
// are its underline and stay in the section. It ends before the next rule line,
// before the next line holding one of the stop titles, or at the end of text.
//
// PARAMETERS:
//   - text: The decoded export.
//   - stops: Titles of all known sections (see Title); a line containing one
//     of them, other than the opening line, ends the section.
//   - markers: Markers for the wanted section, in priority order.
//
// RETURNS:
//   - The section text and true, or "" and false when no marker is present.
func ExtractSection(text string, stops []string, markers ...string) (string, bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for _, marker := range markers {
		if start = findLine(lines, marker); start >= 0 {
			break
		}
		if start = findLine(lines, Title(marker)); start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := start + 1
	for end < len(lines) && IsRule(lines[end]) {
		end++
	}
	for ; end < len(lines); end++ {
		if IsRule(lines[end]) || containsAny(lines[end], stops) {
			break
		}
	}

	return strings.Join(lines[start:end], "\n"), true
}

func findLine(lines []string, needle string) int {
	if needle == "" {
		return -1
	}
	for i, line := range lines {
		if strings.Contains(line, needle) {
			return i
		}
	}
	return -1
}

func containsAny(line string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(line, n) {
			return true
		}
	}
	return false
}

// =============================================================================
// ITEMS
// =============================================================================

// Label maps one or more "Label:" prefixes onto a field key.
type Label struct {
	Field    string
	Prefixes []string

	// Extract optionally rewrites the value, e.g. keeping only the digits of
	// "120 bulan".
	Extract func(value string) string
}

// Item is one numbered entry of a section.
type Item struct {
	// Title is the text after the ordinal of the numbered line.
	Title string

	// Fields holds the labeled values, keyed by Label.Field.
	Fields map[string]string

	// Line is the 1-based line of the numbered line within the section.
	Line int
}

// Field returns the value stored for key, or "".
func (it Item) Field(key string) string {
	return it.Fields[key]
}

// ParseItems splits a section into items. A line starting with "<n>." opens
// an item whose title is the rest of that line; following lines are matched
// against labels until the next numbered line. Unknown lines are ignored and
// lines before the first numbered line are skipped.
func ParseItems(section string, labels []Label) []Item {
	var items []Item
	var current *Item

	for i, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := itemLinePattern.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				items = append(items, *current)
			}
			current = &Item{
				Title:  strings.TrimSpace(m[2]),
				Fields: make(map[string]string),
				Line:   i + 1,
			}
			continue
		}

		if current == nil {
			continue
		}
		for _, label := range labels {
			if value, ok := matchLabel(trimmed, label.Prefixes); ok {
				if label.Extract != nil {
					value = label.Extract(value)
				}
				current.Fields[label.Field] = value
				break
			}
		}
	}

	if current != nil {
		items = append(items, *current)
	}
	return items
}

// matchLabel returns the trimmed value after the first matching "Prefix:".
func matchLabel(line string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		prefix := p + ":"
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

// FirstNumber keeps the first run of digits of value ("120 bulan" -> "120").
func FirstNumber(value string) string {
	return firstNumberPattern.FindString(value)
}

var firstNumberPattern = regexp.MustCompile(`\d+`)
