// Package dailynotes models the daily note surface of a vault: the notes
// folder, the filename date pattern, and the new-note template.
package dailynotes

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/daygap/internal/date"
)

type segKind int

const (
	segLiteral segKind = iota
	segYear4
	segYear2
	segMonth2 // zero padded
	segMonth
	segMonthName
	segMonthAbbr
	segDay2 // zero padded
	segDay
	segWeekdayName
	segWeekdayAbbr
)

type segment struct {
	kind segKind
	lit  string // only for segLiteral
}

type patternToken struct {
	text string
	kind segKind
}

// Token tables are ordered longest first so the scanner can be greedy.
var momentTokens = []patternToken{
	{"YYYY", segYear4},
	{"YY", segYear2},
	{"MMMM", segMonthName},
	{"MMM", segMonthAbbr},
	{"MM", segMonth2},
	{"M", segMonth},
	{"DD", segDay2},
	{"D", segDay},
	{"dddd", segWeekdayName},
	{"ddd", segWeekdayAbbr},
}

var goTokens = []patternToken{
	{"January", segMonthName},
	{"Monday", segWeekdayName},
	{"2006", segYear4},
	{"Jan", segMonthAbbr},
	{"Mon", segWeekdayAbbr},
	{"06", segYear2},
	{"02", segDay2},
	{"01", segMonth2},
	{"2", segDay},
	{"1", segMonth},
}

var longMonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var shortMonthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var longDayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var shortDayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Pattern is a compiled daily note filename pattern.
//
// Two surface syntaxes are accepted: moment-style tokens as used by the
// common daily note plugins (YYYY, MM, DD and friends, with [literal]
// escapes) and Go reference layouts (anything containing "2006"). Both
// compile to the same segment list, so Format and Parse behave identically
// either way. Patterns may contain '/' to spread notes over subfolders.
type Pattern struct {
	raw  string
	segs []segment
}

// CompilePattern compiles a filename pattern. The pattern must contain a
// four digit year token plus at least one month and one day token,
// otherwise a parsed name would not identify a unique calendar day.
func CompilePattern(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("dailynotes: empty pattern")
	}
	var (
		segs []segment
		err  error
	)
	if strings.Contains(raw, "2006") {
		segs, err = scanPattern(raw, goTokens, false)
	} else {
		segs, err = scanPattern(raw, momentTokens, true)
	}
	if err != nil {
		return nil, fmt.Errorf("dailynotes: pattern %q: %w", raw, err)
	}

	var hasYear, hasMonth, hasDay bool
	for _, s := range segs {
		switch s.kind {
		case segYear4:
			hasYear = true
		case segMonth, segMonth2, segMonthName, segMonthAbbr:
			hasMonth = true
		case segDay, segDay2:
			hasDay = true
		}
	}
	if !hasYear {
		return nil, fmt.Errorf("dailynotes: pattern %q: missing four digit year token", raw)
	}
	if !hasMonth || !hasDay {
		return nil, fmt.Errorf("dailynotes: pattern %q: missing month or day token", raw)
	}
	return &Pattern{raw: raw, segs: segs}, nil
}

// MustCompilePattern is CompilePattern for patterns known to be valid.
// It panics on error and is intended for tests and constants.
func MustCompilePattern(raw string) *Pattern {
	p, err := CompilePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// scanPattern splits raw into token and literal segments. When brackets is
// true, [...] spans are copied through as literals (the moment escape).
func scanPattern(raw string, table []patternToken, brackets bool) ([]segment, error) {
	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{kind: segLiteral, lit: lit.String()})
			lit.Reset()
		}
	}

	i := 0
scan:
	for i < len(raw) {
		if brackets && raw[i] == '[' {
			end := strings.IndexByte(raw[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '['")
			}
			lit.WriteString(raw[i+1 : i+1+end])
			i += end + 2
			continue
		}
		for _, tok := range table {
			if strings.HasPrefix(raw[i:], tok.text) {
				flush()
				segs = append(segs, segment{kind: tok.kind})
				i += len(tok.text)
				continue scan
			}
		}
		lit.WriteByte(raw[i])
		i++
	}
	flush()
	return segs, nil
}

// String returns the pattern source text.
func (p *Pattern) String() string { return p.raw }

// Format renders d as a note name, without the .md extension.
func (p *Pattern) Format(d date.Date) string {
	var b strings.Builder
	for _, s := range p.segs {
		switch s.kind {
		case segLiteral:
			b.WriteString(s.lit)
		case segYear4:
			fmt.Fprintf(&b, "%04d", d.Year)
		case segYear2:
			fmt.Fprintf(&b, "%02d", d.Year%100)
		case segMonth2:
			fmt.Fprintf(&b, "%02d", int(d.Month))
		case segMonth:
			fmt.Fprintf(&b, "%d", int(d.Month))
		case segMonthName:
			b.WriteString(longMonthNames[int(d.Month)-1])
		case segMonthAbbr:
			b.WriteString(shortMonthNames[int(d.Month)-1])
		case segDay2:
			fmt.Fprintf(&b, "%02d", d.Day)
		case segDay:
			fmt.Fprintf(&b, "%d", d.Day)
		case segWeekdayName:
			b.WriteString(longDayNames[d.Time().Weekday()])
		case segWeekdayAbbr:
			b.WriteString(shortDayNames[d.Time().Weekday()])
		}
	}
	return b.String()
}

// Parse recovers the date encoded in a note name. Parsing is strict: the
// whole name must match the pattern, the day must exist on the calendar,
// and formatting the result must reproduce the name byte for byte. The
// round trip check is what rejects "2024-3-10" against YYYY-MM-DD, or a
// weekday name that does not belong to the date.
func (p *Pattern) Parse(name string) (date.Date, error) {
	var zero date.Date
	rest := name
	var year, month, day int

	takeDigits := func(min, max int) (int, bool) {
		n := 0
		for n < len(rest) && n < max && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n < min {
			return 0, false
		}
		v := 0
		for _, c := range []byte(rest[:n]) {
			v = v*10 + int(c-'0')
		}
		rest = rest[n:]
		return v, true
	}
	takeName := func(names []string) (int, bool) {
		for i, n := range names {
			if strings.HasPrefix(rest, n) {
				rest = rest[len(n):]
				return i + 1, true
			}
		}
		return 0, false
	}

	for _, s := range p.segs {
		ok := true
		switch s.kind {
		case segLiteral:
			if strings.HasPrefix(rest, s.lit) {
				rest = rest[len(s.lit):]
			} else {
				ok = false
			}
		case segYear4:
			year, ok = takeDigits(4, 4)
		case segYear2:
			// Value is implied by the four digit year; the round trip
			// check below rejects a disagreeing one.
			_, ok = takeDigits(2, 2)
		case segMonth2:
			month, ok = takeDigits(2, 2)
		case segMonth:
			month, ok = takeDigits(1, 2)
		case segMonthName:
			month, ok = takeName(longMonthNames)
		case segMonthAbbr:
			month, ok = takeName(shortMonthNames)
		case segDay2:
			day, ok = takeDigits(2, 2)
		case segDay:
			day, ok = takeDigits(1, 2)
		case segWeekdayName:
			_, ok = takeName(longDayNames)
		case segWeekdayAbbr:
			_, ok = takeName(shortDayNames)
		}
		if !ok {
			return zero, p.mismatch(name)
		}
	}
	if rest != "" {
		return zero, p.mismatch(name)
	}

	d := date.New(year, time.Month(month), day)
	if !d.Valid() {
		return zero, fmt.Errorf("dailynotes: name %q: no such calendar day", name)
	}
	if p.Format(d) != name {
		return zero, p.mismatch(name)
	}
	return d, nil
}

func (p *Pattern) mismatch(name string) error {
	return fmt.Errorf("dailynotes: name %q does not match pattern %q", name, p.raw)
}
