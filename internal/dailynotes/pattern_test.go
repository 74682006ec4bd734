package dailynotes

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/example/daygap/internal/date"
)

func TestPatternFormat_MomentTokens(t *testing.T) {
	d := date.New(2024, time.March, 7)
	cases := []struct {
		pattern string
		want    string
	}{
		{"YYYY-MM-DD", "2024-03-07"},
		{"YYYY-M-D", "2024-3-7"},
		{"DD.MM.YYYY", "07.03.2024"},
		{"YYYY-MM-DD dddd", "2024-03-07 Thursday"},
		{"ddd DD MMM YYYY", "Thu 07 Mar 2024"},
		{"MMMM D, YYYY", "March 7, 2024"},
		{"YYYY/MM/YYYY-MM-DD", "2024/03/2024-03-07"},
		{"[MM] YYYY-MM-DD", "MM 2024-03-07"},
	}
	for _, c := range cases {
		p, err := CompilePattern(c.pattern)
		if err != nil {
			t.Fatalf("CompilePattern(%q): %v", c.pattern, err)
		}
		if got := p.Format(d); got != c.want {
			t.Errorf("Format(%q) = %q, want %q", c.pattern, got, c.want)
		}
	}
}

func TestPatternFormat_GoLayout(t *testing.T) {
	d := date.New(2024, time.March, 7)
	cases := []struct {
		pattern string
		want    string
	}{
		{"2006-01-02", "2024-03-07"},
		{"Jan 2, 2006", "Mar 7, 2024"},
		{"Monday 02 January 2006", "Thursday 07 March 2024"},
	}
	for _, c := range cases {
		p, err := CompilePattern(c.pattern)
		if err != nil {
			t.Fatalf("CompilePattern(%q): %v", c.pattern, err)
		}
		if got := p.Format(d); got != c.want {
			t.Errorf("Format(%q) = %q, want %q", c.pattern, got, c.want)
		}
	}
}

func TestPatternParse_RoundTrip(t *testing.T) {
	p := MustCompilePattern("YYYY-MM-DD")
	d, err := p.Parse("2024-03-07")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := date.New(2024, time.March, 7); d != want {
		t.Errorf("Parse = %v, want %v", d, want)
	}
}

func TestPatternParse_Strict(t *testing.T) {
	p := MustCompilePattern("YYYY-MM-DD")
	bad := []string{
		"2024-3-10",   // missing zero padding
		"2024-02-30",  // not a calendar day
		"2024-03-07 ", // trailing garbage
		"x2024-03-07",
		"2024_03_07",
		"20240307",
		"",
	}
	for _, name := range bad {
		if _, err := p.Parse(name); err == nil {
			t.Errorf("Parse(%q): expected error", name)
		}
	}
}

func TestPatternParse_WeekdayMustAgree(t *testing.T) {
	p := MustCompilePattern("YYYY-MM-DD dddd")
	if _, err := p.Parse("2024-03-07 Friday"); err == nil {
		t.Error("expected error for wrong weekday")
	}
	d, err := p.Parse("2024-03-07 Thursday")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := date.New(2024, time.March, 7); d != want {
		t.Errorf("Parse = %v, want %v", d, want)
	}
}

func TestPatternParse_TwoDigitYearMustAgree(t *testing.T) {
	p := MustCompilePattern("YYYY-MM-DD (YY)")
	if _, err := p.Parse("2024-03-07 (24)"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := p.Parse("2024-03-07 (99)"); err == nil {
		t.Error("expected error for disagreeing two digit year")
	}
}

func TestPatternParse_NestedFolders(t *testing.T) {
	p := MustCompilePattern("YYYY/MM/YYYY-MM-DD")
	d, err := p.Parse("2024/03/2024-03-07")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := date.New(2024, time.March, 7); d != want {
		t.Errorf("Parse = %v, want %v", d, want)
	}
	if _, err := p.Parse("2024/04/2024-03-07"); err == nil {
		t.Error("expected error for disagreeing folder month")
	}
}

func TestCompilePattern_Errors(t *testing.T) {
	bad := []string{
		"",
		"MM-DD",       // no year
		"YYYY",        // no month or day
		"YYYY-MM",     // no day
		"YY-MM-DD",    // two digit year only
		"[YYYY-MM-DD", // unclosed escape
	}
	for _, pat := range bad {
		if _, err := CompilePattern(pat); err == nil {
			t.Errorf("CompilePattern(%q): expected error", pat)
		}
	}
}

func testPatternRoundTrip_Properties(t *rapid.T) {
	patterns := []string{
		"YYYY-MM-DD",
		"YYYY-M-D",
		"DD MMM YYYY",
		"MMMM D, YYYY dddd",
		"2006-01-02",
		"YYYY/MM/YYYY-MM-DD",
	}
	p := MustCompilePattern(rapid.SampledFrom(patterns).Draw(t, "pattern"))
	d := date.New(
		rapid.IntRange(1000, 9999).Draw(t, "year"),
		time.Month(rapid.IntRange(1, 12).Draw(t, "month")),
		rapid.IntRange(1, 31).Draw(t, "day"),
	)
	if !d.Valid() {
		t.Skip("not a calendar day")
	}

	name := p.Format(d)
	got, err := p.Parse(name)
	if err != nil {
		t.Fatalf("Parse(%q): %v", name, err)
	}
	if got != d {
		t.Fatalf("round trip through %q: got %v, want %v", name, got, d)
	}
}

func TestPatternRoundTrip_Properties(t *testing.T) {
	rapid.Check(t, testPatternRoundTrip_Properties)
}
