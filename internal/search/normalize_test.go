package search

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/docsearch/pkg/types"
)

// fixClock pins now() to the given year for the duration of the test.
func fixClock(t *testing.T, year int) {
	t.Helper()
	old := now
	now = func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = old })
}

func TestNormalizeLimits(t *testing.T) {
	r, ok := normalize(types.NormalizedResult{
		Title:       strings.Repeat("é", 250),
		Description: strings.Repeat("d", 600),
		URL:         " https://example.org/a.pdf ",
		Authors:     []string{"  Ada   Lovelace ", "", "Alan Turing", "Grace Hopper", "Edsger Dijkstra"},
	})
	if !ok {
		t.Fatal("normalize dropped a result with a URL")
	}
	if n := utf8.RuneCountInString(r.Title); n != types.MaxTitleLen {
		t.Errorf("title length = %d, want %d", n, types.MaxTitleLen)
	}
	if !utf8.ValidString(r.Title) {
		t.Error("title truncation split a rune")
	}
	if n := utf8.RuneCountInString(r.Description); n != types.MaxDescriptionLen {
		t.Errorf("description length = %d, want %d", n, types.MaxDescriptionLen)
	}
	if r.URL != "https://example.org/a.pdf" {
		t.Errorf("URL = %q", r.URL)
	}
	want := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}
	if strings.Join(r.Authors, "|") != strings.Join(want, "|") {
		t.Errorf("Authors = %v, want %v", r.Authors, want)
	}
	if r.ID == "" {
		t.Error("ID not assigned")
	}
}

func TestNormalizePlaceholderAndDrop(t *testing.T) {
	r, ok := normalize(types.NormalizedResult{Title: "  \n ", URL: "https://x"})
	if !ok || r.Title != types.UntitledPlaceholder {
		t.Errorf("Title = %q ok=%v, want placeholder", r.Title, ok)
	}
	if _, ok := normalize(types.NormalizedResult{Title: "Has title", URL: "  "}); ok {
		t.Error("result without URL should be dropped")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	old := newID
	newID = func() string { return "fixed" }
	defer func() { newID = old }()

	raw := types.NormalizedResult{
		Title:       "  A   title ",
		Description: "desc",
		URL:         "https://x",
		Authors:     []string{"a", "b", "c", "d"},
	}
	first, _ := normalize(raw)
	second, _ := normalize(first)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("normalize is not idempotent:\n%s\n%s", a, b)
	}
}

func TestFirstOrSelf(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"plain"`, "plain"},
		{`["first", "second"]`, "first"},
		{`[]`, ""},
		{`null`, ""},
		{``, ""},
		{`42`, "42"},
		{`[1234567]`, "1234567"},
		{`{"nested": true}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := firstOrSelf(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("firstOrSelf(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"solo"`, "solo"},
		{`["a", " ", "b", 3]`, "a|b|3"},
		{`null`, ""},
		{`"  "`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := strings.Join(stringList(json.RawMessage(tt.raw)), "|"); got != tt.want {
				t.Errorf("stringList(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNumberOf(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`1500`, 1500, true},
		{`"2048"`, 2048, true},
		{`["12.5"]`, 12.5, true},
		{`"n/a"`, 0, false},
		{`null`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := numberOf(json.RawMessage(tt.raw))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("numberOf(%s) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	fixClock(t, 2026)
	tests := []struct {
		in   string
		want int
	}{
		{"Annual Report 2019", 2019},
		{"2019-04-01T00:00:00Z", 2019},
		{"Roadmap 2040 then 2021", 2021},
		{"Code 123456", 0},
		{"Printed 1687", 1687},
		{"", 0},
	}
	for _, tt := range tests {
		if got := extractYear(tt.in); got != tt.want {
			t.Errorf("extractYear(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPositionScore(t *testing.T) {
	if got := positionScore(0, 1, 1.0, 0.1); got != 1.0 {
		t.Errorf("single result = %v, want 1.0", got)
	}
	if got := positionScore(0, 10, 1.0, 0.1); got != 1.0 {
		t.Errorf("first = %v, want 1.0", got)
	}
	if got := positionScore(9, 10, 1.0, 0.1); got < 0.0999 || got > 0.1001 {
		t.Errorf("last = %v, want 0.1", got)
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to int
		wantErr  bool
	}{
		{"", 0, 0, false},
		{"2010-2020", 2010, 2020, false},
		{" 2010 - 2020 ", 2010, 2020, false},
		{"2010-", 2010, 0, false},
		{"-2020", 0, 2020, false},
		{"2020-2020", 2020, 2020, false},
		{"2020", 0, 0, true},
		{"2020-2010", 0, 0, true},
		{"20-2010", 0, 0, true},
		{"abcd-2010", 0, 0, true},
		{"2010-2020-2030", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateRange) {
					t.Errorf("err = %v, want ErrInvalidDateRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateRange(%q): %v", tt.in, err)
			}
			if from != tt.from || to != tt.to {
				t.Errorf("got %d-%d, want %d-%d", from, to, tt.from, tt.to)
			}
		})
	}
}
