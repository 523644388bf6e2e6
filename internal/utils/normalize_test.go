package utils

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeNameLower(t *testing.T) {
	cases := map[string]string{
		"  Weekend   Crew  ": "weekend crew",
		"BOOK\tClub":         "book club",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeNameLower(in); got != want {
			t.Errorf("NormalizeNameLower(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Weekend Crew":   "weekend-crew",
		"Café Münch 3":   "cafe-munch-3",
		"  --weird__x  ": "weird-x",
		"!!!":            "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeywordsFromName(t *testing.T) {
	kw := KeywordsFromName("weekend crew", "weekend-crew")
	want := map[string]bool{"weekend": true, "crew": true, "weekend crew": true, "weekend-crew": true}
	for _, k := range kw {
		if !want[k] {
			t.Errorf("unexpected keyword %q", k)
		}
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("missing keywords: %v", want)
	}

	if KeywordsFromName("", "") != nil {
		t.Error("empty name should give no keywords")
	}
}

func TestTrimMax(t *testing.T) {
	if got := TrimMax("  hello  ", 10); got != "hello" {
		t.Errorf("TrimMax = %q", got)
	}
	if got := TrimMax("hello", 3); got != "hel" {
		t.Errorf("TrimMax = %q", got)
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2026-09-05T10:00:00Z")
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	want := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTime = %v, want %v", got, want)
	}

	if _, err := ParseTime("2026-09-05"); err != nil {
		t.Errorf("date-only form rejected: %v", err)
	}
	if _, err := ParseTime("not a time"); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("expected ErrInvalidTimeFormat, got %v", err)
	}
}
