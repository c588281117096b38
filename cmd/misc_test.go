package cmd

import (
	"testing"
	"time"

	"github.com/remindd/remindd/pkg/remindlib"
)

func TestParseDueLayouts(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Time
	}{
		{"2026-09-01T09:30:00Z", time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)},
		{"2026-09-01 09:30", time.Date(2026, 9, 1, 9, 30, 0, 0, time.Local)},
		{"2026-09-01", time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)},
	} {
		got, err := parseDue(tc.in)
		if err != nil {
			t.Errorf("parseDue(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseDue(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDueClockIsInTheFuture(t *testing.T) {
	got, err := parseDue("23:59")
	if err != nil {
		t.Fatalf("parseDue: %v", err)
	}
	if !got.After(time.Now()) {
		t.Errorf("bare clock time resolved to the past: %v", got)
	}
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Errorf("clock = %02d:%02d, want 23:59", got.Hour(), got.Minute())
	}
}

func TestParseDueEmptyAndInvalid(t *testing.T) {
	got, err := parseDue("  ")
	if err != nil || !got.IsZero() {
		t.Errorf("blank due = %v, %v; want zero, nil", got, err)
	}
	if _, err := parseDue("whenever"); err == nil {
		t.Error("expected error for unparseable due time")
	}
}

func TestParsePriority(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want remindlib.Priority
	}{
		{"", remindlib.PriorityNone},
		{"none", remindlib.PriorityNone},
		{"LOW", remindlib.PriorityLow},
		{"med", remindlib.PriorityMedium},
		{"high", remindlib.PriorityHigh},
	} {
		got, err := parsePriority(tc.in)
		if err != nil {
			t.Errorf("parsePriority(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parsePriority(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestParseOnOff(t *testing.T) {
	if on, err := parseOnOff("on"); err != nil || !on {
		t.Errorf("parseOnOff(on) = %v, %v", on, err)
	}
	if on, err := parseOnOff("off"); err != nil || on {
		t.Errorf("parseOnOff(off) = %v, %v", on, err)
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Error("expected error for unknown value")
	}
}

func TestBeaut(t *testing.T) {
	if got := beaut("ab", 6); got != "  ab  " {
		t.Errorf("beaut = %q", got)
	}
	if got := beaut("abc", 6); len(got) != 6 {
		t.Errorf("beaut uneven pad length = %d", len(got))
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
