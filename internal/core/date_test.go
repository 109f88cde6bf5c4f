package core

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	d := time.Date(2025, 3, 7, 23, 15, 0, 0, time.UTC)
	if got := DayKey(d); got != "2025-03-07" {
		t.Fatalf("expected 2025-03-07, got %q", got)
	}
	parsed, err := ParseDayKey("2025-03-07")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date: %v", parsed)
	}
	if _, err := ParseDayKey("07/03/2025"); err == nil {
		t.Fatal("expected error for non-canonical format")
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		in          time.Time
		first, last string
	}{
		{time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "2025-03-01", "2025-03-31"},
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "2025-02-01", "2025-02-28"},
		{time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "2025-12-01", "2025-12-31"},
	}
	for _, tc := range cases {
		first, last := MonthBounds(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("%v expected [%s, %s], got [%s, %s]", tc.in, tc.first, tc.last, first, last)
		}
	}
}

func TestCursorNavigate(t *testing.T) {
	c := NewCursor(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if c.Key() != "2025-03-01" {
		t.Fatalf("unexpected key %q", c.Key())
	}
	c.Navigate(-1)
	if c.Key() != "2025-02-28" {
		t.Fatalf("expected month rollover, got %q", c.Key())
	}
	c.Navigate(1)
	c.Navigate(1)
	if c.Key() != "2025-03-02" {
		t.Fatalf("expected 2025-03-02, got %q", c.Key())
	}
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	c := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !SameMonth(a, b) {
		t.Fatal("expected same month")
	}
	if SameMonth(b, c) {
		t.Fatal("expected different months")
	}
}
