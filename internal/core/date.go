package core

import "time"

// dayKeyLayout is the canonical date string used as the persistence key and
// as the dependency key that triggers day reloads.
const dayKeyLayout = "2006-01-02"

// DayKey formats a time as the canonical YYYY-MM-DD key. The time of day is
// irrelevant; keys always address whole calendar days in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// ParseDayKey parses a canonical YYYY-MM-DD key back into a UTC date.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(dayKeyLayout, key, time.UTC)
}

// MonthBounds returns the canonical keys of the first and last calendar day
// of the month containing t.
func MonthBounds(t time.Time) (first, last string) {
	t = t.UTC()
	f := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	l := f.AddDate(0, 1, -1)
	return DayKey(f), DayKey(l)
}

// Cursor holds the single "current day" being edited. It is a pure value
// holder; observers react to changes by comparing Key results.
type Cursor struct {
	current time.Time
}

// NewCursor returns a cursor positioned on the given day.
func NewCursor(t time.Time) *Cursor {
	return &Cursor{current: t.UTC()}
}

// Today returns a cursor positioned on the current day.
func Today() *Cursor {
	return NewCursor(time.Now())
}

// Current returns the day the cursor points at.
func (c *Cursor) Current() time.Time {
	return c.current
}

// Navigate moves the cursor by deltaDays and returns the new day.
func (c *Cursor) Navigate(deltaDays int) time.Time {
	c.current = c.current.AddDate(0, 0, deltaDays)
	return c.current
}

// Key returns the canonical key of the current day.
func (c *Cursor) Key() string {
	return DayKey(c.current)
}

// SameMonth reports whether two times fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}
