package shared

import (
	"errors"
	"time"
)

// Window bounds a reporting period. Both ends are inclusive.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ErrInvalidWindow indicates an unusable reporting window.
var ErrInvalidWindow = errors.New("reporting window invalid")

const windowDateLayout = "2006-01-02"

// ParseWindow builds a Window from yyyy-mm-dd bounds. The end of the window
// is extended to the last instant of its day so same-day transactions match.
func ParseWindow(from, to string) (Window, error) {
	if from == "" || to == "" {
		return Window{}, ErrInvalidWindow
	}
	start, err := time.Parse(windowDateLayout, from)
	if err != nil {
		return Window{}, ErrInvalidWindow
	}
	end, err := time.Parse(windowDateLayout, to)
	if err != nil {
		return Window{}, ErrInvalidWindow
	}
	if end.Before(start) {
		return Window{}, ErrInvalidWindow
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	return Window{From: start, To: end}, nil
}

// MonthWindow returns the window covering the month holding t.
func MonthWindow(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Window{From: start, To: end}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Key renders a stable cache token for the window.
func (w Window) Key() string {
	return w.From.Format(windowDateLayout) + ":" + w.To.Format(windowDateLayout)
}
