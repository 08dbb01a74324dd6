// Package deadline classifies dispatch orders by how close they are to their
// deadline. Statuses are derived on every evaluation and never stored.
package deadline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the three-level severity shown on the board.
type Status string

const (
	OnTime  Status = "on_time"
	DueSoon Status = "due_soon"
	Overdue Status = "overdue"
)

// DueSoonWindow is how far ahead of the deadline an order starts warning.
const DueSoonWindow = 30 * time.Minute

// ErrInvalidClock is returned for deadline times that are not HH:MM[:SS].
var ErrInvalidClock = errors.New("invalid deadline time")

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts "HH:MM" and "HH:MM:SS".
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
}

// String renders the clock as HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// On anchors the clock to the calendar day of ref, in ref's location.
func (c Clock) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), c.Hour, c.Minute, c.Second, 0, ref.Location())
}

// Evaluate classifies an order. A completed order is always OnTime. Otherwise
// the deadline is anchored to now's calendar day: reaching it means Overdue,
// and being within DueSoonWindow of it, counted in whole minutes as the board
// displays it, means DueSoon.
//
// now must already be expressed in the deadline's timezone.
func Evaluate(now time.Time, deadline Clock, completed bool) Status {
	return EvaluateAt(now, deadline.On(now), completed)
}

// EvaluateAt applies the same rules against an absolute deadline instant.
func EvaluateAt(now, deadline time.Time, completed bool) Status {
	if completed {
		return OnTime
	}

	remaining := deadline.Sub(now)
	switch {
	case remaining <= 0:
		return Overdue
	case remaining.Truncate(time.Minute) <= DueSoonWindow:
		return DueSoon
	default:
		return OnTime
	}
}

// EvaluateString parses deadlineTime and evaluates it.
func EvaluateString(now time.Time, deadlineTime string, completed bool) (Status, error) {
	clock, err := ParseClock(deadlineTime)
	if err != nil {
		return "", err
	}
	return Evaluate(now, clock, completed), nil
}

// Rank orders statuses by severity, OnTime lowest.
func (s Status) Rank() int {
	switch s {
	case DueSoon:
		return 1
	case Overdue:
		return 2
	default:
		return 0
	}
}

// Label is the operator-facing text for a status.
func (s Status) Label() string {
	switch s {
	case DueSoon:
		return "Próximo"
	case Overdue:
		return "Vencido"
	default:
		return "A tiempo"
	}
}

// LowStock reports whether the current stock is under the configured minimum.
func LowStock(stockKg, minimumKg float64) bool {
	return stockKg < minimumKg
}
