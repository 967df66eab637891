// Package datewindow maintains a bounded "current day" cursor and keeps the
// event list shown for that day consistent with the calendar store. The
// cursor can move one day at a time within [today-1 month, today+1 month];
// every move and every mutation signal triggers exactly one reload.
package datewindow

import (
	"context"
	"sync"
	"time"

	"github.com/zumlo/daybook/internal/calendar"
)

// Loader fetches the events of one calendar day. In production this is
// calendar.Access.EventsForDate.
type Loader func(ctx context.Context, date time.Time) ([]calendar.Event, error)

// Window is a bounded date cursor plus the loaded events for the cursor's
// day. Safe for concurrent use; overlapping reloads are resolved by
// discarding the stale one, never by blocking.
type Window struct {
	mu      sync.Mutex
	current time.Time
	min     time.Time
	max     time.Time
	loader  Loader

	events  []calendar.Event
	err     error
	loading int

	issued  uint64 // sequence of the most recently started reload
	applied uint64 // sequence of the most recently applied reload
}

// New creates a window centered on today. The bounds are fixed at
// construction: one month back, one month ahead, all midnight-normalized.
func New(today time.Time, loader Loader) *Window {
	day := calendar.Midnight(today)
	return &Window{
		current: day,
		min:     addMonthsClamped(day, -1),
		max:     addMonthsClamped(day, 1),
		loader:  loader,
	}
}

// addMonthsClamped shifts a midnight-normalized day by whole months,
// clamping to the last day of the target month when the source day does not
// exist there. Jan 31 plus one month is Feb 28, not Mar 3.
func addMonthsClamped(day time.Time, months int) time.Time {
	first := time.Date(day.Year(), day.Month()+time.Month(months), 1, 0, 0, 0, 0, day.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	d := day.Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, day.Location())
}

// Current returns the cursor's day.
func (w *Window) Current() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// MinDate returns the lower navigation bound.
func (w *Window) MinDate() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.min
}

// MaxDate returns the upper navigation bound.
func (w *Window) MaxDate() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.max
}

// CanGoPrev reports whether the cursor may move one day back.
func (w *Window) CanGoPrev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.After(w.min)
}

// CanGoNext reports whether the cursor may move one day forward.
func (w *Window) CanGoNext() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.Before(w.max)
}

// Events returns a snapshot of the loaded event list. The slice is a copy;
// the displayed list is only ever replaced wholesale by a reload.
func (w *Window) Events() []calendar.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]calendar.Event, len(w.events))
	copy(events, w.events)
	return events
}

// Loading reports whether any reload is still in flight.
func (w *Window) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading > 0
}

// Err returns the error of the last applied reload, or nil after a
// successful one. A failed reload leaves the previously loaded list intact.
func (w *Window) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// GoPrev moves the cursor one day back and reloads, unless the move would
// leave the window. A rejected move changes nothing and issues no reload.
func (w *Window) GoPrev(ctx context.Context) bool {
	return w.move(ctx, -1)
}

// GoNext moves the cursor one day forward and reloads, unless the move
// would leave the window.
func (w *Window) GoNext(ctx context.Context) bool {
	return w.move(ctx, 1)
}

func (w *Window) move(ctx context.Context, days int) bool {
	w.mu.Lock()
	candidate := w.current.AddDate(0, 0, days)
	if candidate.Before(w.min) || candidate.After(w.max) {
		w.mu.Unlock()
		return false
	}
	w.current = candidate
	seq, date := w.beginReloadLocked()
	w.mu.Unlock()

	w.runReload(ctx, seq, date)
	return true
}

// Refresh reloads the cursor's day without moving it. Callers invoke it
// after every successful mutation, once the mutation has completed.
func (w *Window) Refresh(ctx context.Context) {
	w.mu.Lock()
	seq, date := w.beginReloadLocked()
	w.mu.Unlock()

	w.runReload(ctx, seq, date)
}

func (w *Window) beginReloadLocked() (uint64, time.Time) {
	w.issued++
	w.loading++
	return w.issued, w.current
}

func (w *Window) runReload(ctx context.Context, seq uint64, date time.Time) {
	events, err := w.loader(ctx, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading--

	// A result is applied only if the date it answers still matches the
	// cursor and no newer reload has landed first. Anything else is stale
	// and discarded.
	if seq <= w.applied || !date.Equal(w.current) {
		return
	}
	w.applied = seq

	if err != nil {
		w.err = err
		return
	}
	w.err = nil
	w.events = events
}
