package utils

import (
	"math"
	"time"
)

// Timer is a wrapper around time.Timer that behaves correctly when reset
// repeatedly without being read in between - the pattern the worker loop
// needs for its idle timer, the only timer it runs.
type Timer struct {
	t        *time.Timer
	read     bool
	deadline time.Time
}

// NewTimer creates a new timer that is not set to fire until Reset is called.
func NewTimer() *Timer {
	return &Timer{t: time.NewTimer(time.Duration(math.MaxInt64))}
}

// Chan returns the channel of the wrapped timer.
func (t *Timer) Chan() <-chan time.Time {
	return t.t.C
}

// Reset the timer, no matter whether the previous value was read or not.
func (t *Timer) Reset(deadline time.Time) {
	if deadline.Equal(t.deadline) && !t.read {
		return
	}
	// Drain the timer if the value from its channel wasn't read yet.
	if !t.t.Stop() && !t.read {
		<-t.t.C
	}
	if !deadline.IsZero() {
		t.t.Reset(time.Until(deadline))
	}
	t.read = false
	t.deadline = deadline
}

// SetRead must be called after the value from Chan() was read.
func (t *Timer) SetRead() {
	t.read = true
}

// Deadline returns the time the timer is currently set to fire at.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Stop stops the timer, guaranteeing it will not fire.
func (t *Timer) Stop() {
	t.t.Stop()
}
