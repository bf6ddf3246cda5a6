// Package clock abstracts the time operations the scheduler depends on.
// Production code uses Real(); tests use Fake() and advance time explicitly
// instead of sleeping.
package clock

import "time"

// Clock provides the current time and one-shot callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed and returns a Timer that can
	// cancel the pending call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is the cancel handle for a pending AfterFunc callback.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from running. It returns true if the call
// stopped the timer, false if the timer already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}
