package clock

import "time"

// Clock is the subset of the time package used by timer-driven code.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d elapses. The returned Timer cancels
	// the pending call.
	AfterFunc(d time.Duration, f func()) Timer

	// Sleep blocks for at least d.
	Sleep(d time.Duration)
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was
	// still pending.
	Stop() bool
}
