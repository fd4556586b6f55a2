// Package clock abstracts the time operations the tracker depends on so its
// scheduling can be driven deterministically in tests.
//
// Production code uses Real. Tests use Fake and move time forward with
// Advance, which runs every AfterFunc callback whose deadline falls inside the
// advanced window, in deadline order, on the calling goroutine.
//
//	fc := clock.Fake(time.Unix(0, 0))
//	fired := false
//	fc.AfterFunc(time.Second, func() { fired = true })
//	fc.Advance(time.Second) // fired == true
package clock
