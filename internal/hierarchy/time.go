package hierarchy

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control due-date derivation.
var timeNow = time.Now

// SetTimeNow overrides the package clock for tests and returns a restore
// function.
func SetTimeNow(fn func() time.Time) func() {
	old := timeNow
	timeNow = fn
	return func() { timeNow = old }
}
