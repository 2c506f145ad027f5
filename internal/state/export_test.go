package state

import "time"

// SetNow swaps the clock used for creation-time defaults and returns a
// restore function. This file only compiles during `go test`.
func SetNow(fn func() time.Time) func() {
	prev := now
	now = fn
	return func() { now = prev }
}
