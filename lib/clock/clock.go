// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() and drive time explicitly
// with Advance, so retry backoff and poll intervals can be tested
// without real sleeps.
package clock

import "time"

// Clock provides the time operations the daemon depends on. Every
// function that would otherwise call time.Now, time.After, or
// time.Sleep takes a Clock instead (or is a method on a struct with a
// Clock field).
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}
