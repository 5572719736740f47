// Package platform declares the boundary the core consumes from its host
// environment: clock, timers, randomness, and unrecoverable-error
// reporting. Spec §5/§6 requires these to live outside the core — this
// package is the Go interface for that boundary, analogous to the
// teacher toolchain's per-target az_posix.c/az_win32.c split, except
// here the split is an interface rather than a build tag.
//
// internal/hfsm and internal/rpcserver depend only on the Platform
// interface, never on Simulated directly, so a caller on a constrained
// device can supply its own implementation without pulling in time.Timer
// or math/rand.
package platform

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Timer is a handle to a single-shot, cancelable timer armed by
// Platform.NewTimer. Stop is idempotent: calling it after the timer has
// already fired, or more than once, has no effect.
type Timer interface {
	Stop()
}

// Platform is the set of host services the core's HFSM and RPC server
// consume. No method blocks or allocates on a hot path; NewTimer is the
// only one that may allocate, and only once per arm.
type Platform interface {
	// Now returns the current time, substituting for clock_msec.
	Now() time.Time

	// NewTimer arms a one-shot timer that invokes cb after d elapses. The
	// callback runs on whatever goroutine the implementation chooses; core
	// callers must not assume it runs synchronously with NewTimer.
	NewTimer(d time.Duration, cb func()) Timer

	// Rand returns a pseudo-random 64-bit value, substituting for the
	// platform RNG used to generate e.g. subscribe packet ids in samples.
	Rand() uint64

	// CriticalError reports a condition the core cannot recover from (the
	// HFSM root's Exit/"PANIC!" branch). Implementations typically log and
	// terminate the process; the core never calls this expecting to
	// continue running afterward.
	CriticalError(err error)
}

// Simulated is a Platform implementation built on the standard library's
// wall clock and PRNG. It exists for tests and cmd/rpc-server-demo; it is
// never imported by internal/hfsm or internal/rpcserver themselves,
// keeping faith with spec §1's "platform shims are external
// collaborators."
type Simulated struct {
	mu         sync.Mutex
	lastErr    error
	randSrc    *rand.Rand
	OnCritical func(error)
}

// NewSimulated builds a Simulated platform seeded from the host's default
// randomness source.
func NewSimulated() *Simulated {
	return &Simulated{randSrc: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xA5A5A5A5))}
}

func (s *Simulated) Now() time.Time { return time.Now() }

func (s *Simulated) NewTimer(d time.Duration, cb func()) Timer {
	t := time.AfterFunc(d, cb)
	return timerAdapter{t}
}

func (s *Simulated) Rand() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.randSrc.Uint64()
}

func (s *Simulated) CriticalError(err error) {
	s.mu.Lock()
	s.lastErr = err
	hook := s.OnCritical
	s.mu.Unlock()
	if hook != nil {
		hook(err)
	}
}

// LastCriticalError returns the most recent error passed to
// CriticalError, or nil if none has occurred. Useful in tests that
// assert the root state's panic branch fired.
func (s *Simulated) LastCriticalError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

type timerAdapter struct{ t *time.Timer }

func (a timerAdapter) Stop() { a.t.Stop() }
