// Package ratelimit provides the ephemeral lockout ledger shared by every
// credential-checking endpoint. Counters are process-local by design: the
// ledger damps abuse, it is not a durable audit trail, and a restart
// clearing it is acceptable.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLocked indicates the origin exceeded the failure threshold within the
// sliding window.
var ErrLocked = errors.New("ratelimit: too many attempts")

// LockedError carries how long the caller must wait before retrying.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Unwrap() error { return ErrLocked }

type entry struct {
	failures    int
	lastAttempt time.Time
}

// Ledger counts credential attempts per client origin. Attempt reserves a
// slot and counts it in the same critical section, so concurrent attempts
// from one origin cannot all pass the threshold check while a slow
// credential verification is in flight.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLedger creates a ledger rejecting an origin after limit consecutive
// failures within the sliding window.
func NewLedger(limit int, window time.Duration) *Ledger {
	return &Ledger{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test use only.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Attempt reserves one credential check for the origin. The threshold read
// and the count share one critical section; a reservation is charged as a
// failure until the caller settles it with Reset (success) or Forgive (the
// attempt never reached the credential comparison). When locked it returns
// a *LockedError with the remaining wait. Counts start fresh once the
// window elapses between attempts.
func (l *Ledger) Attempt(origin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[origin]
	if !ok || now.Sub(e.lastAttempt) >= l.window {
		l.entries[origin] = &entry{failures: 1, lastAttempt: now}
		l.pruneLocked(now)
		return nil
	}
	if e.failures >= l.limit {
		return &LockedError{RetryAfter: l.window - now.Sub(e.lastAttempt)}
	}
	e.failures++
	e.lastAttempt = now
	return nil
}

// Forgive releases one reserved attempt. Called when the attempt failed
// for a reason unrelated to the credential, such as a storage error, so
// infrastructure trouble does not lock clients out.
func (l *Ledger) Forgive(origin string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[origin]
	if !ok {
		return
	}
	e.failures--
	if e.failures <= 0 {
		delete(l.entries, origin)
	}
}

// Reset clears the origin's counter. Called on every successful check.
func (l *Ledger) Reset(origin string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, origin)
}

// Failures returns the current count for an origin.
func (l *Ledger) Failures(origin string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[origin]
	if !ok || l.now().Sub(e.lastAttempt) >= l.window {
		return 0
	}
	return e.failures
}

// pruneLocked drops stale entries. Called with l.mu held, opportunistically
// on writes so the map does not grow without bound.
func (l *Ledger) pruneLocked(now time.Time) {
	if len(l.entries) < 1024 {
		return
	}
	for origin, e := range l.entries {
		if now.Sub(e.lastAttempt) >= l.window {
			delete(l.entries, origin)
		}
	}
}
