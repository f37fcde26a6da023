// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"time"
)

// Lock is a typed guarded cell built on a RawLock. The guard returned by
// [Lock.Lock] is the only way to reach the protected value, and releasing
// the guard is the sole unlock point.
type Lock[T any] struct {
	raw   RawLock
	value T
}

// NewLock returns a Lock protecting value with the given RawLock backend.
// A nil raw selects the sync.Mutex backend.
func NewLock[T any](raw RawLock, value T) *Lock[T] {
	if raw == nil {
		raw = NewStdLock()
	}
	return &Lock[T]{raw: raw, value: value}
}

// Lock acquires the raw lock and returns the exclusive accessor.
func (l *Lock[T]) Lock() Guard[T] {
	l.raw.Acquire()
	return Guard[T]{lock: l}
}

// With runs f with exclusive access to the protected value, releasing on
// every exit path including panic unwind.
func (l *Lock[T]) With(f func(*T)) {
	l.raw.Acquire()
	defer l.raw.Release()
	f(&l.value)
}

// Guard is the exclusive accessor of a Lock's value. Releasing twice, or
// touching the value after release, is a contract violation and panics.
type Guard[T any] struct {
	lock     *Lock[T]
	released bool
}

// Value returns the protected value. The pointer must not be retained
// past Release.
func (g *Guard[T]) Value() *T {
	if g.lock == nil || g.released {
		panic("rdv: value access on released guard")
	}
	return &g.lock.value
}

// Release unlocks. Exactly one Release per Lock call.
func (g *Guard[T]) Release() {
	if g.lock == nil || g.released {
		panic("rdv: guard released twice")
	}
	g.released = true
	g.lock.raw.Release()
}

// Condition is a typed condition variable paired with one Lock.
type Condition[T any] struct {
	raw RawCondition
}

// NewCondition returns a Condition bound to l, using the channel-based
// RawCondition backend.
func NewCondition[T any](l *Lock[T]) *Condition[T] {
	return &Condition[T]{raw: NewStdCondition(l.raw)}
}

// Wait atomically releases the guard's lock, suspends the calling
// goroutine until notified, and reacquires the lock before returning.
// The guard remains the valid accessor afterwards; the protected value
// may have changed.
func (c *Condition[T]) Wait(g *Guard[T]) {
	if g.lock == nil || g.released {
		panic("rdv: condition wait without held guard")
	}
	c.raw.Wait()
}

// WaitTimeout is Wait with an upper bound; it reports whether the wait
// elapsed without a notification.
func (c *Condition[T]) WaitTimeout(g *Guard[T], d time.Duration) bool {
	if g.lock == nil || g.released {
		panic("rdv: condition wait without held guard")
	}
	return c.raw.WaitTimeout(d)
}

// NotifyOne wakes at most one waiter.
func (c *Condition[T]) NotifyOne() { c.raw.NotifyOne() }

// NotifyAll wakes all current waiters.
func (c *Condition[T]) NotifyAll() { c.raw.NotifyAll() }
