// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// RawLock is the minimal blocking mutual-exclusion contract.
//
// Between Acquire and the matching Release the caller has exclusive
// logical ownership of the associated data. Acquire/Release must not be
// called reentrantly by the same logical owner. Misuse (double release,
// release without acquire) is a contract violation and panics; it is
// never surfaced as a recoverable error.
type RawLock interface {
	Acquire()
	Release()
}

// RawCondition is a condition variable tied to one RawLock instance.
//
// Wait and WaitTimeout must only be invoked while the lock is held by the
// calling owner; both atomically release the lock while suspended and
// reacquire it before returning. WaitTimeout reports whether the wait
// elapsed without a notification.
type RawCondition interface {
	Wait()
	WaitTimeout(d time.Duration) (timedOut bool)
	NotifyOne()
	NotifyAll()
}

// stdLock adapts sync.Mutex to RawLock. This is the OS-thread backend:
// Acquire parks the calling goroutine via the runtime.
type stdLock struct {
	mu sync.Mutex
}

// NewStdLock returns a RawLock backed by sync.Mutex.
func NewStdLock() RawLock {
	return &stdLock{}
}

func (l *stdLock) Acquire() { l.mu.Lock() }
func (l *stdLock) Release() { l.mu.Unlock() }

// spinLock is a CAS spin lock with adaptive backoff. Suited to critical
// sections of a few loads and stores: waker slots, lock metadata.
type spinLock struct {
	state atomix.Uint32
}

// NewSpinLock returns a RawLock that spins with adaptive backoff
// (iox.Backoff) instead of parking the calling thread. Hold it only
// across short, bounded critical sections.
func NewSpinLock() RawLock {
	return new(spinLock)
}

func (l *spinLock) Acquire() {
	var bo iox.Backoff
	for !l.state.CompareAndSwap(0, 1) {
		bo.Wait()
	}
}

func (l *spinLock) Release() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("rdv: release of unacquired spin lock")
	}
}

// NopLock is a no-op RawLock for single-threaded backends where mutual
// exclusion is vacuous. Pairing it with a RawCondition that can actually
// wait is a contract violation: a single-threaded waiter has no peer to
// notify it.
type NopLock struct{}

func (NopLock) Acquire() {}
func (NopLock) Release() {}

// stdCondition is a channel-per-waiter condition variable. Unlike
// sync.Cond it supports a timed wait and works with any RawLock.
type stdCondition struct {
	l RawLock

	mu      sync.Mutex // guards waiters only
	waiters map[chan struct{}]struct{}
}

// NewStdCondition returns a RawCondition bound to l. Every Wait and
// WaitTimeout call releases l while suspended and reacquires it before
// returning.
func NewStdCondition(l RawLock) RawCondition {
	return &stdCondition{
		l:       l,
		waiters: make(map[chan struct{}]struct{}),
	}
}

func (c *stdCondition) Wait() {
	ch := c.register()
	c.l.Release()
	<-ch
	c.l.Acquire()
}

func (c *stdCondition) WaitTimeout(d time.Duration) bool {
	ch := c.register()
	c.l.Release()

	timedOut := false
	t := time.NewTimer(d)
	select {
	case <-ch:
	case <-t.C:
		timedOut = true
	}
	t.Stop()

	if timedOut {
		c.mu.Lock()
		if _, ok := c.waiters[ch]; ok {
			delete(c.waiters, ch)
		} else {
			// A notification raced the timer and already claimed this
			// waiter; count it as notified so no wake is lost.
			timedOut = false
		}
		c.mu.Unlock()
	}

	c.l.Acquire()
	return timedOut
}

func (c *stdCondition) NotifyOne() {
	c.mu.Lock()
	for ch := range c.waiters {
		delete(c.waiters, ch)
		close(ch)
		break
	}
	c.mu.Unlock()
}

func (c *stdCondition) NotifyAll() {
	c.mu.Lock()
	for ch := range c.waiters {
		delete(c.waiters, ch)
		close(ch)
	}
	c.mu.Unlock()
}

func (c *stdCondition) register() chan struct{} {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}
