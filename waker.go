// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// Waker is a resumption handle: triggering it tells the executor that
// registered it to poll its suspended operation again. Wake must be
// non-blocking and safe to call from any goroutine; it may run while a
// primitive's internal lock is held, so it must only schedule the
// re-poll, never perform it inline.
//
// Implementations handed to [Signal.Poll] must be comparable (pointer
// identity), so re-registration by the same waiter can be told apart
// from a second concurrent waiter. [NewWaker] satisfies this.
type Waker interface {
	Wake()
}

type funcWaker struct {
	fn func()
}

func (w *funcWaker) Wake() { w.fn() }

// NewWaker adapts fn into a comparable Waker.
func NewWaker(fn func()) Waker {
	return &funcWaker{fn: fn}
}

// wakerCell is a single-slot waker registration: register overwrites,
// take clears, wake takes-and-triggers. The slot is guarded by a spin
// bit because it is touched for a handful of instructions only.
type wakerCell struct {
	guard spinLock
	w     Waker
}

func (c *wakerCell) register(w Waker) {
	c.guard.Acquire()
	c.w = w
	c.guard.Release()
}

func (c *wakerCell) take() Waker {
	c.guard.Acquire()
	w := c.w
	c.w = nil
	c.guard.Release()
	return w
}

func (c *wakerCell) wake() {
	if w := c.take(); w != nil {
		w.Wake()
	}
}

// MultiWaker is a bounded registration of resumption handles, for call
// sites that genuinely need more than the single-slot primitives allow.
// Registrations are queued FIFO on a bounded lock-free MPSC queue;
// WakeAll drains and triggers every registered handle.
//
// Concurrent WakeAll calls are not supported: the drain side must be
// serialized by the caller (the task mutex drains while holding its
// metadata lock; see TaskGuard.Release).
type MultiWaker struct {
	q lfq.Queue[Waker]
}

// NewMultiWaker returns a MultiWaker with the given capacity (rounded up
// to a power of two by the queue).
func NewMultiWaker(capacity int) *MultiWaker {
	return &MultiWaker{q: lfq.NewMPSC[Waker](capacity)}
}

// Register enqueues w. Returns iox.ErrWouldBlock when the registration
// queue is full; the caller then retries after backoff instead of
// waiting for a wake that cannot be delivered.
func (m *MultiWaker) Register(w Waker) error {
	return m.q.Enqueue(&w)
}

// WakeAll drains the registration queue, triggering every handle.
func (m *MultiWaker) WakeAll() {
	for {
		w, err := m.q.Dequeue()
		if err != nil {
			if !iox.IsWouldBlock(err) {
				panic("rdv: waker queue dequeue failed")
			}
			return
		}
		w.Wake()
	}
}

// nopWaker is the polling executor's waker: drivers that re-poll with
// adaptive backoff need no wakeup signal. Non-zero size keeps distinct
// instances distinct under pointer comparison.
type nopWaker struct {
	_ [1]byte
}

func (*nopWaker) Wake() {}
