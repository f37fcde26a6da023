// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
)

// taskMutexWaiters bounds the registration queue. More simultaneous
// waiters than this simply retry after backoff instead of registering.
const taskMutexWaiters = 16

// TaskMutex is a mutex usable from suspended code: acquiring never
// blocks the calling goroutine. A spin lock guards only the tiny locked
// flag and the waiter registration, held for the check/flip alone —
// never for the duration of the logical critical section.
//
// Waiters register resumption handles on a bounded queue. Releasing the
// guard wakes every registered waiter and they re-contend, so an
// abandoned waiter can never strand the rest. Acquisition order is
// therefore best-effort, not strict FIFO.
type TaskMutex[T any] struct {
	meta    spinLock
	locked  bool
	waiters *MultiWaker
	value   T
}

// NewTaskMutex returns an unlocked TaskMutex protecting value.
func NewTaskMutex[T any](value T) *TaskMutex[T] {
	return &TaskMutex[T]{
		waiters: NewMultiWaker(taskMutexWaiters),
		value:   value,
	}
}

// TryLock acquires immediately or reports iox.ErrWouldBlock, without
// registering a waker. The failure is recoverable: retry later.
func (m *TaskMutex[T]) TryLock() (*TaskGuard[T], error) {
	m.meta.Acquire()
	if m.locked {
		m.meta.Release()
		return nil, iox.ErrWouldBlock
	}
	m.locked = true
	m.meta.Release()
	return &TaskGuard[T]{m: m}, nil
}

// PollLock is the suspend-point body. If the mutex is free it is taken
// and the exclusive accessor returned. Otherwise w is registered (queue
// permitting) and PollLock returns iox.ErrWouldBlock; the waker fires on
// the next release. The registration queue holds 16 handles; a caller
// past that bound gets the same would-block result WITHOUT a
// registration, so no wake will ever arrive for it and it must re-poll
// after backoff on its own.
func (m *TaskMutex[T]) PollLock(w Waker) (*TaskGuard[T], error) {
	m.meta.Acquire()
	if !m.locked {
		m.locked = true
		m.meta.Release()
		return &TaskGuard[T]{m: m}, nil
	}
	// Registering under the metadata lock orders the registration
	// against the release's flag flip: a release observed after this
	// point must also observe the registration.
	_ = m.waiters.Register(w)
	m.meta.Release()
	return nil, iox.ErrWouldBlock
}

// TaskGuard is the exclusive accessor of a TaskMutex. At most one guard
// is alive at any instant.
type TaskGuard[T any] struct {
	m        *TaskMutex[T]
	released bool
}

// Value returns the protected value. The pointer must not be retained
// past Release.
func (g *TaskGuard[T]) Value() *T {
	if g.released {
		panic("rdv: value access on released task mutex guard")
	}
	return &g.m.value
}

// Release unlocks and wakes all registered waiters. The drain runs
// while the metadata lock is still held: the queue is single-consumer,
// and a woken waiter could otherwise acquire, release, and start a
// second drain before this one finishes. Exactly one Release per
// acquisition.
func (g *TaskGuard[T]) Release() {
	if g.released {
		panic("rdv: task mutex guard released twice")
	}
	g.released = true

	m := g.m
	m.meta.Acquire()
	m.locked = false
	m.waiters.WakeAll()
	m.meta.Release()
}
