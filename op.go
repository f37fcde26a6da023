// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// awaitDispatcher is the structural interface for suspend-point
// operations. DispatchAwait is non-blocking: it polls the underlying
// primitive with w as the resumption handle and returns
// iox.ErrWouldBlock when no progress is possible yet.
type awaitDispatcher interface {
	DispatchAwait(w Waker) (kont.Resumed, error)
}

// Await is the effect operation for waiting on a Notification.
// Perform(Await{N: n}) suspends until n is notified.
type Await struct {
	kont.Phantom[struct{}]
	N *Notification
}

// DispatchAwait polls the notification, registering w while no
// notification is pending.
func (a Await) DispatchAwait(w Waker) (kont.Resumed, error) {
	if err := a.N.Poll(w); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Observe is the effect operation for taking the next value from a
// Signal. Perform(Observe[T]{S: s}) suspends until a value is signaled
// and resumes with it.
type Observe[T any] struct {
	kont.Phantom[T]
	S *Signal[T]
}

// DispatchAwait polls the signal, registering w while it is empty.
func (o Observe[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	v, err := o.S.Poll(w)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Acquire is the effect operation for locking a TaskMutex.
// Perform(Acquire[T]{M: m}) suspends until the mutex is free and
// resumes with the exclusive guard.
type Acquire[T any] struct {
	kont.Phantom[*TaskGuard[T]]
	M *TaskMutex[T]
}

// DispatchAwait polls the mutex, registering w while it is held.
func (a Acquire[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	g, err := a.M.PollLock(w)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Put is the effect operation for installing a value into a Rendezvous
// slot. It resumes with true once the value is installed, or false if
// the channel is closed; it does NOT wait for the receiver to drain.
// SetEff composes Put with Drain for full hand-off semantics.
type Put[T any] struct {
	kont.Phantom[bool]
	C     *Rendezvous[T]
	Value T
}

// DispatchAwait polls the slot, registering w while it is occupied.
func (p Put[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	ok, err := p.C.PollSet(p.Value, w)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

// Drain is the effect operation for waiting until the installed value
// has been acknowledged by the receiver (or the channel closed).
type Drain[T any] struct {
	kont.Phantom[struct{}]
	C *Rendezvous[T]
}

// DispatchAwait polls for the drained state, registering w while the
// slot is still occupied.
func (d Drain[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	if err := d.C.PollDrained(w); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Shut is the effect operation for closing a Rendezvous from the
// sending side. Pending data drains to the receiver first.
type Shut[T any] struct {
	kont.Phantom[struct{}]
	C *Rendezvous[T]
}

// DispatchAwait polls the close transition, registering w while pending
// data is still undrained.
func (s Shut[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	if err := s.C.PollClose(w); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Take is the effect operation for borrowing the next value from a
// Rendezvous receiver. It resumes with a live reference into the slot,
// or nil when the channel is closed. The reference is only valid until
// Done; TakeBind scopes the borrow and acknowledges automatically.
type Take[T any] struct {
	kont.Phantom[*T]
	R *Receiver[T]
}

// DispatchAwait polls the receiver, registering w while the slot is
// empty. A closed channel resumes with nil rather than failing, so
// protocol code observes end-of-stream as a value.
func (t Take[T]) DispatchAwait(w Waker) (kont.Resumed, error) {
	p, err := t.R.PollGet(w)
	if err != nil {
		if err == ErrClosed {
			return (*T)(nil), nil
		}
		return nil, err
	}
	return p, nil
}

// ReadResult carries the outcome of a Read operation. Err is nil on a
// completed copy, or ErrShortBuffer when Buf was smaller than the
// payload; in the short-buffer case N is the required size and the
// frame stays pending for a retry.
type ReadResult struct {
	Type FrameType
	N    int
	Err  error
}

// Read is the effect operation for receiving one frame from a bridged
// connection into Buf. End of stream resumes with Type FrameClose.
type Read struct {
	kont.Phantom[ReadResult]
	R   *ConnReceiver
	Buf []byte
}

// DispatchAwait polls the connection receiver, registering w while no
// frame is pending. Short-buffer failures complete the operation (with
// the required size) instead of suspending: the caller decides whether
// to retry with a larger buffer.
func (r Read) DispatchAwait(w Waker) (kont.Resumed, error) {
	ft, n, err := r.R.PollRecv(r.Buf, w)
	if err != nil && iox.IsWouldBlock(err) {
		return nil, err
	}
	return ReadResult{Type: ft, N: n, Err: err}, nil
}
