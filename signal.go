// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
)

type signalKind uint8

const (
	signalEmpty signalKind = iota
	signalWaiting
	signalHolding
)

type signalState[T any] struct {
	kind  signalKind
	waker Waker
	value T
}

// Signal is a single-slot value-carrying suspend point. It models
// "latest value only": signaling while a previous value is unread
// overwrites it, and nothing is queued.
//
// State machine: Empty → Waiting(waker) → Holding(value) → Empty.
// Exactly one concurrent waiter is supported; polling from a second
// waiter while another is registered is a fatal contract violation.
type Signal[T any] struct {
	state *Lock[signalState[T]]
}

// NewSignal returns an empty Signal. The internal state is guarded by a
// spin lock; every critical section is a few loads and stores.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{state: NewLock(NewSpinLock(), signalState[T]{})}
}

// Signal installs v, overwriting any unread previous value, and wakes
// the registered waiter if one is suspended.
func (s *Signal[T]) Signal(v T) {
	g := s.state.Lock()
	st := g.Value()
	w := st.waker
	st.waker = nil
	st.kind = signalHolding
	st.value = v
	g.Release()

	if w != nil {
		w.Wake()
	}
}

// Poll is the suspend-point body. If a value is held it is taken and
// returned. If the signal is empty, w is registered and Poll returns
// iox.ErrWouldBlock. Re-polling with the waker already registered is
// fine; polling with a different waker while one is registered panics
// ("waker overflow"), because Signal supports exactly one waiter.
func (s *Signal[T]) Poll(w Waker) (T, error) {
	var zero T

	g := s.state.Lock()
	st := g.Value()
	switch st.kind {
	case signalEmpty:
		st.kind = signalWaiting
		st.waker = w
		g.Release()
		return zero, iox.ErrWouldBlock
	case signalWaiting:
		if st.waker != w {
			g.Release()
			panic("rdv: waker overflow on signal")
		}
		g.Release()
		return zero, iox.ErrWouldBlock
	default: // signalHolding
		v := st.value
		st.kind = signalEmpty
		st.value = zero
		g.Release()
		return v, nil
	}
}

// TryGet takes the held value without registering a waker.
func (s *Signal[T]) TryGet() (T, bool) {
	var zero T

	g := s.state.Lock()
	st := g.Value()
	if st.kind != signalHolding {
		g.Release()
		return zero, false
	}
	v := st.value
	st.kind = signalEmpty
	st.value = zero
	g.Release()
	return v, true
}

// IsSet reports whether an unread value is held.
func (s *Signal[T]) IsSet() bool {
	g := s.state.Lock()
	set := g.Value().kind == signalHolding
	g.Release()
	return set
}

// Reset forces the signal to Empty, dropping any held value and any
// registered waker.
func (s *Signal[T]) Reset() {
	var zero T

	g := s.state.Lock()
	st := g.Value()
	st.kind = signalEmpty
	st.waker = nil
	st.value = zero
	g.Release()
}
