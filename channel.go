// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotData
	slotQuit
)

type slotState[T any] struct {
	kind  slotKind
	value T
}

// Rendezvous is a single-slot zero-copy hand-off channel. A sender
// installs exactly one value; the receiver observes it in place via a
// live reference and acknowledges with Done before the next value can be
// installed. Senders and the receiver may each wait either blocking
// (condition variable) or suspending (notification pair).
//
// Multiple senders may share one channel (MPSC of capacity one).
// Concurrent suspended senders contend for the single empty-notification
// slot and may wake each other redundantly; that is a known cost of the
// single-waker design, not a correctness bug.
type Rendezvous[T any] struct {
	state *Lock[slotState[T]]
	cond  *Condition[slotState[T]]

	notifyFull  Notification // slot became full or quit: wakes the receiver
	notifyEmpty Notification // slot drained or quit: wakes one sender
}

// Receiver is the consuming side of a Rendezvous. Get/PollGet return a
// reference into the slot that stays valid until Done; Close tears the
// channel down so no sender can be left blocked.
type Receiver[T any] struct {
	ch *Rendezvous[T]
}

// NewRendezvous returns a connected channel/receiver pair. The slot is
// guarded by the sync.Mutex RawLock backend; blocking waits park on a
// channel-based condition variable.
func NewRendezvous[T any]() (*Rendezvous[T], *Receiver[T]) {
	ch := &Rendezvous[T]{}
	ch.state = NewLock(NewStdLock(), slotState[T]{})
	ch.cond = NewCondition(ch.state)
	return ch, &Receiver[T]{ch: ch}
}

// Set installs v, blocking while the slot is occupied, and then blocks
// again until the receiver has drained it: back-to-back sends are
// strictly serialized with the receiver's Get/Done pairs. Returns false
// without installing when the channel is closed.
func (ch *Rendezvous[T]) Set(v T) bool {
	return ch.setData(slotData, v)
}

// CloseSend terminates the channel from the sending side. Pending data
// is drained by the receiver first; afterwards every Get returns nil and
// every Set returns false.
func (ch *Rendezvous[T]) CloseSend() {
	var zero T
	ch.setData(slotQuit, zero)
}

func (ch *Rendezvous[T]) setData(kind slotKind, v T) bool {
	g := ch.state.Lock()
	st := g.Value()

	for {
		if st.kind == slotEmpty {
			st.kind = kind
			st.value = v
			ch.cond.NotifyAll()
			ch.notifyFull.Notify()
			break
		}
		if st.kind == slotQuit {
			g.Release()
			return false
		}
		ch.cond.Wait(&g)
	}

	for st.kind == slotData {
		ch.cond.Wait(&g)
	}
	g.Release()
	return true
}

// PollSet is the suspending install phase of Set: install v if the slot
// is empty (reporting true), report false without installing if the
// channel is closed, or register w and return iox.ErrWouldBlock while
// the slot is occupied. After a successful install the sender completes
// the hand-off with PollDrained.
func (ch *Rendezvous[T]) PollSet(v T, w Waker) (bool, error) {
	for {
		g := ch.state.Lock()
		st := g.Value()
		switch st.kind {
		case slotQuit:
			g.Release()
			return false, nil
		case slotEmpty:
			st.kind = slotData
			st.value = v
			ch.cond.NotifyAll()
			g.Release()
			ch.notifyFull.Notify()
			return true, nil
		}
		g.Release()

		if err := ch.notifyEmpty.Poll(w); err != nil {
			return false, err
		}
		// Consumed a drain notification; re-examine the slot.
	}
}

// PollDrained is the suspending serialization phase of Set: it completes
// once the installed value has been acknowledged (or the channel quit),
// registering w and returning iox.ErrWouldBlock while the slot is still
// occupied.
func (ch *Rendezvous[T]) PollDrained(w Waker) error {
	for {
		g := ch.state.Lock()
		occupied := g.Value().kind == slotData
		g.Release()
		if !occupied {
			return nil
		}

		if err := ch.notifyEmpty.Poll(w); err != nil {
			return err
		}
	}
}

// PollClose is the suspending variant of CloseSend: install the quit
// marker once pending data has drained, registering w and returning
// iox.ErrWouldBlock while the slot is still occupied. Idempotent once
// the channel is closed.
func (ch *Rendezvous[T]) PollClose(w Waker) error {
	var zero T
	for {
		g := ch.state.Lock()
		st := g.Value()
		switch st.kind {
		case slotQuit:
			g.Release()
			return nil
		case slotEmpty:
			st.kind = slotQuit
			st.value = zero
			ch.cond.NotifyAll()
			g.Release()
			ch.notifyFull.Notify()
			return nil
		}
		g.Release()

		if err := ch.notifyEmpty.Poll(w); err != nil {
			return err
		}
	}
}

// Get blocks until the slot holds a value or the channel is closed. The
// returned reference points into the slot — no copy is made — and stays
// valid until Done. A nil return means the channel is closed.
func (r *Receiver[T]) Get() *T {
	ch := r.ch
	g := ch.state.Lock()
	st := g.Value()
	for {
		switch st.kind {
		case slotData:
			p := &st.value
			g.Release()
			return p
		case slotQuit:
			g.Release()
			return nil
		}
		ch.cond.Wait(&g)
	}
}

// PollGet is the suspending variant of Get. It returns the live
// reference when a value is held, ErrClosed when the channel is closed,
// or registers w and returns iox.ErrWouldBlock.
func (r *Receiver[T]) PollGet(w Waker) (*T, error) {
	ch := r.ch
	for {
		g := ch.state.Lock()
		st := g.Value()
		switch st.kind {
		case slotData:
			p := &st.value
			g.Release()
			return p, nil
		case slotQuit:
			g.Release()
			return nil, ErrClosed
		}
		g.Release()

		if err := ch.notifyFull.Poll(w); err != nil {
			return nil, err
		}
	}
}

// Done releases the slot after the receiver has finished with the
// reference returned by Get/PollGet, waking any blocked or suspended
// sender. Calling Done with no value held is a no-op.
func (r *Receiver[T]) Done() {
	var zero T
	ch := r.ch

	g := ch.state.Lock()
	st := g.Value()
	if st.kind == slotData {
		st.kind = slotEmpty
		st.value = zero
		ch.cond.NotifyAll()
		g.Release()
		ch.notifyEmpty.Notify()
		return
	}
	g.Release()
}

// Close tears down the receiving side: the slot is forced closed and
// every blocked or suspended sender is woken, so none can be left
// waiting forever. Pending unread data is discarded.
func (r *Receiver[T]) Close() {
	var zero T
	ch := r.ch

	g := ch.state.Lock()
	st := g.Value()
	st.kind = slotQuit
	st.value = zero
	ch.cond.NotifyAll()
	g.Release()

	ch.notifyEmpty.Notify()
	ch.notifyFull.Notify()
}
