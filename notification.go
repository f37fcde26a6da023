// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Notification is a lockless coalescing signal with a single waker slot.
//
// Notify is non-blocking and never fails; multiple Notify calls before a
// Poll coalesce into one wakeup. Poll supports exactly one outstanding
// waiter: registering a second concurrent waiter overwrites the first
// registration, which then never fires. Multiple concurrent waiters are
// a documented misuse, not a panic; they degrade into mutual re-wakes.
//
// The zero value is ready to use.
type Notification struct {
	notified atomix.Uint32
	waker    wakerCell
}

// Reset clears the flag and drops any registered waker. Use it on the
// abandonment path of a suspended wait, so the stale handle can never
// receive a stray resumption.
func (n *Notification) Reset() {
	n.notified.Store(0)
	n.waker.take()
}

// Notify sets the flag and triggers the registered waker, if any.
func (n *Notification) Notify() {
	n.notified.Store(1)
	n.waker.wake()
}

// IsNotified reports whether a notification is pending.
func (n *Notification) IsNotified() bool {
	return n.notified.Load() != 0
}

// Poll consumes a pending notification. If one is pending the flag is
// cleared and Poll returns nil without registering anything; otherwise w
// is registered and Poll returns iox.ErrWouldBlock.
//
// The waker is registered before the flag is checked, so a Notify racing
// with Poll either hands over the flag here or fires the fresh waker;
// the wake cannot fall between the two.
func (n *Notification) Poll(w Waker) error {
	n.waker.register(w)

	if n.notified.Swap(0) != 0 {
		n.waker.take()
		return nil
	}
	return iox.ErrWouldBlock
}
