// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"time"

	"code.hybscloud.com/kont"
)

// parkRecheck bounds how long a blocked executor stays parked without
// re-polling. The recheck is a safety net, not the wake path: wakes
// normally arrive through the condition variable.
const parkRecheck = time.Millisecond

// parkWaker converts suspension wakes into goroutine parking for the
// blocking executors. It is both the Waker registered at every suspend
// point and the parking latch the executor sleeps on.
type parkWaker struct {
	lock  RawLock
	cond  RawCondition
	fired bool
}

func newParkWaker() *parkWaker {
	p := &parkWaker{lock: NewStdLock()}
	p.cond = NewStdCondition(p.lock)
	return p
}

// Wake releases a parked executor. Safe from any goroutine, including
// under primitive-internal locks.
func (p *parkWaker) Wake() {
	p.lock.Acquire()
	p.fired = true
	p.lock.Release()
	p.cond.NotifyAll()
}

// park blocks until Wake fires, consuming the wake. The timed wait
// re-polls periodically so a wake lost to primitive misuse degrades to
// latency, never to a hang.
func (p *parkWaker) park() {
	p.lock.Acquire()
	for !p.fired {
		p.cond.WaitTimeout(parkRecheck)
	}
	p.fired = false
	p.lock.Release()
}

// awaitHandler implements kont.Handler for suspend-point effects.
// Parks on iox.ErrWouldBlock, converting non-blocking dispatch into
// blocking evaluation for Exec/ExecExpr.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type awaitHandler[R any] struct {
	park *parkWaker
}

// Dispatch implements kont.Handler via structural interface assertion.
// Waits past the iox.ErrWouldBlock boundary by parking until woken.
func (h awaitHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	aop, ok := op.(awaitDispatcher)
	if !ok {
		panic("rdv: unhandled effect in awaitHandler")
	}
	return dispatchPark(h.park, aop), true
}

// dispatchPark blocks until DispatchAwait succeeds. The park waker is
// registered on every failed poll, so the waking side always holds a
// live handle to this executor.
func dispatchPark(p *parkWaker, aop awaitDispatcher) kont.Resumed {
	for {
		v, err := aop.DispatchAwait(p)
		if err == nil {
			return v
		}
		p.park()
	}
}

// Exec runs a Cont-world protocol to completion on the calling
// goroutine. Suspend points park the goroutine until the corresponding
// primitive wakes it, without spawning goroutines or creating channels
// on the hot path.
func Exec[R any](protocol kont.Eff[R]) R {
	h := awaitHandler[R]{park: newParkWaker()}
	return kont.Handle(protocol, h)
}

// ExecExpr runs an Expr-world protocol to completion on the calling
// goroutine. Suspend points park the goroutine until the corresponding
// primitive wakes it.
func ExecExpr[R any](protocol kont.Expr[R]) R {
	h := awaitHandler[R]{park: newParkWaker()}
	return kont.HandleExpr(protocol, h)
}
