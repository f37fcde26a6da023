// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/kont"
)

// exprReturnFrame is the pre-allocated terminal frame, avoiding a heap
// escape when boxing ReturnFrame into kont.Frame per construction.
var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame construction.
// Named function produces a static function value, consistent with kont convention.
func identityResume(v kont.Erased) kont.Erased { return v }

// ExprAwaitThen waits on the notification and then continues with next.
// Fuses ExprPerform(Await{N: n}) + ExprThen.
func ExprAwaitThen[B any](n *Notification, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Await{N: n}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func observeBindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(T) kont.Expr[B])
	result := f(current.(T))
	return kont.Erased(result.Value), result.Frame
}

// ExprObserveBind takes the next signaled value and passes it to f.
// Fuses ExprPerform(Observe[T]{S: s}) + ExprBind.
func ExprObserveBind[T, B any](s *Signal[T], f func(T) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = observeBindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Observe[T]{S: s}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func withLockUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(*T) B)
	g := current.(*TaskGuard[T])
	v := f(g.Value())
	g.Release()
	return kont.Erased(v), exprReturnFrame
}

// ExprWithLock locks the task mutex, applies f to the protected value,
// and releases before the continuation proceeds. The critical section
// is f's invocation only; the pointer must not escape it.
// Fuses ExprPerform(Acquire[T]{M: m}) + ExprBind + release.
func ExprWithLock[T, B any](m *TaskMutex[T], f func(*T) B) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = withLockUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Acquire[T]{M: m}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

func setDrainUnwind[T any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	if !current.(bool) {
		return kont.Erased(false), exprReturnFrame
	}
	c := data.(*Rendezvous[T])
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(true), Frame: exprReturnFrame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Drain[T]{C: c}
	ef.Resume = identityResume
	ef.Next = tf
	result := kont.ExprSuspend[bool](ef)
	return kont.Erased(result.Value), result.Frame
}

// ExprSetEff performs a full suspending hand-off on the rendezvous
// channel: install the value, then wait until the receiver has
// acknowledged it. Resumes with false when the channel is closed.
// Fuses ExprPerform(Put) + ExprBind + ExprPerform(Drain).
func ExprSetEff[T any](c *Rendezvous[T], v T) kont.Expr[bool] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = c
	bf.Unwind = setDrainUnwind[T]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Put[T]{C: c, Value: v}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[bool](ef)
}

func takeBindUnwind[T, B any](data, data2, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(*T) B)
	r := data2.(*Receiver[T])
	p := current.(*T)
	v := f(p)
	if p != nil {
		r.Done()
	}
	return kont.Erased(v), exprReturnFrame
}

// ExprTakeBind borrows the next rendezvous value, applies f, and
// acknowledges with Done before the continuation proceeds. The borrow
// is valid for f's invocation only; f receives nil when the channel is
// closed. Fuses ExprPerform(Take[T]{R: r}) + ExprBind + Done.
func ExprTakeBind[T, B any](r *Receiver[T], f func(*T) B) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Data2 = r
	bf.Unwind = takeBindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Take[T]{R: r}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}
