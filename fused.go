// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/kont"
)

// AwaitThen waits on the notification and then continues with next.
// Fuses Perform(Await{N: n}) + Then.
func AwaitThen[B any](n *Notification, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Await{N: n}), next)
}

// ObserveBind takes the next signaled value and passes it to f.
// Fuses Perform(Observe[T]{S: s}) + Bind.
func ObserveBind[T, B any](s *Signal[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Observe[T]{S: s}), f)
}

// AcquireBind locks the task mutex and passes the guard to f. The
// continuation owns the guard and must release it exactly once.
// Fuses Perform(Acquire[T]{M: m}) + Bind.
func AcquireBind[T, B any](m *TaskMutex[T], f func(*TaskGuard[T]) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Acquire[T]{M: m}), f)
}

// WithLock locks the task mutex, applies f to the protected value, and
// releases before the continuation proceeds. The critical section is
// f's invocation only; the pointer must not escape it.
func WithLock[T, B any](m *TaskMutex[T], f func(*T) B) kont.Eff[B] {
	return kont.Bind(kont.Perform(Acquire[T]{M: m}), func(g *TaskGuard[T]) kont.Eff[B] {
		v := f(g.Value())
		g.Release()
		return kont.Pure(v)
	})
}

// SetEff performs a full suspending hand-off on the rendezvous channel:
// install the value, then wait until the receiver has acknowledged it.
// Resumes with false, without installing, when the channel is closed.
// Fuses Perform(Put) + Bind + Perform(Drain).
func SetEff[T any](c *Rendezvous[T], v T) kont.Eff[bool] {
	return kont.Bind(kont.Perform(Put[T]{C: c, Value: v}), func(ok bool) kont.Eff[bool] {
		if !ok {
			return kont.Pure(false)
		}
		return kont.Then(kont.Perform(Drain[T]{C: c}), kont.Pure(true))
	})
}

// CloseSendEff closes the rendezvous channel from the sending side as a
// suspending operation: pending data drains to the receiver before the
// quit marker lands. Perform(Shut) shorthand.
func CloseSendEff[T any](c *Rendezvous[T]) kont.Eff[struct{}] {
	return kont.Perform(Shut[T]{C: c})
}

// TakeBind borrows the next rendezvous value, applies f, and
// acknowledges with Done before the continuation proceeds. The borrow
// is valid for f's invocation only; the pointer must not escape it.
// f receives nil when the channel is closed (end of stream).
// Fuses Perform(Take[T]{R: r}) + Bind + Done.
func TakeBind[T, B any](r *Receiver[T], f func(*T) B) kont.Eff[B] {
	return kont.Bind(kont.Perform(Take[T]{R: r}), func(p *T) kont.Eff[B] {
		v := f(p)
		if p != nil {
			r.Done()
		}
		return kont.Pure(v)
	})
}

// ReadEff receives one frame from the bridged connection into buf.
// Perform(Read) shorthand; see ReadResult for the outcome contract.
func ReadEff(r *ConnReceiver, buf []byte) kont.Eff[ReadResult] {
	return kont.Perform(Read{R: r, Buf: buf})
}

// Loop runs a recursive protocol (Cont-world).
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// ExprLoop runs a recursive protocol (Expr-world).
// step returns Left(nextState) to continue or Right(result) to finish.
// Fuses ExprBind inline to avoid the type-erasing wrapper closure.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	m := step(initial)
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		if left, ok := m.Value.GetLeft(); ok {
			return ExprLoop(left, step)
		}
		right, _ := m.Value.GetRight()
		return kont.ExprReturn(right)
	}
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, A])
		if left, ok := e.GetLeft(); ok {
			result := ExprLoop(left, step)
			return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
		}
		right, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(right), Frame: kont.ReturnFrame{}}
	}
	bf.Next = kont.ReturnFrame{}
	var zero A
	return kont.Expr[A]{
		Value: zero,
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}
