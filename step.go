// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a protocol until the first suspend point.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](protocol kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(protocol)
}

// Advance polls the suspended operation with w as the resumption
// handle. DispatchAwait is non-blocking: it returns iox.ErrWouldBlock
// when the underlying primitive cannot make progress yet.
//
// On success (nil error), the suspension is consumed and the protocol
// advances to the next suspend point or completion.
// On iox.ErrWouldBlock, the suspension is unconsumed; w has been
// registered and fires when a retry can succeed.
func Advance[R any](susp *kont.Suspension[R], w Waker) (R, *kont.Suspension[R], error) {
	aop, ok := susp.Op().(awaitDispatcher)
	if !ok {
		panic("rdv: unhandled effect in Advance")
	}
	v, err := aop.DispatchAwait(w)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
