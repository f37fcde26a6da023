// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Join runs two Cont-world protocols to completion on the calling
// goroutine, interleaving them with adaptive backoff (iox.Backoff)
// when neither side can make progress. Does not spawn goroutines or
// create channels. The protocols typically communicate through shared
// primitives (a Rendezvous pair, a Signal, a TaskMutex).
func Join[A, B any](a kont.Eff[A], b kont.Eff[B]) (A, B) {
	return JoinExpr(Reify(a), Reify(b))
}

// JoinExpr runs two Expr-world protocols to completion on the calling
// goroutine, interleaving them with adaptive backoff (iox.Backoff)
// when neither side can make progress. Does not spawn goroutines or
// create channels.
//
// The driver is poll-based: each side re-polls on its turn, so the
// registered wakers carry no wake obligation and are no-ops.
func JoinExpr[A, B any](a kont.Expr[A], b kont.Expr[B]) (A, B) {
	resultA, suspA := Step[A](a)
	resultB, suspB := Step[B](b)
	var wA, wB nopWaker
	var bo iox.Backoff

	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = Advance(suspA, &wA)
			if err == nil {
				progress = true
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = Advance(suspB, &wB)
			if err == nil {
				progress = true
			}
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return resultA, resultB
}
