// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"code.hybscloud.com/kont"
	"code.hybscloud.com/rdv"
)

// execExpr drives a protocol to completion via Step+Advance loop.
// Retries on iox.ErrWouldBlock (primitive not ready yet).
// Used by stepping tests to exercise the non-blocking path.
func execExpr[R any](protocol kont.Expr[R]) R {
	w := rdv.NewWaker(func() {})
	result, susp := rdv.Step[R](protocol)
	for susp != nil {
		var err error
		result, susp, err = rdv.Advance(susp, w)
		if err != nil {
			continue
		}
	}
	return result
}
