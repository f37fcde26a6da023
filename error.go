// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"errors"
)

var (
	// ErrClosed reports an operation on a channel or connection whose
	// peer has already shut down. Terminal: retrying cannot succeed.
	ErrClosed = errors.New("rdv: closed")

	// ErrShortBuffer reports a receive buffer smaller than the pending
	// frame payload. Recoverable: the frame stays pending and the same
	// receive succeeds with a buffer of at least the returned size.
	ErrShortBuffer = errors.New("rdv: short buffer")
)
