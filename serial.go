// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing connection identifier. Raw
// transports that do not carry their own identifiers allocate one per
// connection with NextSerial.
type Serial = uint32

// counter is the global monotonic counter for connection serials.
var counter atomix.Uint32

// NextSerial returns the next monotonically increasing serial.
func NextSerial() Serial {
	return counter.Add(1)
}
