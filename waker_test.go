// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rdv"
)

func TestMultiWakerWakeAllDrains(t *testing.T) {
	skipRace(t)
	mw := rdv.NewMultiWaker(4)

	fired := 0
	for i := 0; i < 4; i++ {
		if err := mw.Register(rdv.NewWaker(func() { fired++ })); err != nil {
			t.Fatalf("register %d failed: %v", i, err)
		}
	}

	mw.WakeAll()
	if fired != 4 {
		t.Fatalf("fired %d wakers, want 4", fired)
	}

	// The queue is drained: a second pass delivers nothing.
	mw.WakeAll()
	if fired != 4 {
		t.Fatalf("drained queue re-fired, count %d", fired)
	}
}

func TestMultiWakerOverflow(t *testing.T) {
	skipRace(t)
	mw := rdv.NewMultiWaker(2)

	registered := 0
	fired := 0
	for i := 0; i < 10; i++ {
		err := mw.Register(rdv.NewWaker(func() { fired++ }))
		if err == nil {
			registered++
			continue
		}
		if !iox.IsWouldBlock(err) {
			t.Fatalf("got %v, want ErrWouldBlock", err)
		}
	}
	if registered == 10 {
		t.Fatal("expected the bounded queue to refuse registrations")
	}

	// Only successfully registered handles ever fire; refused callers
	// receive no wake and must re-poll on their own.
	mw.WakeAll()
	if fired != registered {
		t.Fatalf("fired %d wakers, want %d", fired, registered)
	}
}
