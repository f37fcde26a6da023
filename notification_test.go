// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/rdv"
)

func TestNotificationCoalesce(t *testing.T) {
	n := new(rdv.Notification)
	n.Notify()
	n.Notify()
	n.Notify()

	result := rdv.Exec(rdv.AwaitThen(n, kont.Pure("woken")))
	if result != "woken" {
		t.Fatalf("got %q, want %q", result, "woken")
	}
	if n.IsNotified() {
		t.Fatal("notification still pending after Await consumed it")
	}
}

func TestNotificationWakesParkedExecutor(t *testing.T) {
	n := new(rdv.Notification)
	done := make(chan int)
	go func() {
		done <- rdv.Exec(rdv.AwaitThen(n, kont.Pure(42)))
	}()

	n.Notify()
	if got := <-done; got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestNotificationPollRegistersWaker(t *testing.T) {
	n := new(rdv.Notification)
	fired := false
	w := rdv.NewWaker(func() { fired = true })

	_, susp := rdv.Step[struct{}](rdv.Reify(rdv.AwaitThen(n, kont.Pure(struct{}{}))))
	if susp == nil {
		t.Fatal("protocol completed without a pending notification")
	}
	_, susp, err := rdv.Advance(susp, w)
	if !iox.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}

	n.Notify()
	if !fired {
		t.Fatal("notify did not fire the registered waker")
	}
	_, susp, err = rdv.Advance(susp, w)
	if err != nil {
		t.Fatalf("advance after notify failed: %v", err)
	}
	if susp != nil {
		t.Fatal("protocol still suspended after notify")
	}
}

func TestNotificationResetDropsWaker(t *testing.T) {
	n := new(rdv.Notification)
	fired := false
	w := rdv.NewWaker(func() { fired = true })

	if err := n.Poll(w); !iox.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
	n.Reset()
	n.Notify()
	if fired {
		t.Fatal("reset did not drop the registered waker")
	}
	if !n.IsNotified() {
		t.Fatal("notify after reset lost the flag")
	}
}
