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

func TestTaskMutexTryLock(t *testing.T) {
	m := rdv.NewTaskMutex(0)

	g, err := m.TryLock()
	if err != nil {
		t.Fatalf("try lock on free mutex failed: %v", err)
	}
	if _, err := m.TryLock(); !iox.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}

	*g.Value() = 7
	g.Release()

	g2, err := m.TryLock()
	if err != nil {
		t.Fatalf("try lock after release failed: %v", err)
	}
	if *g2.Value() != 7 {
		t.Fatalf("got %d, want 7", *g2.Value())
	}
	g2.Release()
}

func TestTaskMutexReleaseWakesWaiter(t *testing.T) {
	skipRace(t)
	m := rdv.NewTaskMutex(0)

	g, err := m.TryLock()
	if err != nil {
		t.Fatalf("try lock failed: %v", err)
	}

	fired := false
	w := rdv.NewWaker(func() { fired = true })
	if _, err := m.PollLock(w); !iox.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}

	g.Release()
	if !fired {
		t.Fatal("release did not fire the registered waker")
	}

	g2, err := m.PollLock(w)
	if err != nil {
		t.Fatalf("poll lock after release failed: %v", err)
	}
	g2.Release()
}

func TestTaskMutexReleaseWakesAllWaiters(t *testing.T) {
	skipRace(t)
	m := rdv.NewTaskMutex(0)

	g, err := m.TryLock()
	if err != nil {
		t.Fatalf("try lock failed: %v", err)
	}

	var fired [3]bool
	for i := range fired {
		w := rdv.NewWaker(func() { fired[i] = true })
		if _, err := m.PollLock(w); !iox.IsWouldBlock(err) {
			t.Fatalf("got %v, want ErrWouldBlock", err)
		}
	}

	g.Release()
	for i, f := range fired {
		if !f {
			t.Fatalf("waiter %d not woken by release", i)
		}
	}
}

// TestTaskMutexWakerDrivenContention drives contending acquisitions
// purely by waker delivery: each worker parks on its own channel and
// only re-polls when its registered waker fires. A wake lost on the
// release path leaves a worker parked forever, so the test hangs
// instead of passing.
func TestTaskMutexWakerDrivenContention(t *testing.T) {
	skipRace(t)
	m := rdv.NewTaskMutex(0)
	const workers, rounds = 4, 200

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			wake := make(chan struct{}, 1)
			w := rdv.NewWaker(func() {
				select {
				case wake <- struct{}{}:
				default:
				}
			})
			for j := 0; j < rounds; j++ {
				_, susp := rdv.Step[int](rdv.ExprWithLock(m, func(n *int) int {
					*n++
					return *n
				}))
				for susp != nil {
					var err error
					_, susp, err = rdv.Advance(susp, w)
					if err != nil {
						<-wake
					}
				}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	got := rdv.Exec(rdv.WithLock(m, func(n *int) int { return *n }))
	if got != workers*rounds {
		t.Fatalf("got %d, want %d", got, workers*rounds)
	}
}

func TestTaskMutexCounter(t *testing.T) {
	skipRace(t)
	m := rdv.NewTaskMutex(0)
	const workers, rounds = 8, 1000

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for j := 0; j < rounds; j++ {
				rdv.Exec(rdv.WithLock(m, func(n *int) struct{} {
					*n++
					return struct{}{}
				}))
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	got := rdv.Exec(rdv.WithLock(m, func(n *int) int { return *n }))
	if got != workers*rounds {
		t.Fatalf("got %d, want %d", got, workers*rounds)
	}
}

func TestTaskGuardDoubleReleasePanics(t *testing.T) {
	m := rdv.NewTaskMutex(0)
	g, err := m.TryLock()
	if err != nil {
		t.Fatalf("try lock failed: %v", err)
	}
	g.Release()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for double release")
		}
		msg, ok := r.(string)
		if !ok || msg != "rdv: task mutex guard released twice" {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	g.Release()
}

func TestTaskMutexAcquireBindOwnsGuard(t *testing.T) {
	skipRace(t)
	m := rdv.NewTaskMutex("initial")

	got := rdv.Exec(rdv.AcquireBind(m, func(g *rdv.TaskGuard[string]) kont.Eff[string] {
		*g.Value() = "updated"
		v := *g.Value()
		g.Release()
		return kont.Pure(v)
	}))
	if got != "updated" {
		t.Fatalf("got %q, want %q", got, "updated")
	}

	if _, err := m.TryLock(); err != nil {
		t.Fatalf("mutex still held after guard release: %v", err)
	}
}
