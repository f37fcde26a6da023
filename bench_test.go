// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/rdv"
)

// BenchmarkNotificationRoundTrip measures notify + suspended await.
func BenchmarkNotificationRoundTrip(b *testing.B) {
	b.ReportAllocs()
	n := new(rdv.Notification)
	for b.Loop() {
		n.Notify()
		rdv.Exec(rdv.AwaitThen(n, kont.Pure(struct{}{})))
	}
}

// BenchmarkSignalRoundTrip measures signal + suspended observe.
func BenchmarkSignalRoundTrip(b *testing.B) {
	b.ReportAllocs()
	s := rdv.NewSignal[int]()
	for b.Loop() {
		s.Signal(42)
		rdv.Exec(rdv.ObserveBind(s, func(v int) kont.Eff[int] {
			return kont.Pure(v)
		}))
	}
}

// BenchmarkTaskMutexUncontended measures the free-path lock cycle.
func BenchmarkTaskMutexUncontended(b *testing.B) {
	b.ReportAllocs()
	m := rdv.NewTaskMutex(0)
	for b.Loop() {
		rdv.Exec(rdv.WithLock(m, func(n *int) struct{} {
			*n++
			return struct{}{}
		}))
	}
}

// BenchmarkExprWithLock measures the Expr-world free-path lock cycle.
func BenchmarkExprWithLock(b *testing.B) {
	b.ReportAllocs()
	m := rdv.NewTaskMutex(0)
	for b.Loop() {
		execExpr(rdv.ExprWithLock(m, func(n *int) int {
			*n++
			return *n
		}))
	}
}

// BenchmarkRendezvousHandoff measures a full single-goroutine hand-off.
func BenchmarkRendezvousHandoff(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		ch, r := rdv.NewRendezvous[int]()
		rdv.JoinExpr(
			rdv.ExprSetEff(ch, 42),
			rdv.ExprTakeBind(r, func(p *int) int {
				if p == nil {
					return -1
				}
				return *p
			}),
		)
	}
}

// BenchmarkRendezvousBlocking measures a cross-goroutine hand-off.
func BenchmarkRendezvousBlocking(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		ch, r := rdv.NewRendezvous[int]()
		done := make(chan struct{})
		go func() {
			ch.Set(1)
			ch.CloseSend()
			close(done)
		}()
		for {
			p := r.Get()
			if p == nil {
				break
			}
			r.Done()
		}
		<-done
	}
}

// BenchmarkStepAdvance measures stepping a protocol via Step+Advance.
func BenchmarkStepAdvance(b *testing.B) {
	b.ReportAllocs()
	n := new(rdv.Notification)
	w := rdv.NewWaker(func() {})
	for b.Loop() {
		n.Notify()
		_, susp := rdv.Step[struct{}](rdv.ExprAwaitThen(n, kont.ExprReturn(struct{}{})))
		for susp != nil {
			var err error
			_, susp, err = rdv.Advance(susp, w)
			if err != nil {
				continue
			}
		}
	}
}

// BenchmarkBridgeFrame measures one frame through the processor pump.
func BenchmarkBridgeFrame(b *testing.B) {
	b.ReportAllocs()
	p, a := rdv.NewProcessor(rdv.ProcessorConfig{})
	fc := newFakeConn()

	accepted := make(chan *rdv.Conn, 1)
	go func() {
		conn, _ := a.Accept()
		accepted <- conn
	}()
	if err := p.Process(fc.open()); err != nil {
		b.Fatalf("open failed: %v", err)
	}
	conn := <-accepted

	payload := []byte("payload")
	buf := make([]byte, 16)
	for b.Loop() {
		done := make(chan struct{})
		go func() {
			p.Process(fc.frame(rdv.FrameText, payload))
			close(done)
		}()
		if _, _, err := conn.Receiver.Recv(buf); err != nil {
			b.Fatalf("recv failed: %v", err)
		}
		<-done
	}
}
