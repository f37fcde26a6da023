// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"github.com/joeycumines/logiface"
)

// Acceptor is the application-side half of the bridge: it yields one
// Conn per transport connection the Processor admits.
type Acceptor struct {
	accept     *Lock[acceptState]
	acceptCond *Condition[acceptState]
	unblock    Unblocker
	logger     *logiface.Logger[logiface.Event]
}

// PollAccept takes the pending connection if one is in the hand-off
// slot. With no connection pending it registers w and returns
// iox.ErrWouldBlock; once the bridge is shut down it returns ErrClosed.
func (a *Acceptor) PollAccept(w Waker) (*Conn, error) {
	g := a.accept.Lock()
	st := g.Value()
	switch st.kind {
	case acceptConn:
		shared := st.shared
		sender := st.sender
		st.kind = acceptNone
		st.shared = nil
		st.sender = nil
		st.waker = nil
		a.acceptCond.NotifyAll()
		g.Release()
		return a.newConn(shared, sender), nil
	case acceptClosed:
		g.Release()
		return nil, ErrClosed
	default:
		st.waker = w
		g.Release()
		return nil, iox.ErrWouldBlock
	}
}

// Accept blocks until a connection arrives or the bridge shuts down.
func (a *Acceptor) Accept() (*Conn, error) {
	p := newParkWaker()
	for {
		conn, err := a.PollAccept(p)
		if err == nil {
			return conn, nil
		}
		if !iox.IsWouldBlock(err) {
			return nil, err
		}
		p.park()
	}
}

func (a *Acceptor) newConn(shared *connShared, sender FrameSender) *Conn {
	serial := sender.Session()
	return &Conn{
		Serial: serial,
		Sender: &ConnSender{
			serial:  serial,
			raw:     sender,
			unblock: a.unblock,
			logger:  a.logger,
		},
		Receiver: &ConnReceiver{
			serial: serial,
			shared: shared,
		},
	}
}

// AwaitAccept is the effect operation for accepting the next bridged
// connection. Resumes with nil once the bridge is shut down.
type AwaitAccept struct {
	kont.Phantom[*Conn]
	A *Acceptor
}

// DispatchAwait polls the acceptor, registering w while no connection
// is pending.
func (a AwaitAccept) DispatchAwait(w Waker) (kont.Resumed, error) {
	conn, err := a.A.PollAccept(w)
	if err != nil {
		if err == ErrClosed {
			return (*Conn)(nil), nil
		}
		return nil, err
	}
	return conn, nil
}

// AcceptBind accepts the next bridged connection and passes it to f.
// f receives nil once the bridge is shut down.
// Fuses Perform(AwaitAccept{A: a}) + Bind.
func AcceptBind[B any](a *Acceptor, f func(*Conn) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(AwaitAccept{A: a}), f)
}

// Conn is one bridged connection as seen by protocol code.
type Conn struct {
	Serial   Serial
	Sender   *ConnSender
	Receiver *ConnReceiver
}

// ConnReceiver is the receiving side of a bridged connection. One frame
// is in flight at a time; the payload travels pump scratch → caller
// buffer in a single copy.
type ConnReceiver struct {
	serial Serial
	shared *connShared
}

// PollRecv drives the frame hand-off from the receiving side. Outcomes:
//
//   - (ft, n, nil): one frame copied into buf[:n].
//   - (FrameClose, 0, nil): end of stream.
//   - (ft, need, ErrShortBuffer): buf is smaller than the pending
//     payload; the frame stays pending and a retry with len(buf) >= need
//     succeeds.
//   - (0, 0, iox.ErrWouldBlock): nothing pending or copy in flight;
//     w is registered and fires when a retry can progress.
func (r *ConnReceiver) PollRecv(buf []byte, w Waker) (FrameType, int, error) {
	shared := r.shared
	g := shared.state.Lock()
	st := g.Value()
	switch st.kind {
	case recvMetadata:
		if len(buf) < st.n {
			ft, need := st.ft, st.n
			g.Release()
			return ft, need, ErrShortBuffer
		}
		st.kind = recvBuffer
		st.buf = buf
		st.waker = w
		shared.cond.NotifyAll()
		g.Release()
		return 0, 0, iox.ErrWouldBlock
	case recvCopied:
		ft, n := st.ft, st.n
		st.kind = recvNone
		st.ft = 0
		st.n = 0
		st.waker = nil
		shared.cond.NotifyAll()
		g.Release()
		return ft, n, nil
	case recvClosed:
		g.Release()
		return FrameClose, 0, nil
	default: // recvNone or recvBuffer
		st.waker = w
		g.Release()
		return 0, 0, iox.ErrWouldBlock
	}
}

// Recv blocks until one frame is received into buf, the stream ends
// (FrameClose, 0, nil), or buf proves too small (ErrShortBuffer).
func (r *ConnReceiver) Recv(buf []byte) (FrameType, int, error) {
	p := newParkWaker()
	for {
		ft, n, err := r.PollRecv(buf, p)
		if err == nil || !iox.IsWouldBlock(err) {
			return ft, n, err
		}
		p.park()
	}
}

// Close abandons the receiving side. The pump is released if it is
// mid-hand-off and subsequent frames for this connection are dropped.
// Close does not transmit anything; send a close frame first if the
// peer should know.
func (r *ConnReceiver) Close() {
	closeShared(r.shared)
}

// ConnSender is the sending side of a bridged connection.
type ConnSender struct {
	serial  Serial
	raw     FrameSender
	unblock Unblocker
	logger  *logiface.Logger[logiface.Event]
}

// Session returns the connection's serial.
func (s *ConnSender) Session() Serial {
	return s.serial
}

// Send transmits one frame. Without an Unblocker the underlying sender
// is invoked directly and must tolerate the calling goroutine; with one
// the send is marshaled onto the transport loop and Send blocks for
// the outcome.
func (s *ConnSender) Send(ft FrameType, data []byte) error {
	if s.unblock == nil {
		return s.raw.Send(ft, data)
	}
	return Exec(s.SendEff(ft, data))
}

// SendEff transmits one frame as a suspending operation, resuming with
// the transmit outcome. With an Unblocker configured the payload is
// cloned, the send runs on the transport loop, and completion arrives
// through a Signal; otherwise the send happens inline at construction.
func (s *ConnSender) SendEff(ft FrameType, data []byte) kont.Eff[error] {
	if s.unblock == nil {
		return kont.Pure(s.raw.Send(ft, data))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	done := NewSignal[error]()
	s.unblock.Unblock(func() {
		err := s.raw.Send(ft, buf)
		if err != nil {
			s.logger.Err().
				Uint64("session", uint64(s.serial)).
				Err(err).
				Log("frame send failed")
		}
		done.Signal(err)
	})
	return kont.Perform(Observe[error]{S: done})
}
