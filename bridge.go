// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"github.com/joeycumines/logiface"
)

// FrameType classifies a bridged frame.
type FrameType uint8

const (
	FrameText FrameType = iota
	FrameBinary
	FrameContinuation
	FramePing
	FramePong
	FrameClose
)

// String implements fmt.Stringer.
func (ft FrameType) String() string {
	switch ft {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameContinuation:
		return "continuation"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return "unknown"
	}
}

// RawConn is one event on the transport's loop: a connection in a
// particular lifecycle position. The same Serial recurs across events
// for one logical connection. Recv is only legal for an event that is
// neither new nor closed, and must be called exactly once for it.
type RawConn interface {
	Session() Serial
	IsNew() bool
	IsClosed() bool
	Recv(buf []byte) (FrameType, int, error)
	Sender() FrameSender
}

// FrameSender transmits frames on one connection. Implementations
// decide their own thread-safety; senders that are only callable on the
// transport loop are paired with an Unblocker (see ConnSender).
type FrameSender interface {
	Session() Serial
	Send(ft FrameType, data []byte) error
}

// Unblocker schedules f onto the transport's loop. Used by ConnSender
// to marshal sends from protocol goroutines onto loop-only senders.
type Unblocker interface {
	Unblock(f func())
}

type recvKind uint8

const (
	recvNone recvKind = iota
	recvMetadata
	recvBuffer
	recvCopied
	recvClosed
)

// recvState is the per-connection hand-off cell between the processor
// pump and the application receiver. One frame at a time:
//
//	None → Metadata(ft, n) → Buffer(app buf) → Copied → None
//
// The pump installs Metadata and then holds the payload (in its scratch
// buffer) until the application stages a destination buffer; the pump
// copies and marks Copied; the application consumes and resets to None.
// Closed is terminal and reachable from every state.
type recvState struct {
	kind  recvKind
	ft    FrameType
	n     int
	buf   []byte
	waker Waker
}

type connShared struct {
	state *Lock[recvState]
	cond  *Condition[recvState]
}

func newConnShared() *connShared {
	s := &connShared{}
	s.state = NewLock(NewStdLock(), recvState{})
	s.cond = NewCondition(s.state)
	return s
}

type acceptKind uint8

const (
	acceptNone acceptKind = iota
	acceptConn
	acceptClosed
)

// acceptState is the single-slot hand-off between the processor pump
// and the Acceptor: at most one new connection is in flight at a time,
// and the pump blocks until the application accepts it.
type acceptState struct {
	kind   acceptKind
	shared *connShared
	sender FrameSender
	waker  Waker
}

const (
	defaultMaxConnections = 8
	defaultBufferSize     = 4096
)

// ProcessorConfig configures a Processor/Acceptor pair. The zero value
// is usable: defaults fill in, the sender path runs inline, and logging
// is disabled.
type ProcessorConfig struct {
	// MaxConnections caps concurrently bridged connections. A new
	// connection past the cap is refused with a close frame.
	MaxConnections int

	// BufferSize is the pump's receive scratch size; it bounds the
	// largest frame payload the bridge can carry.
	BufferSize int

	// Unblocker, when set, marshals ConnSender.SendEff sends onto the
	// transport loop. Nil means senders are callable from anywhere.
	Unblocker Unblocker

	// Logger receives connection lifecycle events. Nil disables logging.
	Logger *logiface.Logger[logiface.Event]
}

// Processor is the transport-side half of the bridge. The transport's
// event loop feeds every connection event into Process; the Acceptor
// half hands accepted connections to protocol code as Conn values with
// suspending receive and send.
//
// Process is single-caller: all invocations must come from one
// goroutine (the transport loop).
type Processor struct {
	maxConns int
	scratch  []byte
	unblock  Unblocker
	logger   *logiface.Logger[logiface.Event]

	accept     *Lock[acceptState]
	acceptCond *Condition[acceptState]

	conns map[Serial]*connShared
}

// NewProcessor returns a connected Processor/Acceptor pair.
// Process and Close share unsynchronized connection state and must run
// on one goroutine (the transport loop); Acceptor methods are safe
// from any goroutine.
func NewProcessor(cfg ProcessorConfig) (*Processor, *Acceptor) {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	p := &Processor{
		maxConns: cfg.MaxConnections,
		scratch:  make([]byte, cfg.BufferSize),
		unblock:  cfg.Unblocker,
		logger:   cfg.Logger,
		conns:    make(map[Serial]*connShared, cfg.MaxConnections),
	}
	p.accept = NewLock(NewStdLock(), acceptState{})
	p.acceptCond = NewCondition(p.accept)

	a := &Acceptor{
		accept:     p.accept,
		acceptCond: p.acceptCond,
		unblock:    cfg.Unblocker,
		logger:     cfg.Logger,
	}
	return p, a
}

// Process bridges one transport event. New connections block until the
// Acceptor picks them up, data frames block until the application has
// consumed the payload, closed connections tear down their receiver.
// Returns ErrClosed once the bridge has been shut down.
func (p *Processor) Process(conn RawConn) error {
	switch {
	case conn.IsNew():
		return p.processAccept(conn)
	case conn.IsClosed():
		return p.processClose(conn)
	default:
		return p.processData(conn)
	}
}

func (p *Processor) processAccept(conn RawConn) error {
	serial := conn.Session()
	if _, ok := p.conns[serial]; ok {
		return nil
	}
	if len(p.conns) >= p.maxConns {
		p.logger.Warning().
			Uint64("session", uint64(serial)).
			Int("limit", p.maxConns).
			Log("connection refused: bridge full")
		return conn.Sender().Send(FrameClose, nil)
	}

	shared := newConnShared()
	sender := conn.Sender()

	g := p.accept.Lock()
	st := g.Value()
	for st.kind == acceptConn {
		p.acceptCond.Wait(&g)
	}
	if st.kind == acceptClosed {
		g.Release()
		return ErrClosed
	}
	st.kind = acceptConn
	st.shared = shared
	st.sender = sender
	w := st.waker
	st.waker = nil
	p.acceptCond.NotifyAll()
	g.Release()
	if w != nil {
		w.Wake()
	}

	// Block until the handoff completes, so at most one pending accept
	// exists and refusal accounting stays exact.
	g = p.accept.Lock()
	st = g.Value()
	for st.kind == acceptConn {
		p.acceptCond.Wait(&g)
	}
	closed := st.kind == acceptClosed
	g.Release()
	if closed {
		return ErrClosed
	}

	p.conns[serial] = shared
	p.logger.Info().
		Uint64("session", uint64(serial)).
		Int("connections", len(p.conns)).
		Log("connection accepted")
	return nil
}

func (p *Processor) processClose(conn RawConn) error {
	serial := conn.Session()
	shared, ok := p.conns[serial]
	if !ok {
		return nil
	}
	delete(p.conns, serial)
	closeShared(shared)
	p.logger.Info().
		Uint64("session", uint64(serial)).
		Int("connections", len(p.conns)).
		Log("connection closed")
	return nil
}

func (p *Processor) processData(conn RawConn) error {
	serial := conn.Session()
	shared, ok := p.conns[serial]

	// Drain the frame even when nobody is listening: the transport
	// event must be consumed.
	ft, n, err := conn.Recv(p.scratch)
	if err != nil {
		p.logger.Err().
			Uint64("session", uint64(serial)).
			Err(err).
			Log("frame receive failed")
		return err
	}
	if !ok {
		p.logger.Warning().
			Uint64("session", uint64(serial)).
			Log("frame for unknown connection dropped")
		return nil
	}
	p.processReceive(shared, ft, p.scratch[:n])
	return nil
}

// processReceive runs the frame hand-off state machine from the pump
// side. It returns only when the payload no longer aliases the pump's
// scratch buffer: copied out, or the receiver is gone.
func (p *Processor) processReceive(shared *connShared, ft FrameType, payload []byte) {
	g := shared.state.Lock()
	st := g.Value()
	for st.kind != recvNone {
		if st.kind == recvClosed {
			g.Release()
			return
		}
		shared.cond.Wait(&g)
	}
	st.kind = recvMetadata
	st.ft = ft
	st.n = len(payload)
	w := st.waker
	st.waker = nil
	g.Release()
	if w != nil {
		w.Wake()
	}

	g = shared.state.Lock()
	st = g.Value()
	for {
		switch st.kind {
		case recvBuffer:
			copy(st.buf, payload)
			st.buf = nil
			st.kind = recvCopied
			w := st.waker
			st.waker = nil
			shared.cond.NotifyAll()
			g.Release()
			if w != nil {
				w.Wake()
			}
			return
		case recvMetadata:
			// Receiver has not staged a buffer yet; short-buffer
			// retries also pass through here.
			shared.cond.Wait(&g)
		default:
			// Copied, None or Closed: the payload is no longer needed.
			g.Release()
			return
		}
	}
}

// Close shuts the bridge down: the acceptor sees ErrClosed, every
// bridged receiver observes end of stream, and further Process calls
// that need the accept slot fail with ErrClosed. Close shares the
// connection table with Process and must run on the same goroutine.
func (p *Processor) Close() {
	g := p.accept.Lock()
	st := g.Value()
	st.kind = acceptClosed
	st.shared = nil
	st.sender = nil
	w := st.waker
	st.waker = nil
	p.acceptCond.NotifyAll()
	g.Release()
	if w != nil {
		w.Wake()
	}

	for serial, shared := range p.conns {
		delete(p.conns, serial)
		closeShared(shared)
	}
	p.logger.Info().Log("bridge closed")
}

func closeShared(shared *connShared) {
	g := shared.state.Lock()
	st := g.Value()
	st.kind = recvClosed
	st.buf = nil
	w := st.waker
	st.waker = nil
	shared.cond.NotifyAll()
	g.Release()
	if w != nil {
		w.Wake()
	}
}
