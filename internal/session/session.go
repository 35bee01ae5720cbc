// Package session implements the client endpoint of the channel
// protocol: it reacts to transport lifecycle events, routes decoded
// frames onto the caller's output streams, and pumps local input back
// out as stdin frames.
//
// A Session is the transport.Listener for exactly one connection. Hand
// it to the dialer and it drives itself from the connection's lifecycle
// events; the caller interacts through WaitReady, the stream accessors,
// and Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/warrig/internal/iobridge"
	"github.com/steveyegge/warrig/internal/ready"
	"github.com/steveyegge/warrig/internal/transport"
	"github.com/steveyegge/warrig/internal/wire"
)

// DefaultStopGrace bounds how long Close waits for the pump to finish
// before abandoning it.
const DefaultStopGrace = 10 * time.Second

// ErrClosed is the cause blocked stream operations resolve with once
// the session has been closed.
var ErrClosed = errors.New("session: session closed")

// Options configure a session. Streams the caller supplies are used
// directly; for each nil stream the session creates an in-memory pipe
// whose local end the matching accessor returns.
type Options struct {
	// Stdin is the local input source pumped to the remote command,
	// one line per frame.
	Stdin io.Reader

	// Stdout receives remote standard output.
	Stdout io.Writer

	// Stderr receives remote standard error. Status frames land here
	// too.
	Stderr io.Writer

	// Logger defaults to slog.Default. Every record carries a session
	// id attr so interleaved sessions stay separable.
	Logger *slog.Logger

	// StopGrace bounds how long Close waits for the pump to stop. Zero
	// means DefaultStopGrace.
	StopGrace time.Duration
}

// Session is the client endpoint of one exec channel.
type Session struct {
	log       *slog.Logger
	gate      *ready.Gate
	stopGrace time.Duration

	in     *iobridge.Input
	out    *iobridge.Output
	errOut *iobridge.Output

	// conn is written once on open, read by the pump on every send,
	// and cleared on close, so a send racing a close either no-ops or
	// fails cleanly.
	conn atomic.Pointer[connHandle]

	mu          sync.Mutex
	state       State
	pumpStarted bool

	pumpStop chan struct{}
	pumpDone chan struct{}

	closeOnce sync.Once
}

// connHandle boxes the conn interface so it fits an atomic.Pointer.
type connHandle struct {
	conn transport.Conn
}

// New builds a session around the caller's streams. The session starts
// out pending; it becomes usable once the transport reports open.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	grace := opts.StopGrace
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	return &Session{
		log:       logger.With("session", uuid.NewString()),
		gate:      ready.NewGate(),
		stopGrace: grace,
		in:        iobridge.NewInput(opts.Stdin),
		out:       iobridge.NewOutput(opts.Stdout),
		errOut:    iobridge.NewOutput(opts.Stderr),
		state:     StatePending,
		pumpStop:  make(chan struct{}),
		pumpDone:  make(chan struct{}),
	}
}

// WaitReady blocks until the transport confirms the session is open,
// setup fails, or ctx expires. It is the only synchronous confirmation
// that the session is usable.
func (s *Session) WaitReady(ctx context.Context) error {
	return s.gate.Wait(ctx)
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stdin returns the local write end of the input pipe, or nil when the
// caller supplied its own input stream. Closing it signals end of
// input to the pump.
func (s *Session) Stdin() io.WriteCloser {
	return s.in.Local()
}

// Stdout returns the local read end of the output pipe, or nil when
// the caller supplied its own output sink.
func (s *Session) Stdout() io.ReadCloser {
	return s.out.Local()
}

// Stderr returns the local read end of the error pipe, or nil when the
// caller supplied its own error sink.
func (s *Session) Stderr() io.ReadCloser {
	return s.errOut.Local()
}

// OnOpen implements transport.Listener. It connects the stream
// bridges, records the transport handle, starts the input pump, and
// publishes readiness. If a bridge cannot be bound, the failure is
// published instead and the pump never starts.
func (s *Session) OnOpen(conn transport.Conn) {
	_, acts := s.apply(event{kind: eventOpen})
	if !acts.bindAndStart {
		s.log.Warn("ignoring open event", "state", s.State())
		return
	}

	if err := s.bindBridges(); err != nil {
		err = fmt.Errorf("connecting stream bridges: %w", err)
		s.log.Error("session setup failed", "err", err)
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		s.gate.Fail(err)
		s.failBridges(err)
		return
	}

	s.mu.Lock()
	if s.state != StateOpen {
		// Close raced the open; nothing to start.
		s.mu.Unlock()
		return
	}
	s.conn.Store(&connHandle{conn: conn})
	s.pumpStarted = true
	s.mu.Unlock()

	go s.pump()

	s.gate.Ready()
	s.log.Debug("session open")
}

// OnMessage implements transport.Listener: decode one frame and route
// its payload. A malformed frame is logged and dropped; the session
// keeps running.
func (s *Session) OnMessage(data []byte) {
	frame, err := wire.Decode(data)
	if err != nil {
		s.log.Warn("dropping malformed frame", "err", err)
		return
	}
	if len(frame.Payload) == 0 {
		return
	}

	var sink *iobridge.Output
	switch frame.Channel {
	case wire.ChannelStdout:
		sink = s.out
	case wire.ChannelStderr, wire.ChannelStatus:
		sink = s.errOut
	default:
		// Stdin frames only travel client to server.
		s.log.Warn("dropping inbound frame", "channel", frame.Channel, "bytes", len(frame.Payload))
		return
	}

	if _, err := sink.Write(frame.Payload); err != nil {
		s.log.Error("writing inbound payload", "channel", frame.Channel, "err", err)
	}
}

// OnFailure implements transport.Listener. Failures are always logged;
// only a failure before the session opened reaches waiters, since a
// later one cannot retract an established session.
func (s *Session) OnFailure(err error) {
	s.log.Error("transport failure", "err", err)
	s.apply(event{kind: eventFailure, err: err})
}

// OnClose implements transport.Listener. After an open session closes,
// the sinks stay as-is: the caller owns its ends and may still drain
// them. The cause reaches ready-waiters only when the close lands
// before the session ever opened.
func (s *Session) OnClose(code int, reason string) {
	s.log.Debug("transport closed", "code", code, "reason", reason)
	s.apply(event{
		kind: eventClose,
		err:  fmt.Errorf("connection closed: code %d reason %q", code, reason),
	})
}

// Close shuts the session down: it signals the pump to stop, revokes
// the internal input end so a parked pump read resolves, waits up to
// the stop grace for the pump to finish, and releases the internal
// pipe ends. Streams the caller supplied stay untouched. Close is
// idempotent and safe to call concurrently with transport callbacks.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.apply(event{kind: eventClose, err: ErrClosed})

		// Unblock any ready-waiter. The gate ignores this when an
		// outcome was already published.
		s.gate.Fail(ErrClosed)

		close(s.pumpStop)
		s.in.Close(ErrClosed)

		s.mu.Lock()
		started := s.pumpStarted
		s.mu.Unlock()

		if started {
			select {
			case <-s.pumpDone:
			case <-time.After(s.stopGrace):
				// A read on a caller-supplied stream cannot be
				// interrupted. The goroutine is abandoned; it exits
				// with the next read or send.
				s.log.Warn("pump did not stop within grace period", "grace", s.stopGrace)
			}
		}

		s.conn.Store(nil)
		s.out.Close(nil)
		s.errOut.Close(nil)
		s.log.Debug("session closed")
	})
}

// apply runs one lifecycle event through the transition table and
// performs the returned effects, except bindAndStart, which OnOpen
// handles because it needs the conn. Transport callbacks arrive
// sequentially, but Close may run concurrently from the caller's
// goroutine, so the transition happens under the state lock; effects
// that touch I/O run outside it.
func (s *Session) apply(ev event) (State, actions) {
	s.mu.Lock()
	prev := s.state
	next, acts := transition(prev, ev)
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.log.Debug("session state changed", "from", prev, "to", next, "event", ev.kind)
	}

	if acts.publishFailure {
		s.gate.Fail(ev.err)
	}
	if acts.failBridges {
		s.failBridges(ev.err)
	}
	if acts.clearConn {
		s.conn.Store(nil)
	}
	return next, acts
}

func (s *Session) bindBridges() error {
	if err := s.in.Bind(); err != nil {
		return err
	}
	if err := s.out.Bind(); err != nil {
		return err
	}
	return s.errOut.Bind()
}

func (s *Session) failBridges(cause error) {
	s.in.Close(cause)
	s.out.Close(cause)
	s.errOut.Close(cause)
}
