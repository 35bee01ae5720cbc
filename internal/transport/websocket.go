package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocol names spoken by pod exec endpoints. V4 carries exit
// detail on the status channel; V1 is the original framing.
const (
	ProtocolV4 = "v4.channel.k8s.io"
	ProtocolV1 = "channel.k8s.io"
)

// DefaultHandshakeTimeout bounds the dial when the caller does not.
const DefaultHandshakeTimeout = 10 * time.Second

// closeGrace bounds how long Close waits for the read loop to drain.
const closeGrace = 5 * time.Second

// DialOptions carries everything beyond the URL a dial needs.
type DialOptions struct {
	// Header is sent with the handshake request, typically bearer
	// credentials.
	Header http.Header

	// TLSConfig applies to wss URLs. Nil means default verification.
	TLSConfig *tls.Config

	// Subprotocols to offer, most preferred first. Empty offers the
	// channel protocol versions.
	Subprotocols []string

	// HandshakeTimeout bounds the dial. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	Logger *slog.Logger
}

// WebSocket drives a Listener from one websocket connection. It
// satisfies Conn for the outbound direction.
type WebSocket struct {
	conn *websocket.Conn
	log  *slog.Logger

	// writeMu serializes message writers; gorilla permits only one at a
	// time. Close stays off it: gorilla allows Close and WriteControl
	// alongside a writer, and Close must still run while a Send is
	// parked on a peer that stopped reading.
	writeMu   sync.Mutex
	closeOnce sync.Once

	// closed is closed when Close begins. It gates Send without
	// queueing behind a blocked write.
	closed chan struct{}

	done chan struct{}
}

// Dial connects to url and starts delivering lifecycle events to
// listener. On handshake failure the error is reported through
// OnFailure and also returned. On success OnOpen has already run when
// Dial returns, and a single goroutine delivers every later event, so
// the listener never sees two callbacks at once.
func Dial(ctx context.Context, url string, opts DialOptions, listener Listener) (*WebSocket, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	subs := opts.Subprotocols
	if len(subs) == 0 {
		subs = []string{ProtocolV4, ProtocolV1}
	}
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
		TLSClientConfig:  opts.TLSConfig,
		Subprotocols:     subs,
	}

	conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("dialing exec endpoint: %w (%s)", err, resp.Status)
		} else {
			err = fmt.Errorf("dialing exec endpoint: %w", err)
		}
		listener.OnFailure(err)
		return nil, err
	}

	ws := &WebSocket{
		conn:   conn,
		log:    logger,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	logger.Debug("websocket connected", "subprotocol", conn.Subprotocol())

	listener.OnOpen(ws)
	go ws.readLoop(listener)
	return ws, nil
}

// Subprotocol reports the protocol version the server selected.
func (t *WebSocket) Subprotocol() string {
	return t.conn.Subprotocol()
}

// Send transmits one binary message. It returns ErrConnClosed once
// Close has begun.
func (t *WebSocket) Send(data []byte) error {
	if t.isClosed() {
		return ErrConnClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		if t.isClosed() {
			// Close tore the socket down under this write.
			return ErrConnClosed
		}
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Close sends a close frame (bounded by a write deadline), tears the
// socket down, and waits briefly for the read loop to drain. It does
// not wait for an in-flight Send; closing the socket is what resolves
// one parked on a dead peer. Safe to call more than once.
func (t *WebSocket) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		// Best effort: the peer may already be gone, or a stalled Send
		// may have the socket jammed until the deadline.
		_ = t.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
		err = t.conn.Close()
	})

	select {
	case <-t.done:
	case <-time.After(closeGrace):
		t.log.Warn("read loop did not drain before close grace expired")
	}
	return err
}

// Done returns a channel that is closed once the connection stops
// delivering events, whichever side initiated the shutdown.
func (t *WebSocket) Done() <-chan struct{} {
	return t.done
}

// readLoop pulls inbound messages until the connection ends, delivering
// every event from this one goroutine.
func (t *WebSocket) readLoop(listener Listener) {
	defer close(t.done)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			switch {
			case t.isClosed():
				// Local Close tore the socket down mid-read.
				listener.OnClose(websocket.CloseNormalClosure, "")
			case errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure:
				// The peer sent a close frame. 1006 is never on the
				// wire; gorilla synthesizes it when the connection dies
				// without one, which is the abnormal case below.
				t.log.Debug("websocket closed by peer", "code", ce.Code, "reason", ce.Text)
				listener.OnClose(ce.Code, ce.Text)
			default:
				t.log.Debug("websocket terminated", "err", err)
				listener.OnFailure(fmt.Errorf("reading message: %w", err))
				listener.OnClose(websocket.CloseAbnormalClosure, err.Error())
			}
			return
		}
		listener.OnMessage(data)
	}
}

func (t *WebSocket) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}
