// Package transport defines the connection contract an exec session is
// driven by, and implements it over a WebSocket.
//
// A transport delivers discrete binary messages reliably and in order,
// and invokes the listener's lifecycle callbacks strictly sequentially
// per connection: OnOpen first, then any interleaving of OnMessage and
// OnFailure, then at most one OnClose. Callbacks never run concurrently
// with each other.
package transport

import "errors"

// ErrConnClosed is returned by Send once the connection has been closed.
var ErrConnClosed = errors.New("transport: connection closed")

// Conn is the outbound half of a connection, handed to the listener on
// open. Send transmits one discrete message; framing and boundaries are
// the transport's business.
type Conn interface {
	Send(data []byte) error
}

// Listener receives the lifecycle events of one connection.
type Listener interface {
	// OnOpen reports that the connection is established and delivers
	// its outbound half.
	OnOpen(conn Conn)

	// OnMessage delivers one inbound message. The buffer is only valid
	// for the duration of the call.
	OnMessage(data []byte)

	// OnFailure reports a handshake or connection error. Failures after
	// OnOpen are operational; failures before it mean the connection
	// never became usable.
	OnFailure(err error)

	// OnClose reports that the connection finished, with the peer's
	// close code and reason when one was received.
	OnClose(code int, reason string)
}
