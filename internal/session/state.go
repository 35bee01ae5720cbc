package session

import "fmt"

// State identifies where a session is in its lifecycle.
type State int

const (
	// StatePending means the transport has not confirmed open yet.
	StatePending State = iota
	// StateOpen means the transport is up and frames flow both ways.
	StateOpen
	// StateClosed means shutdown completed or was requested.
	StateClosed
	// StateFailed means setup failed before the session ever opened.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// eventKind is one lifecycle notification, local or from the transport.
type eventKind int

const (
	eventOpen eventKind = iota
	eventFailure
	eventClose
)

func (k eventKind) String() string {
	switch k {
	case eventOpen:
		return "open"
	case eventFailure:
		return "failure"
	case eventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// event carries a lifecycle notification into the transition table.
// err is the cause, set for failures and closes.
type event struct {
	kind eventKind
	err  error
}

// actions lists the effects the session must apply after a transition.
// The transition function itself performs none of them.
type actions struct {
	// bindAndStart connects the stream bridges, records the transport
	// handle, starts the input pump, and publishes readiness. When
	// binding fails the session publishes the failure instead and the
	// pump never starts.
	bindAndStart bool

	// publishFailure pushes the event's cause through the readiness
	// gate. The gate ignores it if an outcome was already published.
	publishFailure bool

	// failBridges tears down the internal pipe ends with the event's
	// cause so blocked local readers and writers resolve instead of
	// waiting on a session that will never open.
	failBridges bool

	// clearConn revokes the transport handle so later sends no-op.
	clearConn bool
}

// transition is the protocol state machine: given the current state and
// one lifecycle event, it returns the next state and the effects to
// apply. It is pure, so the protocol logic tests without a transport.
//
// Nothing leaves StateClosed or StateFailed.
func transition(s State, ev event) (State, actions) {
	switch s {
	case StatePending:
		switch ev.kind {
		case eventOpen:
			return StateOpen, actions{bindAndStart: true}
		case eventFailure:
			return StateFailed, actions{publishFailure: true, failBridges: true}
		case eventClose:
			// The connection ended before the session opened. Waiters
			// get the cause instead of hanging until their deadline.
			return StateClosed, actions{publishFailure: true, failBridges: true}
		}
	case StateOpen:
		switch ev.kind {
		case eventOpen:
			// Duplicate open from a misbehaving transport.
			return StateOpen, actions{}
		case eventFailure:
			// Post-open failures are operational, log-only.
			return StateOpen, actions{}
		case eventClose:
			// Sinks stay as-is; the caller still owns its ends.
			return StateClosed, actions{clearConn: true}
		}
	}
	return s, actions{}
}
