// Package wire owns the channel framing of the exec stream protocol.
//
// Every transport message is exactly one frame: a single channel byte
// followed by the payload. Message boundaries come from the transport
// itself; the frame carries no length field of its own.
package wire

import (
	"errors"
	"fmt"
)

// Channel identifies the logical stream a frame belongs to.
type Channel byte

const (
	// ChannelStdin carries local input to the remote process (client → server only).
	ChannelStdin Channel = 0
	// ChannelStdout carries remote standard output (server → client).
	ChannelStdout Channel = 1
	// ChannelStderr carries remote standard error (server → client).
	ChannelStderr Channel = 2
	// ChannelStatus carries out-of-band error and status text (server → client).
	// Receivers route it to the same sink as ChannelStderr.
	ChannelStatus Channel = 3
)

var (
	// ErrShortFrame reports a transport message too short to carry a channel byte.
	ErrShortFrame = errors.New("wire: message shorter than one byte")

	// ErrUnknownChannel reports a channel byte outside the protocol.
	ErrUnknownChannel = errors.New("wire: unknown channel")
)

// Frame is one multiplexed unit of data tagged with its logical channel.
type Frame struct {
	Channel Channel
	Payload []byte
}

func (c Channel) String() string {
	switch c {
	case ChannelStdin:
		return "stdin"
	case ChannelStdout:
		return "stdout"
	case ChannelStderr:
		return "stderr"
	case ChannelStatus:
		return "status"
	default:
		return fmt.Sprintf("channel(%d)", byte(c))
	}
}

// Decode interprets one transport message as a frame. The returned payload
// aliases msg; callers that retain it past the transport callback must copy.
// An empty payload is valid and means the frame is a routing no-op.
func Decode(msg []byte) (Frame, error) {
	if len(msg) < 1 {
		return Frame{}, ErrShortFrame
	}
	ch := Channel(msg[0])
	switch ch {
	case ChannelStdin, ChannelStdout, ChannelStderr, ChannelStatus:
		return Frame{Channel: ch, Payload: msg[1:]}, nil
	default:
		return Frame{}, fmt.Errorf("%w %d", ErrUnknownChannel, msg[0])
	}
}

// EncodeStdin builds the outbound frame for one chunk of local input.
// Empty payloads are never sent: ok is false and no frame is produced.
// The returned slice is freshly allocated so the transport may retain it
// until the write completes.
func EncodeStdin(payload []byte) (msg []byte, ok bool) {
	if len(payload) == 0 {
		return nil, false
	}
	msg = make([]byte, 1+len(payload))
	msg[0] = byte(ChannelStdin)
	copy(msg[1:], payload)
	return msg, true
}
