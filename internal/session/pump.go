package session

import (
	"bufio"
	"errors"
	"io"

	"github.com/steveyegge/warrig/internal/wire"
)

// pump forwards local input to the transport, one line per frame, until
// the input ends, an I/O error occurs, or Close asks it to stop. It
// runs as the session's only background goroutine, started on open.
// Lines are read with no length cap; a line is as long as memory allows.
func (s *Session) pump() {
	defer close(s.pumpDone)

	in := bufio.NewReader(s.in.Source())
	for {
		select {
		case <-s.pumpStop:
			return
		default:
		}

		line, err := in.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			// The error from the session revoking the pipe under us on
			// Close exits quietly. A partial line is dropped along with
			// the failed read.
			if !s.stopping() {
				s.log.Error("pumping local input", "err", err)
			}
			return
		}
		if len(line) > 0 && !s.forward(line) {
			return
		}
		if err != nil {
			// End of input, after forwarding any unterminated tail.
			return
		}
	}
}

// forward sends one line as a stdin frame, normalized to end in exactly
// one newline. It reports whether the pump can keep going.
func (s *Session) forward(line []byte) bool {
	if n := len(line); line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}

	msg, ok := wire.EncodeStdin(append(line, '\n'))
	if !ok {
		return true
	}

	handle := s.conn.Load()
	if handle == nil {
		// The session closed underneath us; nothing left to send to.
		return false
	}
	if err := handle.conn.Send(msg); err != nil {
		if !s.stopping() {
			s.log.Error("pumping local input", "err", err)
		}
		return false
	}
	return true
}

// stopping reports whether Close has asked the pump to stop.
func (s *Session) stopping() bool {
	select {
	case <-s.pumpStop:
		return true
	default:
		return false
	}
}
