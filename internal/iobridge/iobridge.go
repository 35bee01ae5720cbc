// Package iobridge pairs the caller-facing end of each exec stream with
// the transport-facing end the session drives.
//
// Each bridge is built once, at session construction. A caller that
// supplies its own stream gets it used directly; otherwise the bridge
// creates an in-memory pipe and exposes the local end through Local.
// Either way nothing flows until Bind, which the session calls when the
// transport confirms open.
package iobridge

import (
	"errors"
	"io"
	"sync"
)

// ErrAlreadyBound reports a second Bind on the same bridge, which means
// the transport signaled open twice.
var ErrAlreadyBound = errors.New("iobridge: bridge already bound")

// Input bridges the caller's local input to the session's pump. The pump
// reads Source; the caller writes the supplied reader's other end, or the
// pipe writer returned by Local when no reader was supplied.
type Input struct {
	src   io.Reader
	pipeR *io.PipeReader // non-nil only when the pipe was created here
	pipeW *io.PipeWriter

	mu    sync.Mutex
	bound bool
}

// NewInput builds the input bridge. supplied may be nil, in which case an
// in-memory pipe backs the bridge.
func NewInput(supplied io.Reader) *Input {
	if supplied != nil {
		return &Input{src: supplied}
	}
	pr, pw := io.Pipe()
	return &Input{src: pr, pipeR: pr, pipeW: pw}
}

// Bind marks the bridge connected. It fails if the bridge is already
// bound.
func (b *Input) Bind() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound {
		return ErrAlreadyBound
	}
	b.bound = true
	return nil
}

// Source returns the end the pump reads from.
func (b *Input) Source() io.Reader {
	return b.src
}

// Local returns the caller's write end, or nil when the caller supplied
// its own input stream. Closing it signals end-of-input to the pump.
func (b *Input) Local() io.WriteCloser {
	if b.pipeW == nil {
		return nil
	}
	return b.pipeW
}

// Close tears down the internal read end of a lazily created pipe so a
// parked pump read resolves and any blocked local writer fails with
// cause. Supplied caller streams are left alone; the caller owns them.
func (b *Input) Close(cause error) {
	if b.pipeR != nil {
		b.pipeR.CloseWithError(cause)
	}
}

// Output bridges inbound frames to the caller's sink. The session writes
// decoded payloads; the caller reads the supplied writer's other end, or
// the pipe reader returned by Local when no writer was supplied.
type Output struct {
	supplied io.Writer
	pipeR    *io.PipeReader // non-nil only when the pipe was created here
	pipeW    *io.PipeWriter

	mu   sync.Mutex
	sink io.Writer // nil until Bind
}

// NewOutput builds the output bridge. supplied may be nil, in which case
// an in-memory pipe backs the bridge.
func NewOutput(supplied io.Writer) *Output {
	if supplied != nil {
		return &Output{supplied: supplied}
	}
	pr, pw := io.Pipe()
	return &Output{pipeR: pr, pipeW: pw}
}

// Bind connects the sink so Write forwards to it. It fails if the bridge
// is already bound.
func (b *Output) Bind() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sink != nil {
		return ErrAlreadyBound
	}
	if b.supplied != nil {
		b.sink = b.supplied
	} else {
		b.sink = b.pipeW
	}
	return nil
}

// Write forwards one inbound payload to the sink. Payloads arriving
// before Bind are dropped without error: the session only routes after
// open, so an unbound sink means nobody is interested in the channel.
// The sink write itself happens without holding the bridge lock.
func (b *Output) Write(p []byte) (int, error) {
	b.mu.Lock()
	w := b.sink
	b.mu.Unlock()
	if w == nil {
		return len(p), nil
	}
	return w.Write(p)
}

// Local returns the caller's read end, or nil when the caller supplied
// its own sink.
func (b *Output) Local() io.ReadCloser {
	if b.pipeR == nil {
		return nil
	}
	return b.pipeR
}

// Close tears down the internal write end of a lazily created pipe: a
// local reader drains what is buffered and then sees cause, or io.EOF
// when cause is nil. Supplied caller sinks are left alone.
func (b *Output) Close(cause error) {
	if b.pipeW != nil {
		b.pipeW.CloseWithError(cause)
	}
}
