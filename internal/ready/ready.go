// Package ready provides the single-shot readiness signal a session
// publishes exactly once: either "ready" or the setup error that kept it
// from ever becoming usable.
package ready

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotReady reports that nothing was published before the caller's
// context expired.
var ErrNotReady = errors.New("ready: session not ready")

// Gate is a single-assignment readiness signal. The first publish of
// either Ready or Fail wins; every later publish of either kind is
// ignored, so a transport failure arriving after a successful open
// cannot overwrite readiness. A Gate must not be copied after first use.
type Gate struct {
	once sync.Once
	done chan struct{}
	err  error // written before done closes; nil means ready
}

// NewGate returns an unpublished gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Ready publishes a successful setup. No-op if a value was already published.
func (g *Gate) Ready() {
	g.publish(nil)
}

// Fail publishes a setup failure with its cause. err must be non-nil.
// No-op if a value was already published.
func (g *Gate) Fail(err error) {
	g.publish(err)
}

func (g *Gate) publish(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// Wait blocks until a value is published or ctx is done. It returns nil
// once the gate holds ready, the captured cause once it holds a failure,
// and ErrNotReady wrapping the context error when ctx expires first.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		// Prefer a value that was published at the same instant.
		select {
		case <-g.done:
			return g.err
		default:
		}
		return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
	}
}
