package ready

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWaitAfterReady(t *testing.T) {
	t.Parallel()
	g := NewGate()
	g.Ready()

	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("Wait after Ready = %v, want nil", err)
	}
}

func TestWaitAfterFail(t *testing.T) {
	t.Parallel()
	cause := errors.New("handshake refused")
	g := NewGate()
	g.Fail(cause)

	if err := g.Wait(context.Background()); !errors.Is(err, cause) {
		t.Errorf("Wait after Fail = %v, want the published cause", err)
	}
}

func TestFirstPublishWins(t *testing.T) {
	t.Parallel()
	g := NewGate()
	g.Ready()
	g.Fail(errors.New("too late"))

	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("failure after ready overwrote the gate: %v", err)
	}

	g2 := NewGate()
	cause := errors.New("refused")
	g2.Fail(cause)
	g2.Ready()

	if err := g2.Wait(context.Background()); !errors.Is(err, cause) {
		t.Errorf("ready after failure overwrote the gate: %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	t.Parallel()
	g := NewGate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Wait on unpublished gate = %v, want ErrNotReady", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait timeout should carry the context error, got %v", err)
	}
}

func TestWaitUnblocksOnPublish(t *testing.T) {
	t.Parallel()
	g := NewGate()

	result := make(chan error, 1)
	go func() {
		result <- g.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	g.Ready()

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("blocked Wait = %v, want nil after Ready", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after publish")
	}
}

func TestConcurrentPublishers(t *testing.T) {
	t.Parallel()
	g := NewGate()
	cause := errors.New("setup failed")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Ready()
		}()
		go func() {
			defer wg.Done()
			g.Fail(cause)
		}()
	}
	wg.Wait()

	// Whichever publish won, every waiter observes the same value.
	first := g.Wait(context.Background())
	for i := 0; i < 4; i++ {
		if got := g.Wait(context.Background()); !errors.Is(got, first) && got != first {
			t.Errorf("Wait returned %v after first returned %v", got, first)
		}
	}
}
