package iobridge

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestInputSuppliedStreamUsedDirectly(t *testing.T) {
	t.Parallel()
	src := strings.NewReader("typed input\n")
	b := NewInput(src)

	if b.Local() != nil {
		t.Error("Local() should be nil when the caller supplied its own reader")
	}
	if got, _ := bufio.NewReader(b.Source()).ReadString('\n'); got != "typed input\n" {
		t.Errorf("Source read %q, want the supplied stream's content", got)
	}
}

func TestInputLazyPipe(t *testing.T) {
	t.Parallel()
	b := NewInput(nil)

	local := b.Local()
	if local == nil {
		t.Fatal("Local() should return the pipe write end when no reader was supplied")
	}

	go func() {
		local.Write([]byte("hello\n"))
		local.Close()
	}()

	data, err := io.ReadAll(b.Source())
	if err != nil {
		t.Fatalf("reading pump end: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("pump end read %q, want %q", data, "hello\n")
	}
}

func TestInputCloseFailsBlockedWriter(t *testing.T) {
	t.Parallel()
	b := NewInput(nil)
	cause := errors.New("session torn down")

	wrote := make(chan error, 1)
	go func() {
		// Nothing reads the pump end, so this write parks until Close.
		_, err := b.Local().Write([]byte("stranded"))
		wrote <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close(cause)

	select {
	case err := <-wrote:
		if !errors.Is(err, cause) {
			t.Errorf("blocked write failed with %v, want the close cause", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked writer never unblocked after Close")
	}

	if _, err := b.Local().Write([]byte("more")); !errors.Is(err, cause) {
		t.Errorf("write after Close = %v, want the close cause", err)
	}
}

func TestInputBindTwice(t *testing.T) {
	t.Parallel()
	b := NewInput(nil)
	if err := b.Bind(); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	if err := b.Bind(); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("second Bind = %v, want ErrAlreadyBound", err)
	}
}

func TestOutputSuppliedSink(t *testing.T) {
	t.Parallel()
	var sink bytes.Buffer
	b := NewOutput(&sink)

	if b.Local() != nil {
		t.Error("Local() should be nil when the caller supplied its own writer")
	}
	if err := b.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := b.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if sink.String() != "hello" {
		t.Errorf("sink holds %q, want %q", sink.String(), "hello")
	}
}

func TestOutputLazyPipe(t *testing.T) {
	t.Parallel()
	b := NewOutput(nil)
	if err := b.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	go b.Write([]byte("remote bytes"))

	buf := make([]byte, 32)
	n, err := b.Local().Read(buf)
	if err != nil {
		t.Fatalf("local read: %v", err)
	}
	if string(buf[:n]) != "remote bytes" {
		t.Errorf("local read %q, want %q", buf[:n], "remote bytes")
	}
}

func TestOutputWriteBeforeBindIsDropped(t *testing.T) {
	t.Parallel()
	var sink bytes.Buffer
	b := NewOutput(&sink)

	n, err := b.Write([]byte("early"))
	if err != nil {
		t.Fatalf("pre-bind write should not fail, got %v", err)
	}
	if n != len("early") {
		t.Errorf("pre-bind write n = %d, want %d", n, len("early"))
	}
	if sink.Len() != 0 {
		t.Errorf("pre-bind write reached the sink: %q", sink.String())
	}
}

func TestOutputBindTwice(t *testing.T) {
	t.Parallel()
	b := NewOutput(nil)
	if err := b.Bind(); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	if err := b.Bind(); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("second Bind = %v, want ErrAlreadyBound", err)
	}
}

func TestOutputWriteAfterLocalClosed(t *testing.T) {
	t.Parallel()
	b := NewOutput(nil)
	if err := b.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	b.Local().Close()

	if _, err := b.Write([]byte("data")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write after reader closed = %v, want io.ErrClosedPipe", err)
	}
}

func TestOutputCloseResolvesLocalReader(t *testing.T) {
	t.Parallel()
	b := NewOutput(nil)
	if err := b.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	go b.Write([]byte("tail"))

	buf := make([]byte, 16)
	n, err := b.Local().Read(buf)
	if err != nil {
		t.Fatalf("local read: %v", err)
	}
	if string(buf[:n]) != "tail" {
		t.Fatalf("local read %q, want %q", buf[:n], "tail")
	}

	b.Close(nil)
	if _, err := b.Local().Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("read after Close(nil) = %v, want io.EOF", err)
	}
}

func TestOutputCloseCarriesCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("setup went sideways")
	b := NewOutput(nil)

	b.Close(cause)

	buf := make([]byte, 16)
	if _, err := b.Local().Read(buf); !errors.Is(err, cause) {
		t.Errorf("read after Close(cause) = %v, want %v", err, cause)
	}
}

func TestOutputCloseLeavesSuppliedSinkAlone(t *testing.T) {
	t.Parallel()
	var sink bytes.Buffer
	b := NewOutput(&sink)
	if err := b.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	b.Close(errors.New("whatever"))

	if _, err := b.Write([]byte("still flowing")); err != nil {
		t.Fatalf("write after Close on supplied sink: %v", err)
	}
	if sink.String() != "still flowing" {
		t.Errorf("sink = %q, want %q", sink.String(), "still flowing")
	}
}
