package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDraws(t *testing.T) {
	var w syncBuffer
	s := newSpinnerTo(context.Background(), &w, "Rendering...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("Encoding png...")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := w.String()
	if !strings.Contains(out, "Rendering...") || !strings.Contains(out, "Encoding png...") {
		t.Errorf("spinner output = %q", out)
	}
	if s.Cancelled() != true {
		t.Error("Stop cancels the spinner context")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerTo(ctx, &syncBuffer{}, "Waiting...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, &syncBuffer{}, "Waiting...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Stopping...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessages(t *testing.T) {
	out := captureStdout(t)

	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Working...")
	s.Start()
	s.StopWithSuccess("Done!")

	s = newSpinnerTo(context.Background(), &syncBuffer{}, "Working...")
	s.Start()
	s.StopWithError("Failed!")

	if !strings.Contains(out.String(), "Done!") || !strings.Contains(out.String(), "Failed!") {
		t.Errorf("status output = %q", out.String())
	}
}
