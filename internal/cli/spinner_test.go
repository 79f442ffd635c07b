package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func testSpinner(ctx context.Context, msg string) (*Spinner, *syncBuffer) {
	s := newSpinner(ctx, msg)
	buf := &syncBuffer{}
	s.w = buf
	return s, buf
}

func TestSpinnerDraws(t *testing.T) {
	s, buf := testSpinner(context.Background(), "connecting")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("drawn %d", 40)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "connecting") || !strings.Contains(out, "drawn 40") {
		t.Errorf("spinner output = %q, want both messages", out)
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := testSpinner(ctx, "waiting")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("Cancelled() = false after parent cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := testSpinner(context.Background(), "x")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s, buf := testSpinner(context.Background(), "x")
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("Stop() on idle spinner wrote %q", buf.String())
	}
}

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

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
