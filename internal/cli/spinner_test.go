package cli

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Rendering...")
	s.Start()
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("a stopped spinner is not cancelled")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Rendering...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s := newSpinner("never started")
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Rendering...")
	s.Start()
	cancel()

	if !s.Cancelled() {
		t.Error("spinner should report cancellation of its context")
	}
	s.Stop()
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Rendering...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("spinner wrote %q to a non-terminal", buf.String())
	}
}
