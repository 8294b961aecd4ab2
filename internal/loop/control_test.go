package loop

import (
	"context"
	"testing"
	"time"

	"loop-studio/internal/generate"
)

// stepGen blocks every Generate call until the test releases it, so the test
// controls exactly when iteration boundaries are reached.
type stepGen struct {
	calls   chan generate.Request
	release chan struct{}
}

func newStepGen() *stepGen {
	return &stepGen{calls: make(chan generate.Request, 8), release: make(chan struct{})}
}

func (g *stepGen) Generate(ctx context.Context, req generate.Request) (string, error) {
	g.calls <- req
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-g.release:
	}
	return req.OutputDir + "/video.mp4", nil
}

func waitEvent(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestControllerPausesBetweenIterationsAndResumesWithNewPrompt(t *testing.T) {
	gen := newStepGen()
	ctrl := NewController()
	events := make(chan Event, 32)

	opts := baseOptions(t, 2)
	opts.Controller = ctrl
	opts.Progress = func(ev Event) { events <- ev }

	done := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), gen, opts)
		done <- err
	}()

	// Iteration 0 is in flight; request the pause while it runs.
	<-gen.calls
	ctrl.Pause()
	gen.release <- struct{}{}

	waitEvent(t, events, EventPaused)
	if !ctrl.Paused() {
		t.Fatal("controller should report paused")
	}

	ctrl.Resume("a storm rolling in", "")
	waitEvent(t, events, EventResumed)

	req := <-gen.calls
	gen.release <- struct{}{}
	if req.Prompt != "a storm rolling in" {
		t.Fatalf("resumed prompt = %q, want the replacement", req.Prompt)
	}

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if ctrl.Paused() {
		t.Fatal("controller should not report paused after resume")
	}
}

func TestControllerCancellationWhilePaused(t *testing.T) {
	gen := newStepGen()
	ctrl := NewController()
	events := make(chan Event, 32)

	ctx, cancel := context.WithCancel(context.Background())
	opts := baseOptions(t, 2)
	opts.Controller = ctrl
	opts.Progress = func(ev Event) { events <- ev }

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, gen, opts)
		done <- err
	}()

	<-gen.calls
	ctrl.Pause()
	gen.release <- struct{}{}
	waitEvent(t, events, EventPaused)

	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected cancellation error while paused")
	}
}

func TestControllerResumeWithoutPauseOnlyAppliesUpdates(t *testing.T) {
	gen := newStepGen()
	ctrl := NewController()

	opts := baseOptions(t, 1)
	opts.Controller = ctrl

	ctrl.Resume("replacement prompt", "")

	done := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), gen, opts)
		done <- err
	}()

	req := <-gen.calls
	gen.release <- struct{}{}
	if req.Prompt != "replacement prompt" {
		t.Fatalf("prompt = %q, want the queued replacement", req.Prompt)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
