package loop

import (
	"context"
	"sync/atomic"
)

type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
)

type command struct {
	kind   commandKind
	prompt string
	image  string
}

// Controller pauses and resumes a run between iterations. A paused run keeps
// its state and waits; Resume may swap the prompt and conditioning image used
// from the next iteration on. Safe for use from another goroutine than the
// one running the loop.
type Controller struct {
	cmds   chan command
	paused atomic.Bool
}

func NewController() *Controller {
	return &Controller{cmds: make(chan command, 16)}
}

// Pause requests a pause at the next iteration boundary.
func (c *Controller) Pause() {
	c.cmds <- command{kind: cmdPause}
}

// Resume continues a paused run. Non-empty prompt or image replace the ones
// the loop would otherwise use. Resuming a run that is not paused only
// applies the prompt and image updates.
func (c *Controller) Resume(prompt, image string) {
	c.cmds <- command{kind: cmdResume, prompt: prompt, image: image}
}

// Paused reports whether the run is currently waiting at a pause point.
func (c *Controller) Paused() bool {
	return c.paused.Load()
}

// update carries prompt/image replacements picked up at a checkpoint.
type update struct {
	Prompt string
	Image  string
}

// checkpoint is called by the loop between iterations. It drains pending
// commands, blocks while paused, and honors ctx cancellation.
func (c *Controller) checkpoint(ctx context.Context, emit func(Event)) (update, error) {
	var u update

	// Drain without blocking first.
	for {
		select {
		case cmd := <-c.cmds:
			c.apply(cmd, &u, emit)
			continue
		default:
		}
		break
	}

	// Block until resumed when a pause is in effect.
	for c.paused.Load() {
		select {
		case <-ctx.Done():
			c.paused.Store(false)
			return u, ctx.Err()
		case cmd := <-c.cmds:
			c.apply(cmd, &u, emit)
		}
	}

	return u, nil
}

func (c *Controller) apply(cmd command, u *update, emit func(Event)) {
	switch cmd.kind {
	case cmdPause:
		if !c.paused.Swap(true) {
			emit(Event{Kind: EventPaused})
		}
	case cmdResume:
		if cmd.prompt != "" {
			u.Prompt = cmd.prompt
		}
		if cmd.image != "" {
			u.Image = cmd.image
		}
		if c.paused.Swap(false) {
			emit(Event{Kind: EventResumed, Prompt: cmd.prompt})
		}
	}
}
