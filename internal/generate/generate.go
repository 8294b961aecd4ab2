// Package generate abstracts the video generation step the feedback loop
// drives once per iteration.
package generate

import "context"

// Request describes one generation call. ConditioningImage is empty for the
// first iteration and carries the previous clip's last frame afterwards.
type Request struct {
	Prompt            string
	Seed              int64
	OutputDir         string
	Height            int
	Width             int
	NumFrames         int
	ConditioningImage string
}

// Generator produces exactly one video file per call and returns its path.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to the Generator interface.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
