// Package loop drives the looped generation feedback cycle: each iteration's
// clip is generated from a prompt plus the previous clip's last frame, and
// the produced clips are optionally stitched into one video at the end.
package loop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"loop-studio/internal/generate"
	"loop-studio/internal/media"
)

// DefaultStitchedFilename is used when stitching is enabled without an
// explicit output name.
const DefaultStitchedFilename = "final_stitched_video.mp4"

// Iteration records one completed generation cycle.
type Iteration struct {
	Index     int
	VideoPath string
	FramePath string // last frame extracted for the next iteration, if any
}

// Result is what a finished run produced. When stitching was requested and
// produced a file, Stitched supersedes the individual clips; the clips stay
// on disk either way.
type Result struct {
	Videos     []string
	Stitched   string
	Iterations []Iteration
}

// Final returns the stitched output when present, otherwise the individual
// clip paths in iteration order.
func (r Result) Final() []string {
	if r.Stitched != "" {
		return []string{r.Stitched}
	}
	return r.Videos
}

// PromptRefiner rewrites the prompt between iterations (optional).
type PromptRefiner interface {
	RefinePrompt(ctx context.Context, modelName string, prompt string) (string, error)
}

// Options configures a run. ExtractFrame and StitchVideos default to the
// ffmpeg implementations in internal/media; tests inject fakes.
type Options struct {
	Prompt     string
	Seed       int64
	OutputDir  string
	Iterations int

	Height    int
	Width     int
	NumFrames int

	// InitialImage conditions the first iteration instead of starting from
	// text alone.
	InitialImage string

	// Delay is the pause between iterations (the pipeline needs a moment to
	// release GPU memory). Zero disables it.
	Delay time.Duration

	Stitch           bool
	StitchedFilename string

	// ErrorOnEmpty makes a run that produced no clips fail instead of
	// returning an absent stitched result.
	ErrorOnEmpty bool

	Refiner      PromptRefiner
	RefinerModel string

	Progress   func(Event)
	Controller *Controller

	ExtractFrame ExtractFn
	StitchVideos StitchFn
}

// ExtractFn and StitchFn are the injectable ffmpeg operations.
type (
	ExtractFn func(videoPath string) (string, error)
	StitchFn  func(videoPaths []string, outputPath string) (string, error)
)

// Run executes the feedback loop sequentially and returns the accumulated
// result. The first error aborts the run and is returned as-is; clips
// produced before the failure remain on disk.
func Run(ctx context.Context, gen generate.Generator, opts Options) (Result, error) {
	var res Result

	if strings.TrimSpace(opts.Prompt) == "" {
		return res, fmt.Errorf("initial prompt is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return res, fmt.Errorf("output directory is required")
	}
	if opts.Iterations < 0 {
		return res, fmt.Errorf("iteration count must not be negative")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory: %w", err)
	}

	extract := opts.ExtractFrame
	if extract == nil {
		extract = media.ExtractLastFrame
	}
	stitch := opts.StitchVideos
	if stitch == nil {
		stitch = media.StitchVideos
	}
	emit := opts.Progress
	if emit == nil {
		emit = func(Event) {}
	}

	prompt := opts.Prompt
	image := opts.InitialImage

	for i := 0; i < opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if opts.Controller != nil {
			u, err := opts.Controller.checkpoint(ctx, emit)
			if err != nil {
				return res, err
			}
			if u.Prompt != "" {
				prompt = u.Prompt
			}
			if u.Image != "" {
				image = u.Image
			}
		}
		if i > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}

		iterDir := filepath.Join(opts.OutputDir, fmt.Sprintf("frame_%03d", i))
		emit(Event{Kind: EventIterationStart, Iteration: i, Total: opts.Iterations, Prompt: prompt})

		video, err := gen.Generate(ctx, generate.Request{
			Prompt:            prompt,
			Seed:              opts.Seed + int64(i),
			OutputDir:         iterDir,
			Height:            opts.Height,
			Width:             opts.Width,
			NumFrames:         opts.NumFrames,
			ConditioningImage: image,
		})
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", i, err)
		}

		rec := Iteration{Index: i, VideoPath: video}
		if i < opts.Iterations-1 {
			frame, err := extract(video)
			if err != nil {
				return res, fmt.Errorf("iteration %d: extract last frame: %w", i, err)
			}
			rec.FramePath = frame
			image = frame

			if opts.Refiner != nil {
				refined, err := opts.Refiner.RefinePrompt(ctx, opts.RefinerModel, prompt)
				if err != nil {
					return res, fmt.Errorf("iteration %d: %w", i, err)
				}
				prompt = refined
			}
		}

		res.Videos = append(res.Videos, video)
		res.Iterations = append(res.Iterations, rec)
		emit(Event{Kind: EventIterationDone, Iteration: i, Total: opts.Iterations, Path: video})
	}

	if opts.Stitch {
		emit(Event{Kind: EventStitching, Total: opts.Iterations})
		name := opts.StitchedFilename
		if name == "" {
			name = DefaultStitchedFilename
		}
		out, err := stitch(res.Videos, filepath.Join(opts.OutputDir, name))
		if err != nil {
			return res, fmt.Errorf("stitch videos: %w", err)
		}
		if out == "" && opts.ErrorOnEmpty {
			return res, fmt.Errorf("no videos were generated, nothing to stitch")
		}
		res.Stitched = out
	} else if len(res.Videos) == 0 && opts.ErrorOnEmpty {
		return res, fmt.Errorf("no videos were generated")
	}

	emit(Event{Kind: EventDone, Total: opts.Iterations, Path: firstOrEmpty(res.Final())})
	return res, nil
}

func firstOrEmpty(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
