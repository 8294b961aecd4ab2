// Command loopgen runs a looped video generation: each iteration's clip is
// seeded with the last frame of the previous one, and the clips can be
// stitched into a single video at the end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"loop-studio/internal/ai"
	"loop-studio/internal/config"
	"loop-studio/internal/generate"
	"loop-studio/internal/loop"
	"loop-studio/internal/media"
	"loop-studio/internal/notify"
	"loop-studio/internal/version"
)

func main() {
	var (
		settingsPath = flag.String("settings", "", "Path to a JSON run settings file (flags override it)")
		prompt       = flag.String("prompt", "", "Initial text prompt for video generation")
		iterations   = flag.Int("iterations", 10, "Number of iterations for the feedback loop")
		outputDir    = flag.String("output-dir", "", "Base output directory (default from OUTPUT_DIR)")
		seed         = flag.Int64("seed", 1337, "Random seed for reproducibility")
		height       = flag.Int("height", 512, "Video height in pixels")
		width        = flag.Int("width", 768, "Video width in pixels")
		numFrames    = flag.Int("num-frames", 60, "Frames per generated clip")
		inputImage   = flag.String("input-image", "", "Optional image conditioning the first iteration")
		delay        = flag.Duration("delay", time.Second, "Delay between iterations")
		stitch       = flag.Bool("stitch", false, "Stitch all clips into one video at the end")
		stitchOutput = flag.String("stitch-output", loop.DefaultStitchedFilename, "Filename of the stitched video")
		errorOnEmpty = flag.Bool("error-on-empty", false, "Fail when the run produces no videos")
		backend      = flag.String("backend", "pipeline", "Generation backend: pipeline or veo")
		evolvePrompt = flag.Bool("evolve-prompt", false, "Rewrite the prompt between iterations with a text model")
		refinerModel = flag.String("refiner-model", "googleai/gemini-2.5-flash", "Model used by -evolve-prompt")
		showVersion  = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Current)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	rs := runSettings(cfg, *settingsPath, settingsOverrides{
		prompt: *prompt, iterations: *iterations, outputDir: *outputDir, seed: *seed,
		height: *height, width: *width, numFrames: *numFrames, inputImage: *inputImage,
		stitch: *stitch, stitchOutput: *stitchOutput, errorOnEmpty: *errorOnEmpty,
	})
	if rs.Prompt == "" {
		log.Fatal("a prompt is required (-prompt or a settings file)")
	}

	// ffmpeg is needed for frame chaining and stitching.
	if rs.Iterations > 1 || rs.Stitch {
		if err := media.CheckDependencies(); err != nil {
			log.Fatalf("Preflight failed: %v", err)
		}
	}

	ctx := context.Background()

	var aiSvc *ai.Service
	if *backend == "veo" || *evolvePrompt {
		aiSvc, err = ai.NewService(ctx, cfg)
		if err != nil {
			log.Fatalf("Vertex AI error: %v", err)
		}
	}

	var gen generate.Generator
	switch *backend {
	case "pipeline":
		gen = &generate.Pipeline{
			Bin:        cfg.PipelineBin,
			Script:     cfg.PipelineScript,
			ConfigPath: cfg.PipelineConfig,
		}
	case "veo":
		gen = &generate.Veo{Service: aiSvc, Model: cfg.VeoModel}
	default:
		log.Fatalf("unknown backend %q (expected pipeline or veo)", *backend)
	}

	opts := loop.Options{
		Prompt:           rs.Prompt,
		Seed:             rs.Seed,
		OutputDir:        rs.OutputDir,
		Iterations:       rs.Iterations,
		Height:           rs.Height,
		Width:            rs.Width,
		NumFrames:        rs.NumFrames,
		InitialImage:     rs.InputImage,
		Delay:            *delay,
		Stitch:           rs.Stitch,
		StitchedFilename: rs.StitchedFilename,
		ErrorOnEmpty:     rs.ErrorOnEmpty,
		Progress:         logProgress,
	}
	if *evolvePrompt {
		opts.Refiner = aiSvc
		opts.RefinerModel = *refinerModel
	}

	notifier := notify.New(notify.SettingsFromConfig(cfg))

	started := time.Now()
	res, runErr := loop.Run(ctx, gen, opts)

	notifier.RunFinished(notify.RunSummary{
		Prompt:     rs.Prompt,
		Iterations: rs.Iterations,
		OutputDir:  rs.OutputDir,
		Output:     firstOrEmpty(res.Final()),
		Duration:   time.Since(started),
		Err:        runErr,
	})

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}

	if res.Stitched != "" {
		fmt.Printf("Stitched video: %s\n", res.Stitched)
	} else {
		for _, v := range res.Videos {
			fmt.Println(v)
		}
		if len(res.Videos) == 0 {
			fmt.Println("No videos were generated.")
		}
	}

	version.UpdateHint(ctx)
}

func logProgress(ev loop.Event) {
	switch ev.Kind {
	case loop.EventIterationStart:
		log.Printf("iteration %d/%d: generating (prompt: %q)", ev.Iteration+1, ev.Total, ev.Prompt)
	case loop.EventIterationDone:
		log.Printf("iteration %d/%d: done -> %s", ev.Iteration+1, ev.Total, ev.Path)
	case loop.EventStitching:
		log.Printf("stitching %d clips", ev.Total)
	}
}

type settingsOverrides struct {
	prompt, outputDir, inputImage, stitchOutput string
	iterations, height, width, numFrames        int
	seed                                        int64
	stitch, errorOnEmpty                        bool
}

// runSettings merges the optional settings file with command-line flags.
// Flags the user set explicitly win over the file.
func runSettings(cfg *config.Config, path string, o settingsOverrides) *config.RunSettings {
	rs := &config.RunSettings{
		Prompt: o.prompt, Iterations: o.iterations, Seed: o.seed,
		Height: o.height, Width: o.width, NumFrames: o.numFrames,
		InputImage: o.inputImage, OutputDir: o.outputDir,
		Stitch: o.stitch, StitchedFilename: o.stitchOutput, ErrorOnEmpty: o.errorOnEmpty,
	}
	if path != "" {
		fileRS, err := config.Load(path)
		if err != nil {
			log.Fatalf("Settings error: %v", err)
		}
		merged := *fileRS
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "prompt":
				merged.Prompt = o.prompt
			case "iterations":
				merged.Iterations = o.iterations
			case "seed":
				merged.Seed = o.seed
			case "height":
				merged.Height = o.height
			case "width":
				merged.Width = o.width
			case "num-frames":
				merged.NumFrames = o.numFrames
			case "input-image":
				merged.InputImage = o.inputImage
			case "output-dir":
				merged.OutputDir = o.outputDir
			case "stitch":
				merged.Stitch = o.stitch
			case "stitch-output":
				merged.StitchedFilename = o.stitchOutput
			case "error-on-empty":
				merged.ErrorOnEmpty = o.errorOnEmpty
			}
		})
		rs = &merged
	}
	if rs.OutputDir == "" {
		rs.OutputDir = cfg.OutputDir
	}
	return rs
}

func firstOrEmpty(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
