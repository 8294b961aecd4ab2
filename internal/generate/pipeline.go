package generate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Pipeline runs a local text-to-video inference program as a subprocess.
// The zero value is not usable; construct it from config.
type Pipeline struct {
	Bin        string // interpreter or binary, e.g. "python"
	Script     string // inference entry point, e.g. "inference.py"
	ConfigPath string // pipeline YAML passed through untouched
}

// Generate invokes the inference program and returns the path of the video it
// produced inside req.OutputDir.
func (p *Pipeline) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return "", fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	args := p.buildArgs(req)
	cmd := exec.CommandContext(ctx, p.Bin, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("inference failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return findVideo(req.OutputDir)
}

func (p *Pipeline) buildArgs(req Request) []string {
	args := []string{
		p.Script,
		"--prompt", req.Prompt,
	}
	if req.ConditioningImage != "" {
		args = append(args,
			"--conditioning_media_paths", req.ConditioningImage,
			"--conditioning_start_frames", "0",
		)
	}
	args = append(args,
		"--height", strconv.Itoa(req.Height),
		"--width", strconv.Itoa(req.Width),
		"--seed", strconv.FormatInt(req.Seed, 10),
		"--num_frames", strconv.Itoa(req.NumFrames),
		"--pipeline_config", p.ConfigPath,
		"--output_path", req.OutputDir,
	)
	return args
}

// findVideo locates the .mp4 the pipeline wrote into dir. The pipeline names
// its output itself, so we take the first .mp4 in lexical order.
func findVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output directory %s: %w", dir, err)
	}
	var videos []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mp4") {
			videos = append(videos, e.Name())
		}
	}
	if len(videos) == 0 {
		return "", fmt.Errorf("no .mp4 file found in %s", dir)
	}
	sort.Strings(videos)
	return filepath.Join(dir, videos[0]), nil
}
