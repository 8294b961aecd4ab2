package generate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"google.golang.org/genai"

	"loop-studio/internal/ai"
)

// Veo generates clips with Vertex AI's Veo models instead of a local
// pipeline. Resolution and frame count are fixed by the model, so Height,
// Width and NumFrames of a Request are ignored.
type Veo struct {
	Service         *ai.Service
	Model           string
	AspectRatio     string
	DurationSeconds int32
}

func ptr[T any](v T) *T { return &v }

func (v *Veo) Generate(ctx context.Context, req Request) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var image *genai.Image
	if req.ConditioningImage != "" {
		data, err := os.ReadFile(req.ConditioningImage)
		if err != nil {
			return "", fmt.Errorf("read conditioning image: %w", err)
		}
		image = &genai.Image{ImageBytes: data, MIMEType: "image/png"}
	}

	aspect := v.AspectRatio
	if aspect == "" {
		aspect = "16:9"
	}
	duration := v.DurationSeconds
	if duration == 0 {
		duration = 8
	}
	cfg := &genai.GenerateVideosConfig{
		AspectRatio:     aspect,
		DurationSeconds: ptr(duration),
		Seed:            ptr(int32(req.Seed)),
	}

	video, err := v.Service.GenerateVideo(ctx, v.Model, req.Prompt, image, cfg)
	if err != nil {
		return "", err
	}

	out := filepath.Join(req.OutputDir, "video.mp4")
	if err := saveVideo(video, out); err != nil {
		return "", err
	}
	return out, nil
}

// saveVideo persists a generated video, either from inline bytes or by
// downloading its GCS object with the gcloud CLI.
func saveVideo(video *genai.Video, path string) error {
	if len(video.VideoBytes) > 0 {
		return os.WriteFile(path, video.VideoBytes, 0o644)
	}
	if video.URI != "" {
		cmd := exec.Command("gcloud", "storage", "cp", video.URI, path)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("gcloud cp failed: %w: %s", err, string(output))
		}
		return nil
	}
	return fmt.Errorf("no content")
}
