// Package ai wraps the Vertex AI clients used by the Veo backend and the
// optional prompt-evolution step.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"loop-studio/internal/config"
)

const pollInterval = 10 * time.Second

type Service struct {
	g         *genkit.Genkit
	veoClient *genai.Client
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.ValidateVertex(); err != nil {
		return nil, err
	}

	g := genkit.Init(ctx, genkit.WithPlugins(
		&googlegenai.GoogleAI{APIKey: cfg.GoogleGenAIKey},
		&googlegenai.VertexAI{ProjectID: cfg.ProjectID, Location: cfg.Location},
	))

	veoClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Veo client: %w", err)
	}

	return &Service{g: g, veoClient: veoClient}, nil
}

// RefinePrompt asks a text model to evolve the prompt for the next iteration
// while keeping the described scene continuous.
func (s *Service) RefinePrompt(ctx context.Context, modelName string, prompt string) (string, error) {
	instruction := fmt.Sprintf(
		"Rewrite the following video generation prompt so the scene continues naturally "+
			"from where it left off. Keep the subject and style, change only the action. "+
			"Answer with the prompt text alone.\n\nPrompt: %s", prompt)
	refined, err := genkit.GenerateText(ctx, s.g,
		ai.WithModelName(modelName),
		ai.WithPrompt(instruction),
	)
	if err != nil {
		return "", fmt.Errorf("refine prompt: %w", err)
	}
	refined = strings.TrimSpace(refined)
	if refined == "" {
		return prompt, nil
	}
	return refined, nil
}

// GenerateVideo starts a Veo long-running operation and polls until it
// completes or ctx is canceled.
func (s *Service) GenerateVideo(ctx context.Context, modelName string, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.Video, error) {
	cleanName := strings.TrimPrefix(modelName, "vertexai/")

	op, err := s.veoClient.Models.GenerateVideos(ctx, cleanName, prompt, image, cfg)
	if err != nil {
		return nil, fmt.Errorf("start failed: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			op, err = s.veoClient.Operations.GetVideosOperation(ctx, op, nil)
			if err != nil {
				return nil, fmt.Errorf("check failed: %w", err)
			}

			if op.Done {
				if op.Error != nil {
					return nil, fmt.Errorf("generation error: %v", op.Error)
				}
				if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
					video := op.Response.GeneratedVideos[0].Video
					if video == nil {
						return nil, fmt.Errorf("video object is nil")
					}
					return video, nil
				}
				return nil, fmt.Errorf("no video found in response")
			}
		}
	}
}
