package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all the application configuration read from the environment.
type Config struct {
	OutputDir string

	// Local pipeline backend.
	PipelineBin    string
	PipelineScript string
	PipelineConfig string

	// Vertex AI backend.
	GoogleGenAIKey string
	ProjectID      string
	Location       string
	VeoModel       string

	// Notifications.
	WebhookURL      string
	SMTPHost        string
	SMTPPort        int
	SMTPFromName    string
	SMTPUsername    string
	SMTPPassword    string
	EmailRecipients string
}

// LoadConfig reads .env and the environment. Backend-specific settings are
// validated lazily (see ValidateVertex) so the local pipeline works without
// any cloud credentials.
func LoadConfig() (*Config, error) {
	// Load .env file (ignore error if file is missing, e.g., in production)
	_ = godotenv.Load()

	cfg := &Config{
		OutputDir:       getenv("OUTPUT_DIR", "outputs"),
		PipelineBin:     getenv("PIPELINE_BIN", "python"),
		PipelineScript:  getenv("PIPELINE_SCRIPT", "inference.py"),
		PipelineConfig:  getenv("PIPELINE_CONFIG", "configs/ltxv-13b-0.9.7-distilled.yaml"),
		GoogleGenAIKey:  os.Getenv("GOOGLE_GENAI_API_KEY"),
		ProjectID:       os.Getenv("GCLOUD_PROJECT_ID"),
		Location:        os.Getenv("GCLOUD_LOCATION"),
		VeoModel:        getenv("VEO_MODEL", "veo-3.1-generate-preview"),
		WebhookURL:      os.Getenv("WEBHOOK_URL"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPFromName:    os.Getenv("SMTP_FROM_NAME"),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		EmailRecipients: os.Getenv("EMAIL_RECIPIENTS"),
	}

	cfg.SMTPPort = 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", raw, err)
		}
		cfg.SMTPPort = port
	}

	return cfg, nil
}

// ValidateVertex checks the settings required by the Vertex AI backend.
func (c *Config) ValidateVertex() error {
	if c.GoogleGenAIKey == "" {
		return fmt.Errorf("GOOGLE_GENAI_API_KEY is missing")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("GCLOUD_PROJECT_ID is missing")
	}
	if c.Location == "" {
		return fmt.Errorf("GCLOUD_LOCATION is missing")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
