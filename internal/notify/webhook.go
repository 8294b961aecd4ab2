package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sendRunWebhook POSTs a JSON summary of the run to the webhook URL.
func sendRunWebhook(webhookURL string, sum RunSummary) error {
	event := "run_finished"
	errText := ""
	if sum.Err != nil {
		event = "run_failed"
		errText = sum.Err.Error()
	}
	return sendWebhook(webhookURL, map[string]any{
		"event":            event,
		"prompt":           sum.Prompt,
		"iterations":       sum.Iterations,
		"output_dir":       sum.OutputDir,
		"output":           sum.Output,
		"duration_seconds": sum.Duration.Seconds(),
		"error":            errText,
		"timestamp":        time.Now().Format(time.RFC3339),
	})
}

// sendWebhook sends a POST request with JSON payload to the webhook URL.
func sendWebhook(webhookURL string, payload map[string]any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
