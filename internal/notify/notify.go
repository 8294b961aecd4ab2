// Package notify reports run outcomes over email and webhook. Channels that
// are not configured are silently skipped, so the zero-config case is a
// no-op.
package notify

import (
	"fmt"
	"log"
	"time"
)

// Settings selects and configures the notification channels.
type Settings struct {
	WebhookURL string
	Email      EmailSettings
}

// RunSummary describes a finished (or failed) looped generation run.
type RunSummary struct {
	Prompt     string
	Iterations int
	OutputDir  string
	Output     string // stitched file or last clip, empty when nothing was produced
	Duration   time.Duration
	Err        error
}

// Notifier fans a run summary out to the configured channels.
type Notifier struct {
	settings Settings
}

func New(settings Settings) *Notifier {
	return &Notifier{settings: settings}
}

// RunFinished sends the summary to every configured channel. Delivery
// failures are logged, never returned: notification problems must not fail
// a run that already completed.
func (n *Notifier) RunFinished(sum RunSummary) {
	if n == nil {
		return
	}
	if n.settings.WebhookURL != "" {
		if err := sendRunWebhook(n.settings.WebhookURL, sum); err != nil {
			log.Printf("run webhook failed: %v", err)
		}
	}
	if n.settings.Email.configured() {
		if err := sendRunEmail(&n.settings.Email, sum); err != nil {
			log.Printf("run email failed: %v", err)
		}
	}
}

func (sum RunSummary) subject() string {
	if sum.Err != nil {
		return "[FAILED] Looped generation run"
	}
	return "[OK] Looped generation run finished"
}

func (sum RunSummary) body() string {
	status := "completed"
	if sum.Err != nil {
		status = fmt.Sprintf("failed: %v", sum.Err)
	}
	return fmt.Sprintf(
		"Looped generation run %s.\n\n"+
			"Prompt:     %s\n"+
			"Iterations: %d\n"+
			"Output dir: %s\n"+
			"Output:     %s\n"+
			"Duration:   %s\n",
		status, sum.Prompt, sum.Iterations, sum.OutputDir, sum.Output, sum.Duration.Round(time.Second),
	)
}
