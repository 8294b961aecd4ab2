package notify

import (
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// EmailSettings contains SMTP server settings for email notifications.
type EmailSettings struct {
	Host       string
	Port       int
	FromName   string
	Username   string
	Password   string
	Recipients string // comma-separated
}

func (cfg *EmailSettings) configured() bool {
	return cfg.Host != "" && cfg.Username != "" && cfg.Recipients != ""
}

// sendRunEmail mails the run summary to the configured recipients.
func sendRunEmail(cfg *EmailSettings, sum RunSummary) error {
	return sendEmail(cfg, sum.subject(), sum.body())
}

// sendEmail delivers an email message to configured recipients.
func sendEmail(cfg *EmailSettings, subject, body string) error {
	var recipients []string
	for _, r := range strings.Split(cfg.Recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no valid recipients")
	}

	m := mail.NewMsg()
	if cfg.FromName != "" {
		if err := m.FromFormat(cfg.FromName, cfg.Username); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	} else {
		if err := m.From(cfg.Username); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	}
	if err := m.To(recipients...); err != nil {
		return fmt.Errorf("set recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	// Build client options with port-appropriate TLS settings
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}

	switch cfg.Port {
	case 465: // SMTPS - implicit TLS
		opts = append(opts, mail.WithSSL())
	case 587: // Submission - STARTTLS required
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	default: // Port 25 or custom - opportunistic TLS
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := c.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
