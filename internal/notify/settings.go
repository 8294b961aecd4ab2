package notify

import "loop-studio/internal/config"

// SettingsFromConfig maps the environment configuration onto notification
// settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		WebhookURL: cfg.WebhookURL,
		Email: EmailSettings{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			FromName:   cfg.SMTPFromName,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			Recipients: cfg.EmailRecipients,
		},
	}
}
