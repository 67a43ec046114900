package sendquotenotification

import (
	"time"

	"insurance-quote-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	// SMSPriority is the priority a job needs before an SMS is sent as well.
	SMSPriority string
	Timeout     time.Duration
}

func createConfigFromAppConfig(appConfig *config.Config) *Config {
	if appConfig == nil {
		return &Config{SMSPriority: PriorityHigh, Timeout: 15 * time.Second}
	}
	n := appConfig.Notifications
	cfg := &Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SMSPriority:  n.SMS.PriorityThreshold,
		Timeout:      config.GetDuration(config.GetWorkerConfig(appConfig, TaskType).Timeout),
	}
	if cfg.SMSPriority == "" {
		cfg.SMSPriority = PriorityHigh
	}
	return cfg
}
