package recommendplans

import (
	"time"

	"insurance-quote-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// MaxItems caps the returned list. Zero returns every match.
	MaxItems int
}

func createConfigFromAppConfig(appConfig *config.Config) *Config {
	if appConfig == nil {
		return &Config{Timeout: 10 * time.Second, MaxItems: 20}
	}
	wcfg := config.GetWorkerConfig(appConfig, TaskType)
	return &Config{
		Timeout:  config.GetDuration(wcfg.Timeout),
		MaxItems: appConfig.Quote.MaxItems,
	}
}
