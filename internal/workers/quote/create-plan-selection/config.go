package createplanselection

import (
	"time"

	"insurance-quote-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func createConfigFromAppConfig(appConfig *config.Config) *Config {
	if appConfig == nil {
		return &Config{Timeout: 10 * time.Second}
	}
	return &Config{Timeout: config.GetDuration(config.GetWorkerConfig(appConfig, TaskType).Timeout)}
}
