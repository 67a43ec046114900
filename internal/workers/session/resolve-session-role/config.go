package resolvesessionrole

import (
	"time"

	"insurance-quote-workers/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	LoginPaths map[string]string
}

func createConfigFromAppConfig(appConfig *config.Config) *Config {
	if appConfig == nil {
		return &Config{Timeout: 2 * time.Second}
	}
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(appConfig, TaskType).Timeout),
		LoginPaths: appConfig.Session.LoginPaths,
	}
}
