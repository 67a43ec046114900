package camunda

import (
	"time"

	"insurance-quote-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// Workers tracks the job workers opened by the manager so they can be
// closed together on shutdown.
type Workers struct {
	client zbc.Client
	logger *zap.Logger
	open   map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, logger *zap.Logger) *Workers {
	return &Workers{client: client, logger: logger, open: make(map[string]worker.JobWorker)}
}

// Start opens a job worker for taskType unless it is disabled in wcfg.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w.open[taskType] = w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		PollInterval(100 * time.Millisecond).
		Open()

	w.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

// Running returns the task types with an open worker.
func (w *Workers) Running() []string {
	types := make([]string, 0, len(w.open))
	for t := range w.open {
		types = append(types, t)
	}
	return types
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for taskType, jw := range w.open {
		w.logger.Info("stopping worker", zap.String("taskType", taskType))
		jw.Close()
		jw.AwaitClose()
	}
	w.open = make(map[string]worker.JobWorker)
}
