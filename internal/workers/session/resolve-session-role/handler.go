package resolvesessionrole

import (
	"context"
	"strings"
	"time"

	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/metrics"
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/rolegate"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-session-role"

type Handler struct {
	config       *Config
	router       *rolegate.Router
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig *config.Config
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = logger.ForTask(log, TaskType)
	cfg := createConfigFromAppConfig(opts.AppConfig)
	return &Handler{
		config:       cfg,
		router:       rolegate.NewRouter(cfg.LoginPaths),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		timer.Failed(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(input)

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		timer.Failed(string(errors.ErrCodeInternal))
		return
	}
	timer.Completed()
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// Execute never fails: a missing or unusable credential is an ordinary
// outcome that sends the visitor to the section's login page.
func (h *Handler) Execute(input *Input) *Output {
	claims, resolveErr := rolegate.Resolve(input.Credential, h.now())
	decision := h.router.Decide(input.Section, claims, resolveErr)

	metrics.SessionRoleResolutions.WithLabelValues(string(input.Section), decision.Reason).Inc()

	fields := map[string]interface{}{
		"section": input.Section,
		"reason":  decision.Reason,
		"allowed": decision.Allowed,
	}
	if resolveErr != nil {
		fields["error"] = resolveErr
	}
	h.logger.Debug("session role resolved", fields)

	return &Output{
		Authenticated:   resolveErr == nil,
		Role:            string(claims.Role),
		SubjectID:       claims.SubjectID,
		Allowed:         decision.Allowed,
		RedirectTo:      decision.RedirectTo,
		ClearCredential: decision.ClearCredential,
		Reason:          decision.Reason,
	}
}
