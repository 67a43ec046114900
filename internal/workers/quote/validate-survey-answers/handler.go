package validatesurveyanswers

import (
	"context"
	"fmt"
	"strings"

	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/metrics"
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"
	"insurance-quote-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "validate-survey-answers"

// AnswerStore keeps complete submissions until plans are recommended.
type AnswerStore interface {
	Save(ctx context.Context, sessionID string, answers models.SurveyAnswers) error
}

type Handler struct {
	config       *Config
	store        AnswerStore
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig *config.Config
	Store     AnswerStore
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = logger.ForTask(log, TaskType)
	return &Handler{
		config:       createConfigFromAppConfig(opts.AppConfig),
		store:        opts.Store,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		timer.Failed(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		timer.Failed(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

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
		return nil, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("fields", result.Fields())
	}

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// Execute reports which answers are still missing. Complete submissions are
// stored under the session ID, which is generated when the caller has none.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	missing := recommendation.MissingFields(input.Answers)
	if len(missing) > 0 {
		metrics.SurveySubmissions.WithLabelValues("invalid").Inc()
		h.logger.Info("survey answers incomplete", map[string]interface{}{
			"sessionId":     sessionID,
			"missingFields": missing,
		})
		return &Output{Valid: false, SessionID: sessionID, MissingFields: missing}, nil
	}

	if err := h.store.Save(ctx, sessionID, input.Answers); err != nil {
		metrics.SurveySubmissions.WithLabelValues("store_failed").Inc()
		return nil, errors.NewSurveyStoreFailedError(err)
	}

	metrics.SurveySubmissions.WithLabelValues("valid").Inc()
	h.logger.Info("survey answers stored", map[string]interface{}{
		"sessionId": sessionID,
		"budget":    input.Answers.Budget,
		"coverage":  fmt.Sprint(input.Answers.Coverage),
	})
	return &Output{Valid: true, SessionID: sessionID, MissingFields: []string{}}, nil
}

