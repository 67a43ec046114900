package recommendplans

import (
	"context"
	stderrors "errors"
	"strings"

	"insurance-quote-workers/internal/catalog"
	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/metrics"
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"
	"insurance-quote-workers/internal/recommendation"
	"insurance-quote-workers/internal/survey"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "recommend-plans"

// AnswerStore gives access to answers saved by validate-survey-answers.
type AnswerStore interface {
	Load(ctx context.Context, sessionID string) (models.SurveyAnswers, error)
	Delete(ctx context.Context, sessionID string) error
}

type Handler struct {
	config       *Config
	catalog      catalog.Source
	store        AnswerStore
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig *config.Config
	Catalog   catalog.Source
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
		catalog:      opts.Catalog,
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
		return nil, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// Execute ranks the catalog for the answers in the input, or for the answers
// stored under the session when the input carries none.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	answers, fromStore, err := h.answers(ctx, input)
	if err != nil {
		return nil, err
	}

	plans, err := h.catalog.Plans(ctx)
	if err != nil {
		return nil, errors.NewCatalogUnavailableError(h.catalog.Name(), err)
	}

	ranked, err := recommendation.Recommend(answers, plans)
	if err != nil {
		return nil, errors.NewSurveyAnswersInvalidError(recommendation.MissingFields(answers))
	}

	total := len(ranked)
	limit := h.config.MaxItems
	if input.MaxItems > 0 {
		limit = input.MaxItems
	}
	if limit > 0 && total > limit {
		ranked = ranked[:limit]
	}

	metrics.QuotePlansRecommended.Observe(float64(total))
	if total == 0 {
		metrics.QuoteNoMatch.Inc()
	}

	if fromStore {
		if err := h.store.Delete(ctx, input.SessionID); err != nil {
			h.logger.Warn("failed to delete stored answers", map[string]interface{}{
				"sessionId": input.SessionID,
				"error":     err,
			})
		}
	}

	h.logger.Info("plans recommended", map[string]interface{}{
		"sessionId":    input.SessionID,
		"catalogSize":  len(plans),
		"totalMatched": total,
		"returned":     len(ranked),
	})

	return &Output{
		RankedPlans:  ranked,
		TotalMatched: total,
		NoMatch:      total == 0,
	}, nil
}

func (h *Handler) answers(ctx context.Context, input *Input) (models.SurveyAnswers, bool, error) {
	if input.Answers != nil {
		return *input.Answers, false, nil
	}
	if input.SessionID == "" || h.store == nil {
		return models.SurveyAnswers{}, false, errors.NewSurveyAnswersNotFoundError(input.SessionID)
	}

	answers, err := h.store.Load(ctx, input.SessionID)
	switch {
	case stderrors.Is(err, survey.ErrAnswersNotFound):
		return answers, false, errors.NewSurveyAnswersNotFoundError(input.SessionID)
	case err != nil:
		return answers, false, errors.NewSurveyStoreFailedError(err)
	}
	return answers, true, nil
}
