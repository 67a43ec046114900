package createplanselection

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/metrics"
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "create-plan-selection"

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig *config.Config
	DB        *sql.DB
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
		db:           opts.DB,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
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

// Execute records the customer's chosen plan. The premium is read from the
// catalog rather than trusted from the process variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var premium float64
	err := h.db.QueryRowContext(ctx, `
		SELECT premium_per_year FROM insurance_plans
		WHERE id = $1 AND is_active = true`, input.PlanID).Scan(&premium)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewPlanNotFoundError(input.PlanID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("plan_lookup", err)
	}

	var exists bool
	err = h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM plan_selections
			WHERE customer_id = $1 AND plan_id = $2 AND status IN ($3, $4)
		)`, input.CustomerID, input.PlanID, models.SelectionPendingDocuments, models.SelectionSubmitted).Scan(&exists)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("duplicate_check", err)
	}
	if exists {
		return nil, errors.NewDuplicateSelectionError(input.CustomerID, input.PlanID)
	}

	selection := models.PlanSelection{
		ID:         uuid.New().String(),
		CustomerID: input.CustomerID,
		PlanID:     input.PlanID,
		AgentID:    input.AgentID,
		Premium:    premium,
		Score:      input.Score,
		Status:     models.SelectionPendingDocuments,
		CreatedAt:  h.now().UTC().Format(time.RFC3339),
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO plan_selections (
			id, customer_id, plan_id, agent_id, premium, score, status, created_at, updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $8)`,
		selection.ID,
		selection.CustomerID,
		selection.PlanID,
		selection.AgentID,
		selection.Premium,
		selection.Score,
		selection.Status,
		selection.CreatedAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.writeAuditLog(ctx, selection, input.SessionID)

	h.logger.Info("plan selection created", map[string]interface{}{
		"selectionId": selection.ID,
		"customerId":  selection.CustomerID,
		"planId":      selection.PlanID,
		"premium":     selection.Premium,
	})

	return &Output{
		SelectionID:            selection.ID,
		Status:                 selection.Status,
		Premium:                selection.Premium,
		DocumentUploadRequired: selection.Status == models.SelectionPendingDocuments,
		CreatedAt:              selection.CreatedAt,
	}, nil
}

// writeAuditLog never fails the job.
func (h *Handler) writeAuditLog(ctx context.Context, selection models.PlanSelection, sessionID string) {
	details, err := json.Marshal(map[string]interface{}{
		"customerId": selection.CustomerID,
		"planId":     selection.PlanID,
		"premium":    selection.Premium,
		"score":      selection.Score,
		"sessionId":  sessionID,
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"plan_selected",
		"plan_selection",
		selection.ID,
		details,
		selection.CreatedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"selectionId": selection.ID,
		})
	}
}
