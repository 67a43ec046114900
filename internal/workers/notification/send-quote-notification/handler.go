package sendquotenotification

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"insurance-quote-workers/internal/common/camunda"
	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/common/metrics"
	"insurance-quote-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-quote-notification"

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	db           *sql.DB
	ses          SESService
	sns          SNSService
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig *config.Config
	DB        *sql.DB
	SES       SESService
	SNS       SNSService
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
		ses:          opts.SES,
		sns:          opts.SNS,
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

// Execute sends the notification by email, and by SMS as well when the job
// priority reaches the configured threshold. Contacts that fail format checks
// are skipped. A status of "disabled" means no channel was both enabled and
// reachable for the recipient.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, errors.NewValidationFailedError(fmt.Sprintf("unknown notification type: %s", input.NotificationType))
	}

	name, email, phone, err := h.recipientContact(ctx, input.RecipientType, input.RecipientID)
	if err != nil {
		return nil, err
	}

	data := make(map[string]interface{}, len(input.Metadata)+3)
	for k, v := range input.Metadata {
		data[k] = v
	}
	data["name"] = name
	if input.SessionID != "" {
		data["sessionId"] = input.SessionID
	}
	if input.SelectionID != "" {
		data["selectionId"] = input.SelectionID
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && h.ses != nil && validation.ValidateEmail(email) {
		if err := h.sendEmail(ctx, email, subject, body); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if h.config.SMSEnabled && h.sns != nil && validation.ValidatePhone(phone) && input.Priority == h.config.SMSPriority {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		output.Channels = append(output.Channels, ChannelSMS)
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId":   output.NotificationID,
		"notificationType": input.NotificationType,
		"recipientType":    input.RecipientType,
		"status":           output.Status,
		"channels":         output.Channels,
	})
	return output, nil
}

func (h *Handler) recipientContact(ctx context.Context, recipientType, recipientID string) (string, string, string, error) {
	var query string
	switch recipientType {
	case RecipientTypeCustomer:
		query = `SELECT full_name, COALESCE(email, ''), COALESCE(phone, '') FROM customers WHERE id = $1`
	case RecipientTypeAgent:
		query = `SELECT full_name, COALESCE(email, ''), COALESCE(phone, '') FROM agents WHERE id = $1 AND is_active = true`
	default:
		return "", "", "", errors.NewValidationFailedError(fmt.Sprintf("invalid recipient type: %s", recipientType))
	}

	var name, email, phone string
	err := h.db.QueryRowContext(ctx, query, recipientID).Scan(&name, &email, &phone)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", "", "", errors.NewRecipientNotFoundError(recipientType, recipientID)
	}
	if err != nil {
		return "", "", "", errors.NewQueryExecutionFailedError("recipient_lookup", err)
	}
	return name, email, phone, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
