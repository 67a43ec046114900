// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSurveyAnswersInvalid  ErrorCode = "SURVEY_ANSWERS_INVALID"
	ErrCodeSurveyAnswersNotFound ErrorCode = "SURVEY_ANSWERS_NOT_FOUND"
	ErrCodeSurveyStoreFailed     ErrorCode = "SURVEY_STORE_FAILED"

	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateSelection   ErrorCode = "DUPLICATE_SELECTION"
	ErrCodePlanNotFound         ErrorCode = "PLAN_NOT_FOUND"
	ErrCodeRecipientNotFound    ErrorCode = "RECIPIENT_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err into a *StandardError when it carries one.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewSurveyAnswersInvalidError reports a submission with unset or unknown fields.
func NewSurveyAnswersInvalidError(missingFields []string) *StandardError {
	return newError(ErrCodeSurveyAnswersInvalid, "Survey answers are incomplete",
		fmt.Sprintf("fields: %s", strings.Join(missingFields, ",")), false).
		WithMetadata("missingFields", missingFields)
}

func NewSurveyAnswersNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSurveyAnswersNotFound, "No survey answers stored for session",
		fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewSurveyStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSurveyStoreFailed, "Survey answer store error", err.Error(), true)
}

func NewCatalogUnavailableError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Plan catalog unavailable",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

// NewDuplicateSelectionError creates a non-retryable duplicate selection error.
func NewDuplicateSelectionError(customerID, planID string) *StandardError {
	return newError(ErrCodeDuplicateSelection, "Plan already selected by customer",
		fmt.Sprintf("customerId: %s, planId: %s", customerID, planID), false)
}

func NewPlanNotFoundError(planID string) *StandardError {
	return newError(ErrCodePlanNotFound, "Plan not found in catalog",
		fmt.Sprintf("planId: %s", planID), false)
}

func NewRecipientNotFoundError(recipientType, recipientID string) *StandardError {
	return newError(ErrCodeRecipientNotFound, "Notification recipient not found",
		fmt.Sprintf("recipientType: %s, recipientId: %s", recipientType, recipientID), false)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes used by boundary
// events in the quote process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSurveyAnswersInvalid:   "SURVEY_ANSWERS_INVALID",
	ErrCodeSurveyAnswersNotFound:  "SURVEY_ANSWERS_NOT_FOUND",
	ErrCodeSurveyStoreFailed:      "SURVEY_STORE_FAILED",
	ErrCodeCatalogUnavailable:     "CATALOG_UNAVAILABLE",
	ErrCodeQueryExecutionFailed:   "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:   "DATABASE_INSERT_FAILED",
	ErrCodeDuplicateSelection:     "DUPLICATE_SELECTION",
	ErrCodePlanNotFound:           "PLAN_NOT_FOUND",
	ErrCodeRecipientNotFound:      "RECIPIENT_NOT_FOUND",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInputParsingFailed:     "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSurveyStoreFailed,
		ErrCodeCatalogUnavailable,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SURVEY"):
		return "SURVEY"
	case strings.HasPrefix(codeStr, "CATALOG") || strings.HasPrefix(codeStr, "PLAN"):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "SELECTION"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "RECIPIENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "PARSING") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
