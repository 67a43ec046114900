package sendquotenotification

import "insurance-quote-workers/internal/common/validation"

type Input struct {
	RecipientID      string                 `json:"recipientId"`
	RecipientType    string                 `json:"recipientType"`
	NotificationType string                 `json:"notificationType"`
	SessionID        string                 `json:"sessionId,omitempty"`
	SelectionID      string                 `json:"selectionId,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}

// Notification types
const (
	TypeQuoteReady   = "quote_ready"
	TypePlanSelected = "plan_selected"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Recipient types
const (
	RecipientTypeCustomer = "customer"
	RecipientTypeAgent    = "agent"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const PriorityHigh = "high"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"recipientId":      {Type: "string", MinLength: validation.Int(1)},
			"recipientType":    {Type: "string", Enum: []string{RecipientTypeCustomer, RecipientTypeAgent}},
			"notificationType": {Type: "string", Enum: []string{TypeQuoteReady, TypePlanSelected}},
			"sessionId":        {Type: "string"},
			"selectionId":      {Type: "string"},
			"priority":         {Type: "string", Enum: []string{"low", "normal", PriorityHigh}},
			"metadata":         {Type: "object"},
		},
		Required:             []string{"recipientId", "recipientType", "notificationType"},
		AdditionalProperties: true,
	}
}
