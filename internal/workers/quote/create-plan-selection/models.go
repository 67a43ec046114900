package createplanselection

import "insurance-quote-workers/internal/common/validation"

type Input struct {
	CustomerID string `json:"customerId"`
	PlanID     string `json:"planId"`
	AgentID    string `json:"agentId"`
	SessionID  string `json:"sessionId"`
	Score      int    `json:"score"`
}

type Output struct {
	SelectionID            string  `json:"selectionId"`
	Status                 string  `json:"status"`
	Premium                float64 `json:"premium"`
	DocumentUploadRequired bool    `json:"documentUploadRequired"`
	CreatedAt              string  `json:"createdAt"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"customerId": {Type: "string", MinLength: validation.Int(1)},
			"planId":     {Type: "string", MinLength: validation.Int(1)},
			"agentId":    {Type: "string"},
			"sessionId":  {Type: "string"},
			"score":      {Type: "integer", Minimum: validation.Float(0)},
		},
		Required:             []string{"customerId", "planId"},
		AdditionalProperties: true,
	}
}
