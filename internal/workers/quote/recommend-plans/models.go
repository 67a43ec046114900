package recommendplans

import (
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"
)

type Input struct {
	SessionID string                `json:"sessionId"`
	Answers   *models.SurveyAnswers `json:"answers,omitempty"`
	MaxItems  int                   `json:"maxItems"`
}

type Output struct {
	RankedPlans  []models.RankedPlan `json:"rankedPlans"`
	TotalMatched int                 `json:"totalMatched"`
	NoMatch      bool                `json:"noMatch"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {Type: "string", MaxLength: validation.Int(128)},
			"answers":   {Type: "object"},
			"maxItems":  {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
		},
		AdditionalProperties: true,
	}
}
