package validatesurveyanswers

import (
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"
)

type Input struct {
	SessionID string               `json:"sessionId"`
	Answers   models.SurveyAnswers `json:"answers"`
}

type Output struct {
	Valid         bool     `json:"valid"`
	SessionID     string   `json:"sessionId"`
	MissingFields []string `json:"missingFields"`
}

// GetInputSchema checks shapes only. Unset or unknown answer values are
// reported through Output.MissingFields instead of failing the job.
func GetInputSchema() validation.JSONSchema {
	stringItem := validation.Property{Type: "string"}
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionId": {Type: "string", MaxLength: validation.Int(128)},
			"answers": {
				Type: "object",
				Properties: map[string]validation.Property{
					"budget":            {Type: "string"},
					"repair":            {Type: "string"},
					"coverage":          {Type: "array", Items: &stringItem},
					"usage":             {Type: "string"},
					"accidentFrequency": {Type: "string"},
				},
			},
		},
		Required:             []string{"answers"},
		AdditionalProperties: true,
	}
}
