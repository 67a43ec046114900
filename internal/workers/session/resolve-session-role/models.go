package resolvesessionrole

import (
	"insurance-quote-workers/internal/common/validation"
	"insurance-quote-workers/internal/models"
)

type Input struct {
	Credential string      `json:"credential"`
	Section    models.Role `json:"section"`
}

type Output struct {
	Authenticated   bool   `json:"authenticated"`
	Role            string `json:"role"`
	SubjectID       string `json:"subjectId"`
	Allowed         bool   `json:"allowed"`
	RedirectTo      string `json:"redirectTo"`
	ClearCredential bool   `json:"clearCredential"`
	Reason          string `json:"reason"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"credential": {Type: "string", MaxLength: validation.Int(8192)},
			"section": {
				Type: "string",
				Enum: []string{string(models.RoleCustomer), string(models.RoleAgent), string(models.RoleAdmin)},
			},
		},
		Required:             []string{"section"},
		AdditionalProperties: true,
	}
}
