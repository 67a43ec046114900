package models

// Budget is the yearly premium band picked in the questionnaire.
type Budget string

const (
	BudgetUnset  Budget = ""
	BudgetLow    Budget = "low"
	BudgetMidLow Budget = "mid-low"
	BudgetMid    Budget = "mid"
	BudgetHigh   Budget = "high"
)

// Valid reports whether b is one of the known bands.
func (b Budget) Valid() bool {
	switch b {
	case BudgetLow, BudgetMidLow, BudgetMid, BudgetHigh:
		return true
	}
	return false
}

// Repair is the preferred repair venue.
type Repair string

const (
	RepairUnset  Repair = ""
	RepairCenter Repair = "center"
	RepairGarage Repair = "garage"
	RepairEither Repair = "either"
)

func (r Repair) Valid() bool {
	switch r {
	case RepairCenter, RepairGarage, RepairEither:
		return true
	}
	return false
}

// Coverage is a requested coverage tag.
type Coverage string

const (
	CoverageAll            Coverage = "all"
	CoverageCarDamage      Coverage = "car-damage"
	CoverageFireTheft      Coverage = "fire-theft"
	CoverageThirdPartyOnly Coverage = "third-party-only"
)

func (c Coverage) Valid() bool {
	switch c {
	case CoverageAll, CoverageCarDamage, CoverageFireTheft, CoverageThirdPartyOnly:
		return true
	}
	return false
}

// Usage is how much the vehicle is driven.
type Usage string

const (
	UsageUnset Usage = ""
	UsageLow   Usage = "low"
	UsageMid   Usage = "mid"
	UsageHigh  Usage = "high"
)

func (u Usage) Valid() bool {
	switch u {
	case UsageLow, UsageMid, UsageHigh:
		return true
	}
	return false
}

// AccidentFrequency is the self-reported accident history.
type AccidentFrequency string

const (
	AccidentUnset     AccidentFrequency = ""
	AccidentNever     AccidentFrequency = "never"
	AccidentRare      AccidentFrequency = "rare"
	AccidentSometimes AccidentFrequency = "sometimes"
	AccidentOften     AccidentFrequency = "often"
)

func (a AccidentFrequency) Valid() bool {
	switch a {
	case AccidentNever, AccidentRare, AccidentSometimes, AccidentOften:
		return true
	}
	return false
}

// SurveyAnswers is one customer's questionnaire submission. Empty strings
// mean the question has not been answered yet.
type SurveyAnswers struct {
	Budget            Budget            `json:"budget"`
	Repair            Repair            `json:"repair"`
	Coverage          []Coverage        `json:"coverage"`
	Usage             Usage             `json:"usage"`
	AccidentFrequency AccidentFrequency `json:"accidentFrequency"`
}

// Wants reports whether c was requested.
func (a SurveyAnswers) Wants(c Coverage) bool {
	for _, got := range a.Coverage {
		if got == c {
			return true
		}
	}
	return false
}
