// Package recommendation ranks catalog plans against a customer's
// questionnaire answers. Every function here is pure: no I/O, no clock, no
// shared state.
package recommendation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"insurance-quote-workers/internal/models"
)

// ErrInvalidAnswers is returned when a submission is incomplete.
var ErrInvalidAnswers = errors.New("INVALID_ANSWERS")

// Criteria reported in RankedPlan.MatchedCriteria.
const (
	CriterionWithinBudget   = "within-budget"
	CriterionRepairType     = "repair-type"
	CriterionAllCoverage    = "all-coverage"
	CriterionCarDamage      = "car-damage"
	CriterionFireTheft      = "fire-theft"
	CriterionThirdPartyOnly = "third-party-only"
	CriterionHighRiskTier   = "high-risk-tier"
	CriterionRoadside       = "roadside"
)

// budgetCeilings holds the inclusive premium ceiling per band. BudgetHigh
// is unbounded.
var budgetCeilings = map[models.Budget]float64{
	models.BudgetLow:    5000,
	models.BudgetMidLow: 8000,
	models.BudgetMid:    12000,
}

// BudgetCeiling returns the yearly premium ceiling for a band and whether the
// band is bounded at all.
func BudgetCeiling(b models.Budget) (float64, bool) {
	ceiling, ok := budgetCeilings[b]
	return ceiling, ok
}

type rule struct {
	criterion string
	points    int
	match     func(a models.SurveyAnswers, p models.InsurancePlan) bool
}

var rules = []rule{
	{
		criterion: CriterionAllCoverage,
		points:    3,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			return a.Wants(models.CoverageAll) && p.HasFloodCoverage && p.HasFireCoverage
		},
	},
	{
		criterion: CriterionCarDamage,
		points:    2,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			return a.Wants(models.CoverageCarDamage) && p.HasTag(models.FeatureCarDamage)
		},
	},
	{
		criterion: CriterionFireTheft,
		points:    2,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			return a.Wants(models.CoverageFireTheft) && p.HasFireCoverage
		},
	},
	{
		criterion: CriterionThirdPartyOnly,
		points:    2,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			return a.Wants(models.CoverageThirdPartyOnly) &&
				!p.HasTag(models.FeatureCarDamage, models.FeatureCollision)
		},
	},
	{
		criterion: CriterionHighRiskTier,
		points:    2,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			risky := a.AccidentFrequency == models.AccidentSometimes || a.AccidentFrequency == models.AccidentOften
			return risky && strings.TrimSpace(p.Tier) == models.TierFirstClass
		},
	},
	{
		criterion: CriterionRoadside,
		points:    1,
		match: func(a models.SurveyAnswers, p models.InsurancePlan) bool {
			return a.Usage == models.UsageHigh && p.HasTag(models.FeatureRoadside, models.FeatureContinuousUse)
		},
	},
}

// MissingFields lists the answers that are unset or hold an unknown value, in
// questionnaire order. An empty result means the submission is complete.
func MissingFields(a models.SurveyAnswers) []string {
	var missing []string
	if !a.Budget.Valid() {
		missing = append(missing, "budget")
	}
	if !a.Repair.Valid() {
		missing = append(missing, "repair")
	}
	if !coverageValid(a.Coverage) {
		missing = append(missing, "coverage")
	}
	if !a.Usage.Valid() {
		missing = append(missing, "usage")
	}
	if !a.AccidentFrequency.Valid() {
		missing = append(missing, "accidentFrequency")
	}
	return missing
}

func coverageValid(coverage []models.Coverage) bool {
	if len(coverage) == 0 {
		return false
	}
	for _, c := range coverage {
		if !c.Valid() {
			return false
		}
	}
	return true
}

// Validate returns an error wrapping ErrInvalidAnswers when the submission
// is incomplete.
func Validate(a models.SurveyAnswers) error {
	if missing := MissingFields(a); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAnswers, strings.Join(missing, ","))
	}
	return nil
}

// Recommend filters the catalog by repair venue and budget, scores what is
// left and returns it ordered by score descending, then premium ascending,
// then catalog order. An empty result is not an error.
func Recommend(a models.SurveyAnswers, catalog []models.InsurancePlan) ([]models.RankedPlan, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}

	ranked := make([]models.RankedPlan, 0, len(catalog))
	for _, p := range catalog {
		if !eligible(a, p) {
			continue
		}
		ranked = append(ranked, score(a, p))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Plan.PremiumPerYear < ranked[j].Plan.PremiumPerYear
	})

	return ranked, nil
}

// eligible applies the hard filters. Plans breaking the catalog invariants
// (non-positive premium or coverage) are never offered.
func eligible(a models.SurveyAnswers, p models.InsurancePlan) bool {
	if p.PremiumPerYear <= 0 || p.CoverageAmount <= 0 {
		return false
	}
	if a.Repair != models.RepairEither && string(p.RepairType) != string(a.Repair) {
		return false
	}
	if ceiling, bounded := BudgetCeiling(a.Budget); bounded && p.PremiumPerYear > ceiling {
		return false
	}
	return true
}

func score(a models.SurveyAnswers, p models.InsurancePlan) models.RankedPlan {
	rp := models.RankedPlan{
		Plan:            p,
		MatchedCriteria: []string{CriterionWithinBudget},
	}
	if a.Repair != models.RepairEither {
		rp.MatchedCriteria = append(rp.MatchedCriteria, CriterionRepairType)
	}
	for _, r := range rules {
		if r.match(a, p) {
			rp.Score += r.points
			rp.MatchedCriteria = append(rp.MatchedCriteria, r.criterion)
		}
	}
	return rp
}
