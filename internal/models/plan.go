package models

// RepairType is where a plan sends the car for repair.
type RepairType string

const (
	RepairTypeGarage RepairType = "garage"
	RepairTypeCenter RepairType = "center"
)

// TierFirstClass is the comprehensive tier label used by Thai insurers.
const TierFirstClass = "ชั้น 1"

// Feature tags understood by the recommendation rules.
const (
	FeatureCarDamage     = "car-damage"
	FeatureCollision     = "collision"
	FeatureRoadside      = "roadside"
	FeatureContinuousUse = "continuous-use"
)

// InsurancePlan is a read-only catalog entry.
type InsurancePlan struct {
	ID               string     `json:"id" db:"id"`
	Company          string     `json:"company" db:"company"`
	Tier             string     `json:"tier" db:"tier"`
	RepairType       RepairType `json:"repairType" db:"repair_type"`
	PremiumPerYear   float64    `json:"premiumPerYear" db:"premium_per_year"`
	CoverageAmount   float64    `json:"coverageAmount" db:"coverage_amount"`
	FeatureTags      []string   `json:"featureTags" db:"feature_tags"`
	HasFloodCoverage bool       `json:"hasFloodCoverage" db:"has_flood_coverage"`
	HasFireCoverage  bool       `json:"hasFireCoverage" db:"has_fire_coverage"`
}

// HasTag reports whether the plan carries any of the given feature tags.
func (p InsurancePlan) HasTag(tags ...string) bool {
	for _, have := range p.FeatureTags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// RankedPlan is a plan that passed the hard filters, with its score and the
// rules that contributed to it.
type RankedPlan struct {
	Plan            InsurancePlan `json:"plan"`
	Score           int           `json:"score"`
	MatchedCriteria []string      `json:"matchedCriteria"`
}
