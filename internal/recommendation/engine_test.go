package recommendation

import (
	"errors"
	"sync"
	"testing"

	"insurance-quote-workers/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ==========================
// Test Helper Functions
// ==========================

func completeAnswers() models.SurveyAnswers {
	return models.SurveyAnswers{
		Budget:            models.BudgetMid,
		Repair:            models.RepairEither,
		Coverage:          []models.Coverage{models.CoverageAll},
		Usage:             models.UsageLow,
		AccidentFrequency: models.AccidentNever,
	}
}

func plan(id string, premium float64, mods ...func(*models.InsurancePlan)) models.InsurancePlan {
	p := models.InsurancePlan{
		ID:             id,
		Company:        "Test Insurance",
		Tier:           "ชั้น 2+",
		RepairType:     models.RepairTypeGarage,
		PremiumPerYear: premium,
		CoverageAmount: 500000,
	}
	for _, m := range mods {
		m(&p)
	}
	return p
}

func floodAndFire(p *models.InsurancePlan) {
	p.HasFloodCoverage = true
	p.HasFireCoverage = true
}

func tags(t ...string) func(*models.InsurancePlan) {
	return func(p *models.InsurancePlan) { p.FeatureTags = t }
}

func firstClass(p *models.InsurancePlan) { p.Tier = models.TierFirstClass }

func center(p *models.InsurancePlan) { p.RepairType = models.RepairTypeCenter }

func planIDs(ranked []models.RankedPlan) []string {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Plan.ID)
	}
	return ids
}

// ==========================
// Validation Tests
// ==========================

func TestRecommend_InvalidAnswers(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(a *models.SurveyAnswers)
		wantMissing []string
	}{
		{"budget unset", func(a *models.SurveyAnswers) { a.Budget = "" }, []string{"budget"}},
		{"repair unset", func(a *models.SurveyAnswers) { a.Repair = "" }, []string{"repair"}},
		{"usage unset", func(a *models.SurveyAnswers) { a.Usage = "" }, []string{"usage"}},
		{"accident frequency unset", func(a *models.SurveyAnswers) { a.AccidentFrequency = "" }, []string{"accidentFrequency"}},
		{"coverage empty", func(a *models.SurveyAnswers) { a.Coverage = nil }, []string{"coverage"}},
		{"unknown coverage tag", func(a *models.SurveyAnswers) {
			a.Coverage = []models.Coverage{models.CoverageAll, "windscreen"}
		}, []string{"coverage"}},
		{"unknown budget band", func(a *models.SurveyAnswers) { a.Budget = "premium" }, []string{"budget"}},
		{"everything unset", func(a *models.SurveyAnswers) { *a = models.SurveyAnswers{} },
			[]string{"budget", "repair", "coverage", "usage", "accidentFrequency"}},
	}

	catalog := []models.InsurancePlan{plan("A", 4000, floodAndFire)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := completeAnswers()
			tt.mutate(&answers)

			ranked, err := Recommend(answers, catalog)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAnswers))
			assert.Nil(t, ranked)
			assert.Equal(t, tt.wantMissing, MissingFields(answers))
		})
	}
}

func TestMissingFields_Complete(t *testing.T) {
	assert.Empty(t, MissingFields(completeAnswers()))
	assert.NoError(t, Validate(completeAnswers()))
}

// ==========================
// Hard Filter Tests
// ==========================

func TestRecommend_MidBudgetAllCoverage(t *testing.T) {
	catalog := []models.InsurancePlan{
		plan("A", 9000, floodAndFire),
		plan("B", 15000, floodAndFire),
	}

	ranked, err := Recommend(completeAnswers(), catalog)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Equal(t, "A", ranked[0].Plan.ID)
	assert.Equal(t, 3, ranked[0].Score)
	assert.Contains(t, ranked[0].MatchedCriteria, CriterionAllCoverage)
	assert.Contains(t, ranked[0].MatchedCriteria, CriterionWithinBudget)
}

func TestRecommend_BudgetCeilingsAreInclusive(t *testing.T) {
	tests := []struct {
		budget  models.Budget
		atLimit float64
	}{
		{models.BudgetLow, 5000},
		{models.BudgetMidLow, 8000},
		{models.BudgetMid, 12000},
	}

	for _, tt := range tests {
		t.Run(string(tt.budget), func(t *testing.T) {
			answers := completeAnswers()
			answers.Budget = tt.budget

			ranked, err := Recommend(answers, []models.InsurancePlan{
				plan("at-limit", tt.atLimit),
				plan("over-limit", tt.atLimit+1),
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"at-limit"}, planIDs(ranked))
		})
	}
}

func TestRecommend_HighBudgetIsUnbounded(t *testing.T) {
	answers := completeAnswers()
	answers.Budget = models.BudgetHigh

	ranked, err := Recommend(answers, []models.InsurancePlan{plan("pricey", 95000)})
	require.NoError(t, err)
	assert.Equal(t, []string{"pricey"}, planIDs(ranked))

	_, bounded := BudgetCeiling(models.BudgetHigh)
	assert.False(t, bounded)
}

func TestRecommend_RepairFilter(t *testing.T) {
	catalog := []models.InsurancePlan{
		plan("garage", 4000),
		plan("center", 4500, center),
	}

	tests := []struct {
		repair models.Repair
		want   []string
	}{
		{models.RepairGarage, []string{"garage"}},
		{models.RepairCenter, []string{"center"}},
		{models.RepairEither, []string{"garage", "center"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.repair), func(t *testing.T) {
			answers := completeAnswers()
			answers.Repair = tt.repair

			ranked, err := Recommend(answers, catalog)
			require.NoError(t, err)
			assert.Equal(t, tt.want, planIDs(ranked))
			for _, r := range ranked {
				if tt.repair != models.RepairEither {
					assert.Equal(t, string(tt.repair), string(r.Plan.RepairType))
					assert.Contains(t, r.MatchedCriteria, CriterionRepairType)
				} else {
					assert.NotContains(t, r.MatchedCriteria, CriterionRepairType)
				}
			}
		})
	}
}

func TestRecommend_SkipsPlansWithNonPositiveAmounts(t *testing.T) {
	broken := plan("zero-coverage", 3000)
	broken.CoverageAmount = 0

	ranked, err := Recommend(completeAnswers(), []models.InsurancePlan{
		plan("free", 0),
		broken,
		plan("ok", 3000),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, planIDs(ranked))
}

// ==========================
// Scoring Tests
// ==========================

func TestRecommend_Scoring(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(a *models.SurveyAnswers)
		plan          models.InsurancePlan
		wantScore     int
		wantCriterion string
	}{
		{
			name:      "all coverage needs both flood and fire",
			plan:      plan("fire-only", 5000, func(p *models.InsurancePlan) { p.HasFireCoverage = true }),
			wantScore: 0,
		},
		{
			name: "car damage tag",
			mutate: func(a *models.SurveyAnswers) {
				a.Coverage = []models.Coverage{models.CoverageCarDamage}
			},
			plan:          plan("cd", 5000, tags(models.FeatureCarDamage)),
			wantScore:     2,
			wantCriterion: CriterionCarDamage,
		},
		{
			name: "fire theft",
			mutate: func(a *models.SurveyAnswers) {
				a.Coverage = []models.Coverage{models.CoverageFireTheft}
			},
			plan:          plan("ft", 5000, func(p *models.InsurancePlan) { p.HasFireCoverage = true }),
			wantScore:     2,
			wantCriterion: CriterionFireTheft,
		},
		{
			name: "third party only without collision add-ons",
			mutate: func(a *models.SurveyAnswers) {
				a.Coverage = []models.Coverage{models.CoverageThirdPartyOnly}
			},
			plan:          plan("tpo", 2000, tags(models.FeatureRoadside)),
			wantScore:     2,
			wantCriterion: CriterionThirdPartyOnly,
		},
		{
			name: "third party only rejects collision add-ons",
			mutate: func(a *models.SurveyAnswers) {
				a.Coverage = []models.Coverage{models.CoverageThirdPartyOnly}
			},
			plan:      plan("collision", 2000, tags(models.FeatureCollision)),
			wantScore: 0,
		},
		{
			name: "frequent accidents favour first class",
			mutate: func(a *models.SurveyAnswers) {
				a.AccidentFrequency = models.AccidentOften
			},
			plan:          plan("t1", 11000, firstClass),
			wantScore:     2,
			wantCriterion: CriterionHighRiskTier,
		},
		{
			name: "occasional accidents favour first class",
			mutate: func(a *models.SurveyAnswers) {
				a.AccidentFrequency = models.AccidentSometimes
			},
			plan:          plan("t1", 11000, firstClass),
			wantScore:     2,
			wantCriterion: CriterionHighRiskTier,
		},
		{
			name: "rare accidents do not",
			mutate: func(a *models.SurveyAnswers) {
				a.AccidentFrequency = models.AccidentRare
			},
			plan:      plan("t1", 11000, firstClass),
			wantScore: 0,
		},
		{
			name: "high usage with roadside",
			mutate: func(a *models.SurveyAnswers) {
				a.Usage = models.UsageHigh
			},
			plan:          plan("rs", 7000, tags(models.FeatureContinuousUse)),
			wantScore:     1,
			wantCriterion: CriterionRoadside,
		},
		{
			name: "everything at once",
			mutate: func(a *models.SurveyAnswers) {
				a.Coverage = []models.Coverage{models.CoverageAll, models.CoverageCarDamage, models.CoverageFireTheft}
				a.AccidentFrequency = models.AccidentOften
				a.Usage = models.UsageHigh
			},
			plan:      plan("max", 12000, floodAndFire, firstClass, tags(models.FeatureCarDamage, models.FeatureRoadside)),
			wantScore: 3 + 2 + 2 + 2 + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := completeAnswers()
			if tt.mutate != nil {
				tt.mutate(&answers)
			}

			ranked, err := Recommend(answers, []models.InsurancePlan{tt.plan})
			require.NoError(t, err)
			require.Len(t, ranked, 1)
			assert.Equal(t, tt.wantScore, ranked[0].Score)
			if tt.wantCriterion != "" {
				assert.Contains(t, ranked[0].MatchedCriteria, tt.wantCriterion)
			}
		})
	}
}

// ==========================
// Ordering Tests
// ==========================

func TestRecommend_Ordering(t *testing.T) {
	catalog := []models.InsurancePlan{
		plan("cheap-low-score", 3000),
		plan("expensive-high-score", 11000, floodAndFire),
		plan("cheap-high-score", 9000, floodAndFire),
		plan("tie-first", 6000),
		plan("tie-second", 6000),
	}

	ranked, err := Recommend(completeAnswers(), catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cheap-high-score",
		"expensive-high-score",
		"cheap-low-score",
		"tie-first",
		"tie-second",
	}, planIDs(ranked))

	for i := 1; i < len(ranked); i++ {
		prev, cur := ranked[i-1], ranked[i]
		assert.True(t, prev.Score > cur.Score ||
			(prev.Score == cur.Score && prev.Plan.PremiumPerYear <= cur.Plan.PremiumPerYear))
	}
}

func TestRecommend_EmptyResults(t *testing.T) {
	ranked, err := Recommend(completeAnswers(), nil)
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)

	answers := completeAnswers()
	answers.Budget = models.BudgetLow
	ranked, err = Recommend(answers, []models.InsurancePlan{plan("too-expensive", 5001)})
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRecommend_IdempotentAndLeavesCatalogUntouched(t *testing.T) {
	catalog := []models.InsurancePlan{
		plan("b", 8000, floodAndFire),
		plan("a", 4000),
		plan("c", 4000, floodAndFire, center),
	}
	snapshot := append([]models.InsurancePlan(nil), catalog...)

	first, err := Recommend(completeAnswers(), catalog)
	require.NoError(t, err)
	second, err := Recommend(completeAnswers(), catalog)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, catalog); diff != "" {
		t.Errorf("catalog was modified (-before +after):\n%s", diff)
	}
}

func TestRecommend_ConcurrentCalls(t *testing.T) {
	catalog := []models.InsurancePlan{
		plan("a", 9000, floodAndFire),
		plan("b", 7000),
	}
	want, err := Recommend(completeAnswers(), catalog)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Recommend(completeAnswers(), catalog)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
