package recommendplans

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"insurance-quote-workers/internal/common/config"
	"insurance-quote-workers/internal/common/errors"
	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/models"
	"insurance-quote-workers/internal/survey"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	plans []models.InsurancePlan
	err   error
}

func (s staticCatalog) Name() string { return "static" }

func (s staticCatalog) Plans(context.Context) ([]models.InsurancePlan, error) {
	return s.plans, s.err
}

func testCatalog() []models.InsurancePlan {
	return []models.InsurancePlan{
		{ID: "p1", Company: "Viriyah", Tier: models.TierFirstClass, RepairType: models.RepairTypeCenter,
			PremiumPerYear: 9000, CoverageAmount: 500000, FeatureTags: []string{models.FeatureCarDamage}},
		{ID: "p2", Company: "Dhipaya", Tier: "ชั้น 2+", RepairType: models.RepairTypeCenter,
			PremiumPerYear: 7500, CoverageAmount: 300000},
		{ID: "p3", Company: "Bangkok", Tier: models.TierFirstClass, RepairType: models.RepairTypeGarage,
			PremiumPerYear: 6000, CoverageAmount: 400000, FeatureTags: []string{models.FeatureCarDamage}},
		{ID: "p4", Company: "MSIG", Tier: models.TierFirstClass, RepairType: models.RepairTypeCenter,
			PremiumPerYear: 15000, CoverageAmount: 900000, FeatureTags: []string{models.FeatureCarDamage}},
	}
}

func testAnswers() models.SurveyAnswers {
	return models.SurveyAnswers{
		Budget:            models.BudgetMid,
		Repair:            models.RepairCenter,
		Coverage:          []models.Coverage{models.CoverageCarDamage},
		Usage:             models.UsageLow,
		AccidentFrequency: models.AccidentOften,
	}
}

func newTestHandler(t *testing.T, source staticCatalog, maxItems int) (*Handler, *survey.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := survey.NewStore(rdb, time.Hour)
	appConfig := &config.Config{Quote: config.QuoteConfig{MaxItems: maxItems}}
	h := NewHandler(HandlerOptions{
		AppConfig: appConfig,
		Catalog:   source,
		Store:     store,
		Logger:    logger.NewTestLogger(t),
	})
	return h, store, mr
}

func planIDs(ranked []models.RankedPlan) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Plan.ID
	}
	return ids
}

func codeOf(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return stdErr.Code
}

func TestHandler_Execute_InlineAnswers(t *testing.T) {
	h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
	answers := testAnswers()

	output, err := h.Execute(context.Background(), &Input{Answers: &answers})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, planIDs(output.RankedPlans))
	assert.Equal(t, 2, output.TotalMatched)
	assert.False(t, output.NoMatch)
}

func TestHandler_Execute_StoredAnswersAreConsumed(t *testing.T) {
	h, store, mr := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
	require.NoError(t, store.Save(context.Background(), "quote-1", testAnswers()))

	output, err := h.Execute(context.Background(), &Input{SessionID: "quote-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, planIDs(output.RankedPlans))
	assert.False(t, mr.Exists("survey:answers:quote-1"))
}

func TestHandler_Execute_Truncates(t *testing.T) {
	answers := testAnswers()
	answers.Budget = models.BudgetHigh

	h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 2)
	output, err := h.Execute(context.Background(), &Input{Answers: &answers})
	require.NoError(t, err)
	assert.Len(t, output.RankedPlans, 2)
	assert.Equal(t, 3, output.TotalMatched)

	output, err = h.Execute(context.Background(), &Input{Answers: &answers, MaxItems: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, planIDs(output.RankedPlans))
}

func TestHandler_Execute_NoMatch(t *testing.T) {
	answers := testAnswers()
	answers.Budget = models.BudgetLow

	h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
	output, err := h.Execute(context.Background(), &Input{Answers: &answers})
	require.NoError(t, err)

	assert.True(t, output.NoMatch)
	assert.Equal(t, 0, output.TotalMatched)
	assert.NotNil(t, output.RankedPlans)
	assert.Empty(t, output.RankedPlans)
}

func TestHandler_Execute_Failures(t *testing.T) {
	incomplete := testAnswers()
	incomplete.Repair = models.RepairUnset

	t.Run("no answers anywhere", func(t *testing.T) {
		h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
		_, err := h.Execute(context.Background(), &Input{})
		assert.Equal(t, errors.ErrCodeSurveyAnswersNotFound, codeOf(t, err))
	})

	t.Run("unknown session", func(t *testing.T) {
		h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
		_, err := h.Execute(context.Background(), &Input{SessionID: "missing"})
		assert.Equal(t, errors.ErrCodeSurveyAnswersNotFound, codeOf(t, err))
	})

	t.Run("store down", func(t *testing.T) {
		h, _, mr := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
		mr.Close()
		_, err := h.Execute(context.Background(), &Input{SessionID: "quote-2"})
		assert.Equal(t, errors.ErrCodeSurveyStoreFailed, codeOf(t, err))
	})

	t.Run("catalog down", func(t *testing.T) {
		answers := testAnswers()
		h, _, _ := newTestHandler(t, staticCatalog{err: stderrors.New("connection refused")}, 20)
		_, err := h.Execute(context.Background(), &Input{Answers: &answers})
		assert.Equal(t, errors.ErrCodeCatalogUnavailable, codeOf(t, err))
	})

	t.Run("incomplete answers", func(t *testing.T) {
		h, _, _ := newTestHandler(t, staticCatalog{plans: testCatalog()}, 20)
		_, err := h.Execute(context.Background(), &Input{Answers: &incomplete})
		assert.Equal(t, errors.ErrCodeSurveyAnswersInvalid, codeOf(t, err))
	})
}

func TestHandler_ParseInput(t *testing.T) {
	h, _, _ := newTestHandler(t, staticCatalog{}, 20)

	input, err := h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{
		Variables: `{"sessionId": "quote-3", "maxItems": 5}`,
	}})
	require.NoError(t, err)
	assert.Equal(t, "quote-3", input.SessionID)
	assert.Equal(t, 5, input.MaxItems)
	assert.Nil(t, input.Answers)

	_, err = h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"maxItems": -1}`}})
	assert.Equal(t, errors.ErrCodeValidationFailed, codeOf(t, err))
}
