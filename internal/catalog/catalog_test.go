package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Postgres
// ==========================

var planColumns = []string{
	"id", "company", "tier", "repair_type", "premium_per_year", "coverage_amount",
	"feature_tags", "has_flood_coverage", "has_fire_coverage",
}

func TestPostgresSource_Plans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM insurance_plans").
		WillReturnRows(sqlmock.NewRows(planColumns).
			AddRow("plan-1", "Viriyah", "ชั้น 1", "center", 11500.0, 800000.0, []byte(`{car-damage,roadside}`), true, true).
			AddRow("plan-2", "Dhipaya", "ชั้น 3", "garage", 2900.0, 100000.0, nil, false, false).
			AddRow("plan-3", "Bangkok Insurance", "ชั้น 2+", "garage", 6200.0, 200000.0, []byte(`{"flood assist",continuous-use}`), false, true).
			AddRow("plan-4", "MSIG", "ชั้น 3+", "garage", 4100.0, 150000.0, []byte(`{}`), false, false))

	source := NewPostgresSource(db, logger.NewTestLogger(t))
	plans, err := source.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 4)

	assert.Equal(t, models.InsurancePlan{
		ID:               "plan-1",
		Company:          "Viriyah",
		Tier:             "ชั้น 1",
		RepairType:       models.RepairTypeCenter,
		PremiumPerYear:   11500,
		CoverageAmount:   800000,
		FeatureTags:      []string{"car-damage", "roadside"},
		HasFloodCoverage: true,
		HasFireCoverage:  true,
	}, plans[0])
	assert.Empty(t, plans[1].FeatureTags)
	assert.Equal(t, []string{"flood assist", "continuous-use"}, plans[2].FeatureTags)
	assert.Empty(t, plans[3].FeatureTags)
	assert.Equal(t, "postgres", source.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_MalformedTagArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM insurance_plans").
		WillReturnRows(sqlmock.NewRows(planColumns).
			AddRow("plan-1", "Viriyah", "ชั้น 1", "center", 11500.0, 800000.0, []byte(`["car-damage"]`), true, true))

	_, err = NewPostgresSource(db, logger.NewNoOpLogger()).Plans(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM insurance_plans").WillReturnError(errors.New("connection reset"))

	_, err = NewPostgresSource(db, logger.NewNoOpLogger()).Plans(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

// ==========================
// Elasticsearch
// ==========================

type fakeTransport struct {
	status int
	body   string
	calls  int
	path   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	f.path = req.URL.Path
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newFakeES(t *testing.T, status int, body string) (*elasticsearch.Client, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{status: status, body: body}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://search.local:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return client, transport
}

const searchBody = `{
	"hits": {
		"hits": [
			{"_id": "es-1", "_source": {
				"company": "Viriyah", "tier": "ชั้น 1", "repairType": "center",
				"premiumPerYear": 9000, "coverageAmount": 500000,
				"featureTags": ["roadside"], "hasFloodCoverage": true, "hasFireCoverage": true}},
			{"_id": "es-2", "_source": {
				"company": "Broken", "tier": "ชั้น 1", "repairType": "center",
				"premiumPerYear": 0, "coverageAmount": 500000}},
			{"_id": "es-3", "_source": {
				"id": "plan-3", "company": "Dhipaya", "tier": "ชั้น 3", "repairType": "garage",
				"premiumPerYear": 2500, "coverageAmount": 100000}}
		]
	}
}`

func TestElasticsearchSource_Plans(t *testing.T) {
	client, transport := newFakeES(t, http.StatusOK, searchBody)

	source, err := NewElasticsearchSource(client, "insurance-plans", logger.NewTestLogger(t))
	require.NoError(t, err)

	plans, err := source.Plans(context.Background())
	require.NoError(t, err)

	require.Len(t, plans, 2, "the document with a zero premium is rejected by the schema")
	assert.Equal(t, "es-1", plans[0].ID)
	assert.Equal(t, models.RepairTypeCenter, plans[0].RepairType)
	assert.True(t, plans[0].HasFloodCoverage)
	assert.Equal(t, []string{"roadside"}, plans[0].FeatureTags)
	assert.Equal(t, "plan-3", plans[1].ID)

	assert.Equal(t, 1, transport.calls)
	assert.Equal(t, "/insurance-plans/_search", transport.path)
}

func TestElasticsearchSource_ErrorStatus(t *testing.T) {
	client, _ := newFakeES(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)

	source, err := NewElasticsearchSource(client, "insurance-plans", logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = source.Plans(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

// ==========================
// Redis cache
// ==========================

type stubSource struct {
	plans []models.InsurancePlan
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Plans(context.Context) ([]models.InsurancePlan, error) {
	s.calls++
	return s.plans, s.err
}

func testPlans() []models.InsurancePlan {
	return []models.InsurancePlan{
		{ID: "p1", Company: "Viriyah", Tier: "ชั้น 1", RepairType: models.RepairTypeCenter,
			PremiumPerYear: 9000, CoverageAmount: 500000, FeatureTags: []string{"roadside"}},
	}
}

func TestCachedSource_MissThenStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	stub := &stubSource{plans: testPlans()}
	ttl := 5 * time.Minute

	data, err := json.Marshal(stub.plans)
	require.NoError(t, err)

	mock.ExpectGet("catalog:stub").RedisNil()
	mock.ExpectSet("catalog:stub", data, ttl).SetVal("OK")

	cached := NewCachedSource(stub, rdb, ttl, logger.NewTestLogger(t))
	plans, err := cached.Plans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stub.plans, plans)
	assert.Equal(t, 1, stub.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSource_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	stub := &stubSource{}

	data, err := json.Marshal(testPlans())
	require.NoError(t, err)
	mock.ExpectGet("catalog:stub").SetVal(string(data))

	plans, err := NewCachedSource(stub, rdb, time.Minute, logger.NewTestLogger(t)).Plans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testPlans(), plans)
	assert.Zero(t, stub.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSource_RedisDownFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	stub := &stubSource{plans: testPlans()}

	data, err := json.Marshal(stub.plans)
	require.NoError(t, err)

	mock.ExpectGet("catalog:stub").SetErr(errors.New("dial tcp: connection refused"))
	mock.ExpectSet("catalog:stub", data, time.Minute).SetErr(errors.New("dial tcp: connection refused"))

	plans, err := NewCachedSource(stub, rdb, time.Minute, logger.NewTestLogger(t)).Plans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stub.plans, plans)
	assert.Equal(t, 1, stub.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSource_SourceErrorIsNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	stub := &stubSource{err: ErrCatalogUnavailable}

	mock.ExpectGet("catalog:stub").RedisNil()

	_, err := NewCachedSource(stub, rdb, time.Minute, logger.NewTestLogger(t)).Plans(context.Background())
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// In-process cache
// ==========================

func TestMemorySource_ServesUntilStale(t *testing.T) {
	stub := &stubSource{plans: testPlans()}
	mem, err := NewMemorySource(stub, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		plans, err := mem.Plans(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stub.plans, plans)
	}
	assert.Equal(t, 1, stub.calls)

	now = now.Add(time.Minute)
	_, err = mem.Plans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestMemorySource_ErrorsAreNotKept(t *testing.T) {
	stub := &stubSource{err: ErrCatalogUnavailable}
	mem, err := NewMemorySource(stub, time.Minute)
	require.NoError(t, err)

	_, err = mem.Plans(context.Background())
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))

	stub.err = nil
	stub.plans = testPlans()
	plans, err := mem.Plans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, "stub", mem.Name())
}
