package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/models"

	"github.com/lib/pq"
)

const plansQuery = `
	SELECT id, company, tier, repair_type, premium_per_year, coverage_amount,
	       feature_tags, has_flood_coverage, has_fire_coverage
	FROM insurance_plans
	WHERE is_active = true
	ORDER BY display_order, id`

// PostgresSource reads active plans from the insurance_plans table.
// feature_tags is a text[] column.
type PostgresSource struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSource(db *sql.DB, log logger.Logger) *PostgresSource {
	return &PostgresSource{db: db, logger: log}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Plans(ctx context.Context) ([]models.InsurancePlan, error) {
	rows, err := s.db.QueryContext(ctx, plansQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	plans := make([]models.InsurancePlan, 0)
	for rows.Next() {
		var p models.InsurancePlan
		if err := rows.Scan(
			&p.ID, &p.Company, &p.Tier, &p.RepairType, &p.PremiumPerYear, &p.CoverageAmount,
			pq.Array(&p.FeatureTags), &p.HasFloodCoverage, &p.HasFireCoverage,
		); err != nil {
			return nil, fmt.Errorf("%w: scan plan row: %v", ErrCatalogUnavailable, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	s.logger.Debug("catalog loaded", map[string]interface{}{
		"source": s.Name(),
		"plans":  len(plans),
	})
	return plans, nil
}
