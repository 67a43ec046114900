// Package catalog loads the insurance plan catalog the recommendation engine
// ranks. Plans live in Postgres or in a search index, optionally behind a
// Redis cache.
package catalog

import (
	"context"
	"errors"

	"insurance-quote-workers/internal/models"
)

// ErrCatalogUnavailable wraps every failure to read the catalog.
var ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")

// Source returns the current, read-only plan catalog in display order.
type Source interface {
	Plans(ctx context.Context) ([]models.InsurancePlan, error)
	Name() string
}
