package interfaces

import (
	"context"
	"time"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type InvestigationRepository interface {
	// JSONKeys returns the distinct raw_json keys present in the filtered
	// dataset; months empty means all months
	JSONKeys(ctx context.Context, months []time.Time) ([]string, error)

	// DistinctValues returns the distinct non-empty values of a field,
	// promoted column or raw_json key
	DistinctValues(ctx context.Context, field string, months []time.Time, includeFlagged bool, limit int) ([]string, error)

	// Search runs a validated multi-filter query and returns one page of
	// projected rows plus the total match count
	Search(ctx context.Context, query models.SearchQuery) ([]map[string]interface{}, int64, error)

	// FetchByIDs returns projected rows for an explicit id selection
	FetchByIDs(ctx context.Context, ids []string, fields []string) ([]map[string]interface{}, error)
}
