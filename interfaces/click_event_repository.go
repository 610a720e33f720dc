package interfaces

import (
	"context"
	"time"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type ClickEventRepository interface {
	// ClickedUsers returns the month's clicked rows, false positives excluded
	ClickedUsers(ctx context.Context, month time.Time) ([]models.ClickEvent, error)

	// MonthlyStats aggregates click totals per month for the given months,
	// false positives excluded
	MonthlyStats(ctx context.Context, months []time.Time) ([]models.MonthlyClickStats, error)

	// RepeatOffenders aggregates clicks for the given users between start and
	// end (inclusive), keeping those at or above threshold total clicks
	RepeatOffenders(ctx context.Context, emails []string, start, end time.Time, threshold int) ([]models.RepeatOffender, error)

	// ClickHistory returns the click rows for the given users between start
	// and end, for the repeat offender detail view
	ClickHistory(ctx context.Context, emails []string, start, end time.Time) ([]models.ClickEvent, error)

	Inventory(ctx context.Context) (*models.InventorySummary, error)

	CountMatching(ctx context.Context, match models.ClickEventMatch) (int64, error)
	FindMatching(ctx context.Context, match models.ClickEventMatch, limit int) ([]models.ClickEvent, error)

	// MarkFalsePositives flags matching rows without deleting them and
	// returns the number of rows affected
	MarkFalsePositives(ctx context.Context, match models.ClickEventMatch, reason, comment, setBy string) (int64, error)
}
