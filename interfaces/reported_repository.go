package interfaces

import (
	"context"
	"time"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type ReportedRepository interface {
	// TotalForMonth returns the month's snapshot or nil when none exists
	TotalForMonth(ctx context.Context, month time.Time) (*models.ReportedTotal, error)

	TotalsForMonths(ctx context.Context, months []time.Time) ([]models.ReportedTotal, error)

	// EventsForMonth returns the month's detail rows from the last import
	EventsForMonth(ctx context.Context, month time.Time, limit int) ([]models.ReportedEvent, error)
}
