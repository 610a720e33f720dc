package interfaces

import (
	"context"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

// ImportWriter persists one import batch atomically. All rows of a batch
// commit together or not at all.
type ImportWriter interface {
	// ProofpointImport writes the batch record and its click events in one
	// transaction. Events whose dedupe hash already exists are skipped;
	// the returned count is the number of rows actually inserted.
	// When replaceMonth is set, the month's prior events are deleted first.
	ProofpointImport(ctx context.Context, batch *models.ImportBatch, events []*models.ClickEvent, replaceMonth bool) (int64, error)

	// ReportedImport writes the batch record, replaces the month's detail
	// rows, and upserts the monthly total, in one transaction.
	ReportedImport(ctx context.Context, batch *models.ImportBatch, events []*models.ReportedEvent, total *models.ReportedTotal) error
}
