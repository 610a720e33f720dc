package interfaces

import (
	"context"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type ImportBatchRepository interface {
	// List returns recent batches, newest first; source "" means all sources
	List(ctx context.Context, source models.ImportSource, limit int) ([]models.ImportBatch, error)

	GetByID(ctx context.Context, id string) (*models.ImportBatch, error)

	// Delete removes the batch together with the rows it imported and
	// returns the number of event rows deleted
	Delete(ctx context.Context, id string) (int64, error)
}
