package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

const insertBatchSize = 500

type importWriter struct {
	db *gorm.DB
}

func NewImportWriter(db *gorm.DB) interfaces.ImportWriter {
	return &importWriter{db: db}
}

// ProofpointImport commits the batch audit row and its click events together.
// Duplicate rows (same dedupe hash) are skipped via ON CONFLICT DO NOTHING.
func (w *importWriter) ProofpointImport(ctx context.Context, batch *models.ImportBatch, events []*models.ClickEvent, replaceMonth bool) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "importWriter.ProofpointImport")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var inserted int64
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create import batch: %w", err)
		}

		if replaceMonth {
			if err := tx.Where("month_key = ?", batch.MonthKey).Delete(&models.ClickEvent{}).Error; err != nil {
				return fmt.Errorf("failed to clear month before re-import: %w", err)
			}
		}

		if len(events) > 0 {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "dedupe_hash"}},
				DoNothing: true,
			}).CreateInBatches(events, insertBatchSize)
			if result.Error != nil {
				return fmt.Errorf("failed to insert click events: %w", result.Error)
			}
			inserted = result.RowsAffected
		}

		if err := tx.Model(batch).Update("row_count", inserted).Error; err != nil {
			return fmt.Errorf("failed to update batch row count: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	batch.RowCount = int(inserted)
	return inserted, nil
}

// ReportedImport replaces the month's detail rows and overwrites the monthly
// total. Totals are a snapshot of the last import, never a running sum.
func (w *importWriter) ReportedImport(ctx context.Context, batch *models.ImportBatch, events []*models.ReportedEvent, total *models.ReportedTotal) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "importWriter.ReportedImport")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create import batch: %w", err)
		}

		if err := tx.Where("month_key = ?", batch.MonthKey).Delete(&models.ReportedEvent{}).Error; err != nil {
			return fmt.Errorf("failed to replace reported events: %w", err)
		}

		if len(events) > 0 {
			if err := tx.CreateInBatches(events, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert reported events: %w", err)
			}
		}

		total.UpdatedAt = utils.Now()
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "month_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_reported", "filename", "batch_id", "updated_at",
			}),
		}).Create(total).Error; err != nil {
			return fmt.Errorf("failed to upsert reported total: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
