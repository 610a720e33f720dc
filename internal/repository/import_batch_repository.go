package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

type importBatchRepository struct {
	db *gorm.DB
}

func NewImportBatchRepository(db *gorm.DB) interfaces.ImportBatchRepository {
	return &importBatchRepository{db: db}
}

func (r *importBatchRepository) List(ctx context.Context, source models.ImportSource, limit int) ([]models.ImportBatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "importBatchRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Model(&models.ImportBatch{})
	if source != "" {
		query = query.Where("source = ?", source)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var batches []models.ImportBatch
	if err := query.Order("created_at DESC").Find(&batches).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}

	return batches, nil
}

func (r *importBatchRepository) GetByID(ctx context.Context, id string) (*models.ImportBatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "importBatchRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("batchID", id)

	var batch models.ImportBatch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&batch).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, localerrors.ErrBatchNotFound
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}

	return &batch, nil
}

func (r *importBatchRepository) Delete(ctx context.Context, id string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "importBatchRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("batchID", id)

	batch, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch batch.Source {
		case models.ImportSourceProofpoint:
			result := tx.Where("batch_id = ?", id).Delete(&models.ClickEvent{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete click events: %w", result.Error)
			}
			deleted = result.RowsAffected
		case models.ImportSourceReported:
			result := tx.Where("batch_id = ?", id).Delete(&models.ReportedEvent{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete reported events: %w", result.Error)
			}
			deleted = result.RowsAffected
			if err := tx.Where("batch_id = ?", id).Delete(&models.ReportedTotal{}).Error; err != nil {
				return fmt.Errorf("failed to delete reported total: %w", err)
			}
		}
		if err := tx.Where("id = ?", id).Delete(&models.ImportBatch{}).Error; err != nil {
			return fmt.Errorf("failed to delete import batch: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return deleted, nil
}
