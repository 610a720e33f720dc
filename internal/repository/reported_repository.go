package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

type reportedRepository struct {
	db *gorm.DB
}

func NewReportedRepository(db *gorm.DB) interfaces.ReportedRepository {
	return &reportedRepository{db: db}
}

func (r *reportedRepository) TotalForMonth(ctx context.Context, month time.Time) (*models.ReportedTotal, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportedRepository.TotalForMonth")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var total models.ReportedTotal
	err := r.db.WithContext(ctx).Where("month_key = ?", month).First(&total).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get reported total: %w", err)
	}

	return &total, nil
}

func (r *reportedRepository) TotalsForMonths(ctx context.Context, months []time.Time) ([]models.ReportedTotal, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportedRepository.TotalsForMonths")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var totals []models.ReportedTotal
	err := r.db.WithContext(ctx).
		Where("month_key IN ?", months).
		Order("month_key").
		Find(&totals).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get reported totals: %w", err)
	}

	return totals, nil
}

func (r *reportedRepository) EventsForMonth(ctx context.Context, month time.Time, limit int) ([]models.ReportedEvent, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reportedRepository.EventsForMonth")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Where("month_key = ?", month).Order("issue_key")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.ReportedEvent
	if err := query.Find(&events).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get reported events: %w", err)
	}

	return events, nil
}
