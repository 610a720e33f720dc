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

type falsePositiveRuleRepository struct {
	db *gorm.DB
}

func NewFalsePositiveRuleRepository(db *gorm.DB) interfaces.FalsePositiveRuleRepository {
	return &falsePositiveRuleRepository{db: db}
}

func (r *falsePositiveRuleRepository) Save(ctx context.Context, rule *models.FalsePositiveRule) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "falsePositiveRuleRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

func (r *falsePositiveRuleRepository) List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "falsePositiveRuleRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Model(&models.FalsePositiveRule{})
	if activeOnly {
		query = query.Where("is_active = true")
	}

	var rules []models.FalsePositiveRule
	if err := query.Order("created_at DESC").Find(&rules).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, nil
}

func (r *falsePositiveRuleRepository) GetByID(ctx context.Context, id string) (*models.FalsePositiveRule, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "falsePositiveRuleRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("ruleID", id)

	var rule models.FalsePositiveRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, localerrors.ErrRuleNotFound
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &rule, nil
}

func (r *falsePositiveRuleRepository) Deactivate(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "falsePositiveRuleRepository.Deactivate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("ruleID", id)

	result := r.db.WithContext(ctx).
		Model(&models.FalsePositiveRule{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to deactivate rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return localerrors.ErrRuleNotFound
	}

	return nil
}

func (r *falsePositiveRuleRepository) RecordRun(ctx context.Context, run *models.FalsePositiveRuleRun) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "falsePositiveRuleRepository.RecordRun")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to record rule run: %w", err)
	}

	return nil
}
