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
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

type clickEventRepository struct {
	db *gorm.DB
}

func NewClickEventRepository(db *gorm.DB) interfaces.ClickEventRepository {
	return &clickEventRepository{db: db}
}

// matchableColumns guards the column names interpolated into match SQL
var matchableColumns = func() map[string]bool {
	cols := make(map[string]bool, len(models.RuleFields))
	for _, col := range models.RuleFields {
		cols[col] = true
	}
	return cols
}()

func (r *clickEventRepository) ClickedUsers(ctx context.Context, month time.Time) ([]models.ClickEvent, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.ClickedUsers")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var events []models.ClickEvent
	err := r.db.WithContext(ctx).
		Where("month_key = ? AND click_count > 0 AND is_false_positive = false", month).
		Order("email_norm").
		Find(&events).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get clicked users: %w", err)
	}

	return events, nil
}

func (r *clickEventRepository) MonthlyStats(ctx context.Context, months []time.Time) ([]models.MonthlyClickStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.MonthlyStats")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var stats []models.MonthlyClickStats
	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Select("month_key, SUM(click_count) AS total_clicks, COUNT(DISTINCT email_norm) AS clickers").
		Where("month_key IN ? AND click_count > 0 AND is_false_positive = false", months).
		Group("month_key").
		Order("month_key").
		Scan(&stats).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get monthly click stats: %w", err)
	}

	return stats, nil
}

func (r *clickEventRepository) RepeatOffenders(ctx context.Context, emails []string, start, end time.Time, threshold int) ([]models.RepeatOffender, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.RepeatOffenders")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(emails) == 0 {
		return nil, nil
	}

	var offenders []models.RepeatOffender
	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Select("email_norm, SUM(click_count) AS total_clicks, COUNT(*) AS months_with_clicks").
		Where("email_norm IN ? AND month_key >= ? AND month_key <= ? AND click_count > 0 AND is_false_positive = false", emails, start, end).
		Group("email_norm").
		Having("SUM(click_count) >= ?", threshold).
		Order("total_clicks DESC, email_norm").
		Scan(&offenders).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get repeat offenders: %w", err)
	}

	return offenders, nil
}

func (r *clickEventRepository) ClickHistory(ctx context.Context, emails []string, start, end time.Time) ([]models.ClickEvent, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.ClickHistory")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(emails) == 0 {
		return nil, nil
	}

	var events []models.ClickEvent
	err := r.db.WithContext(ctx).
		Where("email_norm IN ? AND month_key >= ? AND month_key <= ? AND click_count > 0 AND is_false_positive = false", emails, start, end).
		Order("email_norm, month_key").
		Find(&events).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get click history: %w", err)
	}

	return events, nil
}

func (r *clickEventRepository) Inventory(ctx context.Context) (*models.InventorySummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.Inventory")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	summary := &models.InventorySummary{}

	if err := r.db.WithContext(ctx).Model(&models.ClickEvent{}).Count(&summary.TotalEvents).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.ClickEvent{}).Where("click_count > 0").Count(&summary.ClickEvents).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to count click events: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.ClickEvent{}).Where("is_false_positive = true").Count(&summary.FalsePositiveEvents).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to count false positives: %w", err)
	}

	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Select("month_key, COUNT(*) AS rows").
		Group("month_key").
		Order("month_key DESC").
		Scan(&summary.Months).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get month breakdown: %w", err)
	}

	return summary, nil
}

func (r *clickEventRepository) CountMatching(ctx context.Context, match models.ClickEventMatch) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.CountMatching")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query, err := r.matchQuery(ctx, match)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, fmt.Errorf("failed to count matching events: %w", err)
	}

	return count, nil
}

func (r *clickEventRepository) FindMatching(ctx context.Context, match models.ClickEventMatch, limit int) ([]models.ClickEvent, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.FindMatching")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query, err := r.matchQuery(ctx, match)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var events []models.ClickEvent
	if err := query.Order("month_key DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to find matching events: %w", err)
	}

	return events, nil
}

func (r *clickEventRepository) MarkFalsePositives(ctx context.Context, match models.ClickEventMatch, reason, comment, setBy string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "clickEventRepository.MarkFalsePositives")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query, err := r.matchQuery(ctx, match)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	result := query.Updates(map[string]interface{}{
		"is_false_positive":      true,
		"false_positive_reason":  reason,
		"false_positive_comment": comment,
		"false_positive_set_at":  utils.Now(),
		"false_positive_set_by":  setBy,
	})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, fmt.Errorf("failed to mark false positives: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// matchQuery builds the filter shared by count, preview and apply. The
// column name is interpolated into SQL, so it must come from RuleFields.
func (r *clickEventRepository) matchQuery(ctx context.Context, match models.ClickEventMatch) (*gorm.DB, error) {
	if !matchableColumns[match.Column] {
		return nil, fmt.Errorf("column %q is not matchable", match.Column)
	}

	query := r.db.WithContext(ctx).Model(&models.ClickEvent{})

	if len(match.Months) > 0 {
		query = query.Where("month_key IN ?", match.Months)
	}
	if match.ClickedOnly {
		query = query.Where("click_count > 0")
	}
	if match.ExcludeFlagged {
		query = query.Where("is_false_positive = false")
	}

	expr := fmt.Sprintf("coalesce(%s, '')", match.Column)

	switch match.MatchType {
	case models.RuleMatchExact:
		if match.CaseInsensitive {
			query = query.Where(fmt.Sprintf("lower(%s) = lower(?)", expr), match.Value)
		} else {
			query = query.Where(fmt.Sprintf("%s = ?", expr), match.Value)
		}
	case models.RuleMatchContains:
		like := "%" + match.Value + "%"
		if match.CaseInsensitive {
			query = query.Where(fmt.Sprintf("lower(%s) LIKE lower(?)", expr), like)
		} else {
			query = query.Where(fmt.Sprintf("%s LIKE ?", expr), like)
		}
	case models.RuleMatchRegex:
		// Postgres regex operators: ~ case sensitive, ~* case insensitive
		op := "~"
		if match.CaseInsensitive {
			op = "~*"
		}
		query = query.Where(fmt.Sprintf("%s %s ?", expr, op), match.Value)
	default:
		return nil, fmt.Errorf("unknown match type %q", match.MatchType)
	}

	return query, nil
}
