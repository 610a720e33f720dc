package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

// jsonKeyPattern bounds the raw_json key names accepted as fields; keys are
// bound as parameters for filtering but appear as quoted aliases in SELECT
var jsonKeyPattern = regexp.MustCompile(`^[A-Za-z0-9 _.()/-]+$`)

type investigationRepository struct {
	db *gorm.DB
}

func NewInvestigationRepository(db *gorm.DB) interfaces.InvestigationRepository {
	return &investigationRepository{db: db}
}

func (r *investigationRepository) JSONKeys(ctx context.Context, months []time.Time) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "investigationRepository.JSONKeys")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	sql := "SELECT DISTINCT jsonb_object_keys(raw_json) AS k FROM click_events WHERE raw_json IS NOT NULL"
	var args []interface{}
	if len(months) > 0 {
		sql += " AND month_key IN ?"
		args = append(args, months)
	}
	sql += " ORDER BY k"

	var keys []string
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&keys).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get raw json keys: %w", err)
	}

	return keys, nil
}

func (r *investigationRepository) DistinctValues(ctx context.Context, field string, months []time.Time, includeFlagged bool, limit int) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "investigationRepository.DistinctValues")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("field", field)

	expr, exprArgs, err := fieldExpr(field)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var clauses []string
	var args []interface{}

	if len(months) > 0 {
		clauses = append(clauses, "month_key IN ?")
		args = append(args, months)
	}
	if !includeFlagged {
		clauses = append(clauses, "is_false_positive = false")
	}
	clauses = append(clauses, expr+" IS NOT NULL", expr+" <> ''")
	args = append(args, exprArgs...)
	args = append(args, exprArgs...)

	sql := fmt.Sprintf(
		"SELECT DISTINCT %s AS v FROM click_events WHERE %s ORDER BY v LIMIT %d",
		expr, strings.Join(clauses, " AND "), limit,
	)
	// the SELECT expr binds first
	args = append(exprArgs, args...)

	var values []string
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&values).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get distinct values: %w", err)
	}

	return values, nil
}

func (r *investigationRepository) Search(ctx context.Context, query models.SearchQuery) ([]map[string]interface{}, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "investigationRepository.Search")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	countQuery, err := r.filteredQuery(ctx, query)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, fmt.Errorf("failed to count matching events: %w", err)
	}

	selectSQL, selectArgs, err := selectExprs(query.Fields)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.PageSize
	if offset < 0 {
		offset = 0
	}

	// fresh builder; Count already consumed the first one
	pageQuery, err := r.filteredQuery(ctx, query)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var rows []map[string]interface{}
	err = pageQuery.
		Select(selectSQL, selectArgs...).
		Order("month_key DESC, id DESC").
		Limit(query.PageSize).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, fmt.Errorf("failed to search events: %w", err)
	}

	return rows, total, nil
}

func (r *investigationRepository) FetchByIDs(ctx context.Context, ids []string, fields []string) ([]map[string]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "investigationRepository.FetchByIDs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(ids) == 0 {
		return nil, nil
	}

	selectSQL, selectArgs, err := selectExprs(fields)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var rows []map[string]interface{}
	err = r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Select(selectSQL, selectArgs...).
		Where("id IN ?", ids).
		Order("month_key DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to fetch events by id: %w", err)
	}

	return rows, nil
}

// filteredQuery builds the WHERE side shared by count and page fetch
func (r *investigationRepository) filteredQuery(ctx context.Context, query models.SearchQuery) (*gorm.DB, error) {
	q := r.db.WithContext(ctx).Model(&models.ClickEvent{})

	if len(query.Months) > 0 {
		q = q.Where("month_key IN ?", query.Months)
	}
	if !query.IncludeFlagged {
		q = q.Where("is_false_positive = false")
	}

	for _, f := range query.Filters {
		var err error
		q, err = applyFilter(q, f)
		if err != nil {
			return nil, err
		}
	}

	return q, nil
}

func applyFilter(q *gorm.DB, f models.SearchFilter) (*gorm.DB, error) {
	expr, exprArgs, err := fieldExpr(f.Field)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("coalesce(%s, '')", expr)

	switch f.Op {
	case models.SearchOpIsEmpty:
		args := append(append([]interface{}{}, exprArgs...), exprArgs...)
		return q.Where(fmt.Sprintf("(%s IS NULL OR %s = '')", expr, expr), args...), nil

	case models.SearchOpIsNotEmpty:
		args := append(append([]interface{}{}, exprArgs...), exprArgs...)
		return q.Where(fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", expr, expr), args...), nil

	case models.SearchOpGT, models.SearchOpGTE, models.SearchOpLT, models.SearchOpLTE:
		cmp := map[models.SearchOp]string{
			models.SearchOpGT:  ">",
			models.SearchOpGTE: ">=",
			models.SearchOpLT:  "<",
			models.SearchOpLTE: "<=",
		}[f.Op]
		if models.NumericColumns[f.Field] {
			return q.Where(fmt.Sprintf("COALESCE(CAST(%s AS NUMERIC), 0) %s CAST(? AS NUMERIC)", f.Field, cmp), f.Value), nil
		}
		args := append(append([]interface{}{}, exprArgs...), f.Value)
		return q.Where(fmt.Sprintf("%s %s ?", expr, cmp), args...), nil

	case models.SearchOpEquals:
		args := append(append([]interface{}{}, exprArgs...), f.Value)
		if f.CaseInsensitive {
			return q.Where(fmt.Sprintf("lower(%s) = lower(?)", text), args...), nil
		}
		return q.Where(fmt.Sprintf("%s = ?", text), args...), nil

	case models.SearchOpContains, models.SearchOpStartsWith, models.SearchOpEndsWith:
		pattern := map[models.SearchOp]string{
			models.SearchOpContains:   "%" + f.Value + "%",
			models.SearchOpStartsWith: f.Value + "%",
			models.SearchOpEndsWith:   "%" + f.Value,
		}[f.Op]
		args := append(append([]interface{}{}, exprArgs...), pattern)
		if f.CaseInsensitive {
			return q.Where(fmt.Sprintf("lower(%s) LIKE lower(?)", text), args...), nil
		}
		return q.Where(fmt.Sprintf("%s LIKE ?", text), args...), nil

	default:
		return nil, fmt.Errorf("unknown search op %q", f.Op)
	}
}

// fieldExpr resolves a field to a text-valued SQL expression. Promoted
// columns are interpolated from the allowlist; anything else is a raw_json
// key bound as a parameter.
func fieldExpr(field string) (string, []interface{}, error) {
	if models.PromotedColumns[field] {
		return fmt.Sprintf("CAST(%s AS TEXT)", field), nil, nil
	}
	if !jsonKeyPattern.MatchString(field) {
		return "", nil, fmt.Errorf("field %q is not searchable", field)
	}
	return "raw_json->>?", []interface{}{field}, nil
}

func selectExprs(fields []string) (string, []interface{}, error) {
	exprs := make([]string, 0, len(fields))
	var args []interface{}

	for _, field := range fields {
		if models.PromotedColumns[field] {
			exprs = append(exprs, field)
			continue
		}
		if !jsonKeyPattern.MatchString(field) {
			return "", nil, fmt.Errorf("field %q is not searchable", field)
		}
		exprs = append(exprs, fmt.Sprintf("raw_json->>? AS %q", field))
		args = append(args, field)
	}

	return strings.Join(exprs, ", "), args, nil
}
