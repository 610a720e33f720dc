package investigation

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

const (
	defaultPageSize      = 100
	maxPageSize          = 1000
	defaultDistinctLimit = 2000
)

// fieldNamePattern bounds raw_json key names usable as search fields
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9 _.()/-]+$`)

type InvestigationService interface {
	// AvailableFields returns the promoted columns plus every raw_json key
	// seen in the selected months
	AvailableFields(ctx context.Context, months []time.Time) ([]string, error)

	DistinctValues(ctx context.Context, field string, months []time.Time, includeFlagged bool, limit int) ([]string, error)

	Search(ctx context.Context, query models.SearchQuery) (*SearchResult, error)

	// FetchByIDs resolves an explicit row selection, such as rows picked
	// from a search page
	FetchByIDs(ctx context.Context, ids []string, fields []string) ([]map[string]interface{}, error)
}

// SearchResult is one page of matches plus the full match count
type SearchResult struct {
	Rows     []map[string]interface{} `json:"rows"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"pageSize"`
	Fields   []string                 `json:"fields"`
}

type investigationService struct {
	log  logger.Logger
	repo interfaces.InvestigationRepository
}

func NewInvestigationService(log logger.Logger, repo interfaces.InvestigationRepository) InvestigationService {
	return &investigationService{log: log, repo: repo}
}

func (s *investigationService) AvailableFields(ctx context.Context, months []time.Time) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InvestigationService.AvailableFields")
	defer span.Finish()
	tracing.TagComponentService(span)

	keys, err := s.repo.JSONKeys(ctx, months)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	promoted := make([]string, 0, len(models.PromotedColumns))
	for col := range models.PromotedColumns {
		promoted = append(promoted, col)
	}
	sort.Strings(promoted)

	fields := promoted
	for _, k := range keys {
		if !models.PromotedColumns[k] {
			fields = append(fields, k)
		}
	}

	return fields, nil
}

func (s *investigationService) DistinctValues(ctx context.Context, field string, months []time.Time, includeFlagged bool, limit int) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InvestigationService.DistinctValues")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := validateField(field); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultDistinctLimit
	}

	values, err := s.repo.DistinctValues(ctx, field, months, includeFlagged, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return values, nil
}

func (s *investigationService) Search(ctx context.Context, query models.SearchQuery) (*SearchResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InvestigationService.Search")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := validateFilters(query.Filters); err != nil {
		return nil, err
	}

	query.Fields = normalizeFields(query.Fields)
	if err := validateFields(query.Fields); err != nil {
		return nil, err
	}

	if query.PageSize < 1 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}
	if query.Page < 1 {
		query.Page = 1
	}

	rows, total, err := s.repo.Search(ctx, query)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &SearchResult{
		Rows:     rows,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Fields:   query.Fields,
	}, nil
}

func (s *investigationService) FetchByIDs(ctx context.Context, ids []string, fields []string) ([]map[string]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InvestigationService.FetchByIDs")
	defer span.Finish()
	tracing.TagComponentService(span)

	if len(ids) == 0 {
		return nil, nil
	}

	fields = normalizeFields(fields)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	rows, err := s.repo.FetchByIDs(ctx, ids, fields)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return rows, nil
}

// normalizeFields applies the default projection and guarantees id is
// present so rows stay selectable
func normalizeFields(fields []string) []string {
	if len(fields) == 0 {
		fields = append([]string{}, models.DefaultSearchFields...)
	}
	for _, f := range fields {
		if f == "id" {
			return fields
		}
	}
	return append([]string{"id"}, fields...)
}

func validateField(field string) error {
	if models.PromotedColumns[field] {
		return nil
	}
	if !fieldNamePattern.MatchString(field) {
		return errors.Wrapf(localerrors.ErrInvalidSearch, "invalid field: %s", field)
	}
	return nil
}

func validateFields(fields []string) error {
	for _, f := range fields {
		if err := validateField(f); err != nil {
			return err
		}
	}
	return nil
}

func validateFilters(filters []models.SearchFilter) error {
	for _, f := range filters {
		if err := validateField(f.Field); err != nil {
			return err
		}
		if !models.SearchOps[f.Op] {
			return errors.Wrapf(localerrors.ErrInvalidSearch, "invalid op: %s", f.Op)
		}
		needsValue := f.Op != models.SearchOpIsEmpty && f.Op != models.SearchOpIsNotEmpty
		if needsValue && strings.TrimSpace(f.Value) == "" {
			return errors.Wrapf(localerrors.ErrInvalidSearch, "value required for %s", f.Op)
		}
	}
	return nil
}
