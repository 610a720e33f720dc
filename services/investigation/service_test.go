package investigation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type fakeInvestigationRepo struct {
	jsonKeys []string
	values   []string
	rows     []map[string]interface{}
	total    int64

	lastQuery      models.SearchQuery
	lastField      string
	lastLimit      int
	lastFetchIDs   []string
	lastFetchCols  []string
	searchCalls    int
	fetchCalls     int
}

func (f *fakeInvestigationRepo) JSONKeys(ctx context.Context, months []time.Time) ([]string, error) {
	return f.jsonKeys, nil
}

func (f *fakeInvestigationRepo) DistinctValues(ctx context.Context, field string, months []time.Time, includeFlagged bool, limit int) ([]string, error) {
	f.lastField = field
	f.lastLimit = limit
	return f.values, nil
}

func (f *fakeInvestigationRepo) Search(ctx context.Context, query models.SearchQuery) ([]map[string]interface{}, int64, error) {
	f.searchCalls++
	f.lastQuery = query
	return f.rows, f.total, nil
}

func (f *fakeInvestigationRepo) FetchByIDs(ctx context.Context, ids []string, fields []string) ([]map[string]interface{}, error) {
	f.fetchCalls++
	f.lastFetchIDs = ids
	f.lastFetchCols = fields
	return f.rows, nil
}

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func TestAvailableFields(t *testing.T) {
	repo := &fakeInvestigationRepo{jsonKeys: []string{"Custom Field", "click_count", "Zeta"}}
	svc := NewInvestigationService(testLogger(), repo)

	fields, err := svc.AvailableFields(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, fields, "email_norm")
	assert.Contains(t, fields, "Custom Field")
	assert.Contains(t, fields, "Zeta")

	// a json key shadowing a promoted column is not listed twice
	count := 0
	for _, f := range fields {
		if f == "click_count" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSearch_Defaults(t *testing.T) {
	repo := &fakeInvestigationRepo{total: 42}
	svc := NewInvestigationService(testLogger(), repo)

	result, err := svc.Search(context.Background(), models.SearchQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, defaultPageSize, result.PageSize)
	assert.Equal(t, models.DefaultSearchFields, repo.lastQuery.Fields)
	assert.Equal(t, "id", repo.lastQuery.Fields[0])
}

func TestSearch_InjectsIDField(t *testing.T) {
	repo := &fakeInvestigationRepo{}
	svc := NewInvestigationService(testLogger(), repo)

	_, err := svc.Search(context.Background(), models.SearchQuery{
		Fields: []string{"email_norm", "Custom Field"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email_norm", "Custom Field"}, repo.lastQuery.Fields)
}

func TestSearch_CapsPageSize(t *testing.T) {
	repo := &fakeInvestigationRepo{}
	svc := NewInvestigationService(testLogger(), repo)

	_, err := svc.Search(context.Background(), models.SearchQuery{PageSize: 100000, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastQuery.PageSize)
	assert.Equal(t, 3, repo.lastQuery.Page)
}

func TestSearch_Validation(t *testing.T) {
	svc := NewInvestigationService(testLogger(), &fakeInvestigationRepo{})

	cases := map[string]models.SearchQuery{
		"unknown op": {Filters: []models.SearchFilter{
			{Field: "email_norm", Op: "FUZZY", Value: "x"},
		}},
		"value required": {Filters: []models.SearchFilter{
			{Field: "email_norm", Op: models.SearchOpContains, Value: "  "},
		}},
		"bad field name": {Filters: []models.SearchFilter{
			{Field: "email_norm; DROP TABLE click_events", Op: models.SearchOpEquals, Value: "x"},
		}},
		"bad display field": {Fields: []string{`raw" FROM pg_user --`}},
	}

	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), query)
			assert.ErrorIs(t, err, localerrors.ErrInvalidSearch)
		})
	}
}

func TestSearch_EmptyOpsNeedNoValue(t *testing.T) {
	repo := &fakeInvestigationRepo{}
	svc := NewInvestigationService(testLogger(), repo)

	_, err := svc.Search(context.Background(), models.SearchQuery{
		Filters: []models.SearchFilter{
			{Field: "clicked_ip", Op: models.SearchOpIsNotEmpty},
			{Field: "whois_org", Op: models.SearchOpIsEmpty},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searchCalls)
}

func TestDistinctValues_DefaultLimit(t *testing.T) {
	repo := &fakeInvestigationRepo{values: []string{"Finance", "IT"}}
	svc := NewInvestigationService(testLogger(), repo)

	values, err := svc.DistinctValues(context.Background(), "department", nil, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "IT"}, values)
	assert.Equal(t, defaultDistinctLimit, repo.lastLimit)
}

func TestFetchByIDs(t *testing.T) {
	repo := &fakeInvestigationRepo{rows: []map[string]interface{}{{"id": "click_1"}}}
	svc := NewInvestigationService(testLogger(), repo)

	rows, err := svc.FetchByIDs(context.Background(), []string{"click_1"}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.DefaultSearchFields, repo.lastFetchCols)

	// empty selection never hits the repository
	rows, err = svc.FetchByIDs(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, 1, repo.fetchCalls)
}
