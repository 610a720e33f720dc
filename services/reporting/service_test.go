package reporting

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

type fakeClickEventRepo struct {
	clicked   []models.ClickEvent
	stats     []models.MonthlyClickStats
	offenders []models.RepeatOffender
	history   []models.ClickEvent
	inventory *models.InventorySummary

	offenderEmails    []string
	offenderStart     time.Time
	offenderEnd       time.Time
	offenderThreshold int
}

func (f *fakeClickEventRepo) ClickedUsers(ctx context.Context, month time.Time) ([]models.ClickEvent, error) {
	return f.clicked, nil
}

func (f *fakeClickEventRepo) MonthlyStats(ctx context.Context, months []time.Time) ([]models.MonthlyClickStats, error) {
	return f.stats, nil
}

func (f *fakeClickEventRepo) RepeatOffenders(ctx context.Context, emails []string, start, end time.Time, threshold int) ([]models.RepeatOffender, error) {
	f.offenderEmails = emails
	f.offenderStart = start
	f.offenderEnd = end
	f.offenderThreshold = threshold
	return f.offenders, nil
}

func (f *fakeClickEventRepo) ClickHistory(ctx context.Context, emails []string, start, end time.Time) ([]models.ClickEvent, error) {
	return f.history, nil
}

func (f *fakeClickEventRepo) Inventory(ctx context.Context) (*models.InventorySummary, error) {
	return f.inventory, nil
}

func (f *fakeClickEventRepo) CountMatching(ctx context.Context, match models.ClickEventMatch) (int64, error) {
	return 0, nil
}

func (f *fakeClickEventRepo) FindMatching(ctx context.Context, match models.ClickEventMatch, limit int) ([]models.ClickEvent, error) {
	return nil, nil
}

func (f *fakeClickEventRepo) MarkFalsePositives(ctx context.Context, match models.ClickEventMatch, reason, comment, setBy string) (int64, error) {
	return 0, nil
}

type fakeReportedRepo struct {
	total  *models.ReportedTotal
	totals []models.ReportedTotal
}

func (f *fakeReportedRepo) TotalForMonth(ctx context.Context, month time.Time) (*models.ReportedTotal, error) {
	return f.total, nil
}

func (f *fakeReportedRepo) TotalsForMonths(ctx context.Context, months []time.Time) ([]models.ReportedTotal, error) {
	return f.totals, nil
}

func (f *fakeReportedRepo) EventsForMonth(ctx context.Context, month time.Time, limit int) ([]models.ReportedEvent, error) {
	return nil, nil
}

type fakeBatchRepo struct {
	batches []models.ImportBatch
}

func (f *fakeBatchRepo) List(ctx context.Context, source models.ImportSource, limit int) ([]models.ImportBatch, error) {
	return f.batches, nil
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id string) (*models.ImportBatch, error) {
	return nil, localerrors.ErrBatchNotFound
}

func (f *fakeBatchRepo) Delete(ctx context.Context, id string) (int64, error) {
	return 0, localerrors.ErrBatchNotFound
}

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func clickEvent(email string, clicks int) models.ClickEvent {
	return models.ClickEvent{EmailNorm: email, EmailAddress: email, ClickCount: clicks}
}

func TestMonthlySummary(t *testing.T) {
	clickRepo := &fakeClickEventRepo{
		clicked: []models.ClickEvent{
			clickEvent("alice@example.com", 2),
			clickEvent("alice@example.com", 1),
			clickEvent("bob@example.com", 1),
		},
		offenders: []models.RepeatOffender{
			{EmailNorm: "alice@example.com", TotalClicks: 5, MonthsWithClicks: 3},
		},
		history: []models.ClickEvent{
			clickEvent("alice@example.com", 2),
			clickEvent("alice@example.com", 3),
		},
	}
	reportedRepo := &fakeReportedRepo{
		total: &models.ReportedTotal{MonthKey: month(2025, time.March), TotalReported: 42},
	}

	svc := NewReportingService(testLogger(), clickRepo, reportedRepo, &fakeBatchRepo{})
	report, err := svc.MonthlySummary(context.Background(), month(2025, time.March), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(4), report.TotalClicks)
	assert.Equal(t, int64(2), report.UniqueClickers)
	require.NotNil(t, report.ReportedTotal)
	assert.Equal(t, 42, *report.ReportedTotal)
	assert.Len(t, report.ClickedUsers, 3)

	require.Len(t, report.RepeatOffenders, 1)
	offender := report.RepeatOffenders[0]
	assert.Equal(t, "alice@example.com", offender.EmailNorm)
	assert.Equal(t, int64(5), offender.TotalClicks)
	assert.Len(t, offender.History, 2)

	// trailing window covers twelve months, report month included
	assert.Equal(t, month(2024, time.April), clickRepo.offenderStart)
	assert.Equal(t, month(2025, time.March), clickRepo.offenderEnd)
	assert.Equal(t, DefaultRepeatThreshold, clickRepo.offenderThreshold)
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, clickRepo.offenderEmails)
}

func TestMonthlySummary_NoReportedSnapshot(t *testing.T) {
	clickRepo := &fakeClickEventRepo{}
	svc := NewReportingService(testLogger(), clickRepo, &fakeReportedRepo{}, &fakeBatchRepo{})

	report, err := svc.MonthlySummary(context.Background(), month(2025, time.March), 3)
	require.NoError(t, err)

	// no snapshot means no reported figure, never zero or a derived count
	assert.Nil(t, report.ReportedTotal)
	assert.Zero(t, report.TotalClicks)
	assert.Empty(t, report.RepeatOffenders)
}

func TestQuarterlySummary(t *testing.T) {
	clickRepo := &fakeClickEventRepo{
		stats: []models.MonthlyClickStats{
			{MonthKey: month(2025, time.January), TotalClicks: 10, Clickers: 4},
			{MonthKey: month(2025, time.March), TotalClicks: 7, Clickers: 2},
		},
	}
	reportedRepo := &fakeReportedRepo{
		totals: []models.ReportedTotal{
			{MonthKey: month(2025, time.February), TotalReported: 15},
		},
	}

	svc := NewReportingService(testLogger(), clickRepo, reportedRepo, &fakeBatchRepo{})
	report, err := svc.QuarterlySummary(context.Background(), 2025, 1)
	require.NoError(t, err)

	require.Len(t, report.Months, 3)

	jan, feb, mar := report.Months[0], report.Months[1], report.Months[2]

	assert.Equal(t, int64(10), jan.TotalClicks)
	assert.Equal(t, int64(4), jan.UniqueClickers)
	assert.Nil(t, jan.ReportedTotal)

	// February has a reported snapshot but no clicks; the series stay separate
	assert.Zero(t, feb.TotalClicks)
	require.NotNil(t, feb.ReportedTotal)
	assert.Equal(t, 15, *feb.ReportedTotal)

	assert.Equal(t, int64(7), mar.TotalClicks)
	assert.Nil(t, mar.ReportedTotal)
}

func TestQuarterlySummary_InvalidPeriod(t *testing.T) {
	svc := NewReportingService(testLogger(), &fakeClickEventRepo{}, &fakeReportedRepo{}, &fakeBatchRepo{})

	_, err := svc.QuarterlySummary(context.Background(), 2025, 0)
	assert.ErrorIs(t, err, localerrors.ErrInvalidPeriod)

	_, err = svc.QuarterlySummary(context.Background(), 2025, 5)
	assert.ErrorIs(t, err, localerrors.ErrInvalidPeriod)
}

func TestInventory(t *testing.T) {
	clickRepo := &fakeClickEventRepo{
		inventory: &models.InventorySummary{
			TotalEvents:         100,
			ClickEvents:         30,
			FalsePositiveEvents: 5,
			Months: []models.MonthRowCount{
				{MonthKey: month(2025, time.March), Rows: 60},
				{MonthKey: month(2025, time.February), Rows: 40},
			},
		},
	}
	batchRepo := &fakeBatchRepo{
		batches: []models.ImportBatch{{ID: "batch_abc", Source: models.ImportSourceProofpoint}},
	}

	svc := NewReportingService(testLogger(), clickRepo, &fakeReportedRepo{}, batchRepo)
	report, err := svc.Inventory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(100), report.TotalEvents)
	assert.Equal(t, int64(5), report.FalsePositiveEvents)
	assert.Len(t, report.Months, 2)
	require.Len(t, report.RecentBatches, 1)
	assert.Equal(t, "batch_abc", report.RecentBatches[0].ID)
}
