package reporting

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

const (
	// DefaultRepeatThreshold is the trailing-window click total at which a
	// clicker counts as a repeat offender
	DefaultRepeatThreshold = 2

	// repeatLookbackMonths is the trailing window, report month included
	repeatLookbackMonths = 12
)

type ReportingService interface {
	MonthlySummary(ctx context.Context, month time.Time, threshold int) (*MonthlyReport, error)
	QuarterlySummary(ctx context.Context, year, quarter int) (*QuarterlyReport, error)
	Inventory(ctx context.Context) (*InventoryReport, error)
}

// MonthlyReport mixes two independent series: click figures come from the
// Proofpoint click events, the reported figure only from the monthly
// snapshot. Neither is ever derived from the other.
type MonthlyReport struct {
	MonthKey        time.Time             `json:"monthKey"`
	TotalClicks     int64                 `json:"totalClicks"`
	UniqueClickers  int64                 `json:"uniqueClickers"`
	ReportedTotal   *int                  `json:"reportedTotal"`
	ClickedUsers    []models.ClickEvent   `json:"clickedUsers"`
	RepeatOffenders []RepeatOffenderEntry `json:"repeatOffenders"`
}

// RepeatOffenderEntry is one repeat clicker with their trailing click history
type RepeatOffenderEntry struct {
	EmailNorm        string              `json:"emailNorm"`
	TotalClicks      int64               `json:"totalClicks"`
	MonthsWithClicks int64               `json:"monthsWithClicks"`
	History          []models.ClickEvent `json:"history"`
}

type QuarterlyReport struct {
	Year    int             `json:"year"`
	Quarter int             `json:"quarter"`
	Months  []QuarterlyMonth `json:"months"`
}

type QuarterlyMonth struct {
	MonthKey       time.Time `json:"monthKey"`
	TotalClicks    int64     `json:"totalClicks"`
	UniqueClickers int64     `json:"uniqueClickers"`
	ReportedTotal  *int      `json:"reportedTotal"`
}

type InventoryReport struct {
	TotalEvents         int64                  `json:"totalEvents"`
	ClickEvents         int64                  `json:"clickEvents"`
	FalsePositiveEvents int64                  `json:"falsePositiveEvents"`
	Months              []models.MonthRowCount `json:"months"`
	RecentBatches       []models.ImportBatch   `json:"recentBatches"`
}

type reportingService struct {
	log         logger.Logger
	clickEvents interfaces.ClickEventRepository
	reported    interfaces.ReportedRepository
	batches     interfaces.ImportBatchRepository
}

func NewReportingService(log logger.Logger, clickEvents interfaces.ClickEventRepository, reported interfaces.ReportedRepository, batches interfaces.ImportBatchRepository) ReportingService {
	return &reportingService{
		log:         log,
		clickEvents: clickEvents,
		reported:    reported,
		batches:     batches,
	}
}

func (s *reportingService) MonthlySummary(ctx context.Context, month time.Time, threshold int) (*MonthlyReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportingService.MonthlySummary")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("month", month.Format(utils.MonthKeyLayout))

	month = utils.FirstOfMonth(month)
	if threshold <= 0 {
		threshold = DefaultRepeatThreshold
	}

	clicked, err := s.clickEvents.ClickedUsers(ctx, month)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report := &MonthlyReport{
		MonthKey:     month,
		ClickedUsers: clicked,
	}

	clickers := make(map[string]bool, len(clicked))
	for _, e := range clicked {
		report.TotalClicks += int64(e.ClickCount)
		clickers[e.EmailNorm] = true
	}
	report.UniqueClickers = int64(len(clickers))

	total, err := s.reported.TotalForMonth(ctx, month)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if total != nil {
		report.ReportedTotal = &total.TotalReported
	}

	offenders, err := s.repeatOffenders(ctx, month, clickers, threshold)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	report.RepeatOffenders = offenders

	return report, nil
}

// repeatOffenders keeps the month's clickers whose clicks over the trailing
// twelve months meet the threshold, with their per-event history attached
func (s *reportingService) repeatOffenders(ctx context.Context, month time.Time, clickers map[string]bool, threshold int) ([]RepeatOffenderEntry, error) {
	if len(clickers) == 0 {
		return nil, nil
	}

	emails := make([]string, 0, len(clickers))
	for email := range clickers {
		emails = append(emails, email)
	}

	start := month.AddDate(0, -(repeatLookbackMonths - 1), 0)
	offenders, err := s.clickEvents.RepeatOffenders(ctx, emails, start, month, threshold)
	if err != nil {
		return nil, err
	}
	if len(offenders) == 0 {
		return nil, nil
	}

	offenderEmails := make([]string, 0, len(offenders))
	for _, o := range offenders {
		offenderEmails = append(offenderEmails, o.EmailNorm)
	}

	history, err := s.clickEvents.ClickHistory(ctx, offenderEmails, start, month)
	if err != nil {
		return nil, err
	}
	historyByEmail := make(map[string][]models.ClickEvent, len(offenders))
	for _, e := range history {
		historyByEmail[e.EmailNorm] = append(historyByEmail[e.EmailNorm], e)
	}

	entries := make([]RepeatOffenderEntry, 0, len(offenders))
	for _, o := range offenders {
		entries = append(entries, RepeatOffenderEntry{
			EmailNorm:        o.EmailNorm,
			TotalClicks:      o.TotalClicks,
			MonthsWithClicks: o.MonthsWithClicks,
			History:          historyByEmail[o.EmailNorm],
		})
	}

	return entries, nil
}

func (s *reportingService) QuarterlySummary(ctx context.Context, year, quarter int) (*QuarterlyReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportingService.QuarterlySummary")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("year", year)
	span.SetTag("quarter", quarter)

	if quarter < 1 || quarter > 4 || year < 2000 {
		return nil, localerrors.ErrInvalidPeriod
	}

	months := utils.QuarterMonths(year, quarter)

	stats, err := s.clickEvents.MonthlyStats(ctx, months)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	statsByMonth := make(map[string]models.MonthlyClickStats, len(stats))
	for _, st := range stats {
		statsByMonth[st.MonthKey.Format(utils.MonthKeyLayout)] = st
	}

	totals, err := s.reported.TotalsForMonths(ctx, months)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	totalsByMonth := make(map[string]int, len(totals))
	for _, t := range totals {
		totalsByMonth[t.MonthKey.Format(utils.MonthKeyLayout)] = t.TotalReported
	}

	report := &QuarterlyReport{Year: year, Quarter: quarter}
	for _, m := range months {
		key := m.Format(utils.MonthKeyLayout)
		qm := QuarterlyMonth{MonthKey: m}
		if st, ok := statsByMonth[key]; ok {
			qm.TotalClicks = st.TotalClicks
			qm.UniqueClickers = st.Clickers
		}
		if total, ok := totalsByMonth[key]; ok {
			reported := total
			qm.ReportedTotal = &reported
		}
		report.Months = append(report.Months, qm)
	}

	return report, nil
}

func (s *reportingService) Inventory(ctx context.Context) (*InventoryReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportingService.Inventory")
	defer span.Finish()
	tracing.TagComponentService(span)

	summary, err := s.clickEvents.Inventory(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	batches, err := s.batches.List(ctx, "", 20)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list recent batches")
	}

	return &InventoryReport{
		TotalEvents:         summary.TotalEvents,
		ClickEvents:         summary.ClickEvents,
		FalsePositiveEvents: summary.FalsePositiveEvents,
		Months:              summary.Months,
		RecentBatches:       batches,
	}, nil
}
