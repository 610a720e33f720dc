package importer

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

func (s *importerService) ImportReportedExcel(ctx context.Context, data []byte, month time.Time, filename string) (*ImportResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImporterService.ImportReportedExcel")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("filename", filename)
	span.SetTag("month", month.Format(utils.MonthKeyLayout))

	month = utils.FirstOfMonth(month)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to open excel file")
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, localerrors.ErrEmptyFile
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read excel sheet")
	}
	if len(rows) < 2 {
		return nil, localerrors.ErrEmptyFile
	}

	header := rows[0]
	cols := make(columnIndex, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	issueTypeIdx := cols.pick("Issue Type", "issue_type")
	issueKeyIdx := cols.pick("Issue key", "Issue Key", "issue_key")
	issueIDIdx := cols.pick("Issue id", "Issue Id", "issue_id")
	summaryIdx := cols.pick("Summary", "summary")
	createdIdx := cols.pick("Created", "created")
	riskIdx := cols.pick("Custom field (Risk Accepted)", "Risk Accepted", "risk_accepted")
	assigneeIdx := cols.pick("Assignee", "assignee")
	assigneeIDIdx := cols.pick("Assignee Id", "Assignee ID", "assignee_id")
	reporterIdx := cols.pick("Reporter", "reporter")
	reporterIDIdx := cols.pick("Reporter Id", "Reporter ID", "reporter_id")
	priorityIdx := cols.pick("Priority", "priority")
	statusIdx := cols.pick("Status", "status")
	dueIdx := cols.pick("Due date", "Due Date", "due_date")
	remediationIdx := cols.pick("Custom field (Remediation Steps)", "Remediation Steps", "remediation_steps")
	reasonIdx := cols.pick("Custom field (Reason For Closing)", "Reason For Closing", "reason_for_closing")

	events := make([]*models.ReportedEvent, 0, len(rows)-1)
	for _, record := range rows[1:] {
		if isBlankRow(record) {
			continue
		}

		raw := make(models.JSONMap, len(header))
		for i, h := range header {
			key := strings.TrimSpace(h)
			if key == "" || i >= len(record) {
				continue
			}
			raw[key] = record[i]
		}

		// month attribution comes from the caller's selection; the row's
		// own created date is kept for display only
		events = append(events, &models.ReportedEvent{
			MonthKey: month,
			Filename: filename,

			IssueType: cols.value(record, issueTypeIdx),
			IssueKey:  cols.value(record, issueKeyIdx),
			IssueID:   cols.value(record, issueIDIdx),
			Summary:   cols.value(record, summaryIdx),

			TicketCreatedAt: parseTimestampCell(cols.value(record, createdIdx)),
			RiskAccepted:    cols.value(record, riskIdx),
			Assignee:        cols.value(record, assigneeIdx),
			AssigneeID:      cols.value(record, assigneeIDIdx),
			Reporter:        cols.value(record, reporterIdx),
			ReporterID:      cols.value(record, reporterIDIdx),
			Priority:        cols.value(record, priorityIdx),
			Status:          cols.value(record, statusIdx),
			DueDate:         parseTimestampCell(cols.value(record, dueIdx)),

			RemediationSteps: cols.value(record, remediationIdx),
			ReasonForClosing: cols.value(record, reasonIdx),

			Raw: raw,
		})
	}

	if len(events) == 0 {
		return nil, localerrors.ErrEmptyFile
	}

	batch := &models.ImportBatch{
		ID:       utils.GenerateNanoIDWithPrefix("batch", 21),
		Source:   models.ImportSourceReported,
		Filename: filename,
		MonthKey: month,
		RowCount: len(events),
		Status:   models.ImportStatusCompleted,
	}
	batch.ArchiveKey = s.archiveUpload(ctx, models.ImportSourceReported, batch.ID, filename, data)

	total := &models.ReportedTotal{
		MonthKey:      month,
		TotalReported: len(events),
		Filename:      filename,
		BatchID:       batch.ID,
		UpdatedAt:     utils.Now(),
	}

	if err := s.writer.ReportedImport(ctx, batch, events, total); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to write reported batch")
	}

	s.publishCompleted(ctx, batch, int64(len(events)))
	s.log.Infof("imported reported file %s for %s: %d rows", filename, month.Format(utils.MonthKeyLayout), len(events))

	return &ImportResult{
		BatchID:      batch.ID,
		Filename:     filename,
		MonthKey:     month,
		RowsParsed:   len(events),
		RowsInserted: int64(len(events)),
		ArchiveKey:   batch.ArchiveKey,
	}, nil
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
