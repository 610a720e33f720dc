package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

// timestampLayouts covers the formats Proofpoint exports have been seen
// using, tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04:05 PM",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
}

type columnIndex map[string]int

// pick resolves a logical column against header synonyms, tolerating
// whitespace around header cells
func (ci columnIndex) pick(names ...string) int {
	for _, n := range names {
		if idx, ok := ci[strings.TrimSpace(n)]; ok {
			return idx
		}
	}
	return -1
}

func (ci columnIndex) value(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return utils.CleanCell(record[idx])
}

func (s *importerService) ImportProofpointCSV(ctx context.Context, data []byte, month time.Time, filename string, replaceMonth bool) (*ImportResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImporterService.ImportProofpointCSV")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("filename", filename)
	span.SetTag("month", month.Format(utils.MonthKeyLayout))

	month = utils.FirstOfMonth(month)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, localerrors.ErrEmptyFile
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read csv header")
	}

	cols := make(columnIndex, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	emailIdx := cols.pick("Email", "Email Address", "email", "email_address")
	if emailIdx < 0 {
		return nil, localerrors.ErrMissingEmailColumn
	}

	firstIdx := cols.pick("First Name", "first_name")
	lastIdx := cols.pick("Last Name", "last_name")
	deptIdx := cols.pick("Department", "department")
	mgrIdx := cols.pick("Manager Name", "manager_name")
	mgrEmailIdx := cols.pick("Manager Email", "manager_email")
	execIdx := cols.pick("Executive Name", "executive_name")
	execEmailIdx := cols.pick("Executive Email", "executive_email")

	campGuidIdx := cols.pick("Campaign Guid", "campaign_guid", "Campaign GUID")
	userGuidIdx := cols.pick("Users Guid", "users_guid", "User GUID")
	campTitleIdx := cols.pick("Campaign Title", "campaign_title")
	templateIdx := cols.pick("Phishing Template", "Template", "phishing_template")

	sentIdx := cols.pick("Date Sent", "date_sent")
	openedIdx := cols.pick("Date Opened", "date_opened")
	clickedIdx := cols.pick("Date Clicked", "date_clicked")
	reportedIdx := cols.pick("Date Reported", "date_reported")

	primaryIdx := cols.pick("Primary Clicked", "primary_clicked")
	multiIdx := cols.pick("Multi Click Event", "multi_click_event")
	clickCountIdx := cols.pick("Click Count", "click_count")

	ipIdx := cols.pick("Clicked IP", "Source IP", "clicked_ip")
	whoisIdx := cols.pick("Whois Organization", "Whois Org", "whois_org")

	var events []*models.ClickEvent
	malformed := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue
		}

		email := cols.value(record, emailIdx)
		if email == "" {
			malformed++
			continue
		}

		primaryClicked := parseIntCell(cols.value(record, primaryIdx))
		multiClick := parseIntCell(cols.value(record, multiIdx))
		clickCount := parseIntCell(cols.value(record, clickCountIdx))
		if clickCount == 0 && (primaryClicked > 0 || multiClick > 0) {
			clickCount = max(primaryClicked, 0) + max(multiClick, 0)
		}

		raw := make(models.JSONMap, len(header))
		for i, h := range header {
			key := strings.TrimSpace(h)
			if key == "" || i >= len(record) {
				continue
			}
			raw[key] = record[i]
		}

		event := &models.ClickEvent{
			MonthKey: month,
			Filename: filename,

			EmailAddress: email,
			EmailNorm:    utils.NormalizeEmail(email),
			FirstName:    cols.value(record, firstIdx),
			LastName:     cols.value(record, lastIdx),
			Department:   cols.value(record, deptIdx),

			ManagerName:    cols.value(record, mgrIdx),
			ManagerEmail:   cols.value(record, mgrEmailIdx),
			ExecutiveName:  cols.value(record, execIdx),
			ExecutiveEmail: cols.value(record, execEmailIdx),

			CampaignGuid:     cols.value(record, campGuidIdx),
			UsersGuid:        cols.value(record, userGuidIdx),
			CampaignTitle:    cols.value(record, campTitleIdx),
			PhishingTemplate: cols.value(record, templateIdx),

			DateSent:     parseTimestampCell(cols.value(record, sentIdx)),
			DateOpened:   parseTimestampCell(cols.value(record, openedIdx)),
			DateClicked:  parseTimestampCell(cols.value(record, clickedIdx)),
			DateReported: parseTimestampCell(cols.value(record, reportedIdx)),

			PrimaryClicked:  primaryClicked,
			MultiClickEvent: multiClick,
			ClickCount:      clickCount,

			ClickedIP: cols.value(record, ipIdx),
			WhoisOrg:  cols.value(record, whoisIdx),

			Raw: raw,
		}
		event.DedupeHash = event.ComputeDedupeHash()
		events = append(events, event)
	}

	if len(events) == 0 && malformed == 0 {
		return nil, localerrors.ErrEmptyFile
	}

	batch := &models.ImportBatch{
		ID:         utils.GenerateNanoIDWithPrefix("batch", 21),
		Source:     models.ImportSourceProofpoint,
		Filename:   filename,
		MonthKey:   month,
		ErrorCount: malformed,
		Status:     models.ImportStatusCompleted,
	}
	batch.ArchiveKey = s.archiveUpload(ctx, models.ImportSourceProofpoint, batch.ID, filename, data)

	inserted, err := s.writer.ProofpointImport(ctx, batch, events, replaceMonth)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to write proofpoint batch")
	}

	s.publishCompleted(ctx, batch, inserted)
	s.log.Infof("imported proofpoint file %s for %s: %d inserted, %d skipped, %d malformed",
		filename, month.Format(utils.MonthKeyLayout), inserted, int64(len(events))-inserted, malformed)

	return &ImportResult{
		BatchID:       batch.ID,
		Filename:      filename,
		MonthKey:      month,
		RowsParsed:    len(events),
		RowsInserted:  inserted,
		RowsSkipped:   int64(len(events)) - inserted,
		MalformedRows: malformed,
		ArchiveKey:    batch.ArchiveKey,
	}, nil
}

func parseIntCell(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// exports occasionally render counts as floats
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseTimestampCell(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return utils.TimePtr(t.UTC())
		}
	}
	return nil
}
