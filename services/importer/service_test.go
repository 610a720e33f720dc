package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type fakeWriter struct {
	proofpointBatch  *models.ImportBatch
	proofpointEvents []*models.ClickEvent
	replaceMonth     bool

	reportedBatch  *models.ImportBatch
	reportedEvents []*models.ReportedEvent
	reportedTotal  *models.ReportedTotal

	insertedOverride *int64
	err              error
}

func (f *fakeWriter) ProofpointImport(ctx context.Context, batch *models.ImportBatch, events []*models.ClickEvent, replaceMonth bool) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.proofpointBatch = batch
	f.proofpointEvents = events
	f.replaceMonth = replaceMonth
	if f.insertedOverride != nil {
		return *f.insertedOverride, nil
	}
	return int64(len(events)), nil
}

func (f *fakeWriter) ReportedImport(ctx context.Context, batch *models.ImportBatch, events []*models.ReportedEvent, total *models.ReportedTotal) error {
	if f.err != nil {
		return f.err
	}
	f.reportedBatch = batch
	f.reportedEvents = events
	f.reportedTotal = total
	return nil
}

type fakeBatchRepo struct {
	batch   *models.ImportBatch
	deleted []string
	rows    int64
}

func (f *fakeBatchRepo) List(ctx context.Context, source models.ImportSource, limit int) ([]models.ImportBatch, error) {
	return nil, nil
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id string) (*models.ImportBatch, error) {
	if f.batch == nil || f.batch.ID != id {
		return nil, localerrors.ErrBatchNotFound
	}
	return f.batch, nil
}

func (f *fakeBatchRepo) Delete(ctx context.Context, id string) (int64, error) {
	f.deleted = append(f.deleted, id)
	return f.rows, nil
}

type fakeArchiver struct {
	stored      map[string][]byte
	deletedKeys []string
	deleteErr   error
}

func (f *fakeArchiver) ArchiveUpload(ctx context.Context, source models.ImportSource, batchID, filename string, data []byte) (string, error) {
	key := "imports/" + string(source) + "/" + batchID + "/" + filename
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[key] = data
	return key, nil
}

func (f *fakeArchiver) DownloadUpload(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.stored[key]
	if !ok {
		return nil, localerrors.ErrArchiveNotAvailable
	}
	return data, nil
}

func (f *fakeArchiver) DeleteUpload(ctx context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return f.deleteErr
}

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func march2025() time.Time {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
}

const proofpointCSV = `Email Address,First Name,Last Name,Department,Campaign Guid,Users Guid,Campaign Title,Date Clicked,Primary Clicked,Multi Click Event,Click Count,Clicked IP
Alice@Example.com,Alice,Smith,Finance,camp-1,user-1,Q1 Campaign,2025-03-12 09:15:00,1,2,0,10.1.2.3
bob@example.com,Bob,Jones,IT,camp-1,user-2,Q1 Campaign,,0,0,0,
,Missing,Email,HR,camp-1,user-3,Q1 Campaign,,0,0,0,
carol@example.com,Carol,White,Legal,camp-1,user-4,Q1 Campaign,2025-03-13 10:00:00,0,0,3,10.4.5.6
`

func TestImportProofpointCSV(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewImporterService(testLogger(), writer, nil, nil, nil)

	result, err := svc.ImportProofpointCSV(context.Background(), []byte(proofpointCSV), march2025(), "clicks_2025_03.csv", true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowsParsed)
	assert.Equal(t, int64(3), result.RowsInserted)
	assert.Equal(t, 1, result.MalformedRows)
	assert.True(t, writer.replaceMonth)

	require.Len(t, writer.proofpointEvents, 3)
	alice := writer.proofpointEvents[0]
	assert.Equal(t, "Alice@Example.com", alice.EmailAddress)
	assert.Equal(t, "alice@example.com", alice.EmailNorm)
	assert.Equal(t, "Finance", alice.Department)
	assert.Equal(t, march2025(), alice.MonthKey)
	require.NotNil(t, alice.DateClicked)
	assert.Equal(t, 12, alice.DateClicked.Day())
	assert.NotEmpty(t, alice.DedupeHash)

	// click count falls back to primary + multi when the column reads zero
	assert.Equal(t, 3, alice.ClickCount)
	// explicit click count wins
	assert.Equal(t, 3, writer.proofpointEvents[2].ClickCount)
	// no clicks at all stays zero
	assert.Equal(t, 0, writer.proofpointEvents[1].ClickCount)

	require.NotNil(t, writer.proofpointBatch)
	assert.Equal(t, models.ImportSourceProofpoint, writer.proofpointBatch.Source)
	assert.Equal(t, 1, writer.proofpointBatch.ErrorCount)
	assert.Equal(t, models.ImportStatusCompleted, writer.proofpointBatch.Status)
}

func TestImportProofpointCSV_DedupeSkips(t *testing.T) {
	writer := &fakeWriter{}
	inserted := int64(1)
	writer.insertedOverride = &inserted
	svc := NewImporterService(testLogger(), writer, nil, nil, nil)

	result, err := svc.ImportProofpointCSV(context.Background(), []byte(proofpointCSV), march2025(), "clicks.csv", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RowsInserted)
	assert.Equal(t, int64(2), result.RowsSkipped)
	assert.False(t, writer.replaceMonth)
}

func TestImportProofpointCSV_HeaderSynonyms(t *testing.T) {
	csv := "email,first_name,click_count\nalice@example.com,Alice,2\n"
	writer := &fakeWriter{}
	svc := NewImporterService(testLogger(), writer, nil, nil, nil)

	_, err := svc.ImportProofpointCSV(context.Background(), []byte(csv), march2025(), "clicks.csv", false)
	require.NoError(t, err)
	require.Len(t, writer.proofpointEvents, 1)
	assert.Equal(t, "alice@example.com", writer.proofpointEvents[0].EmailNorm)
	assert.Equal(t, "Alice", writer.proofpointEvents[0].FirstName)
	assert.Equal(t, 2, writer.proofpointEvents[0].ClickCount)
}

func TestImportProofpointCSV_Errors(t *testing.T) {
	svc := NewImporterService(testLogger(), &fakeWriter{}, nil, nil, nil)

	_, err := svc.ImportProofpointCSV(context.Background(), []byte(""), march2025(), "empty.csv", false)
	assert.ErrorIs(t, err, localerrors.ErrEmptyFile)

	_, err = svc.ImportProofpointCSV(context.Background(), []byte("First Name,Last Name\nAlice,Smith\n"), march2025(), "noemail.csv", false)
	assert.ErrorIs(t, err, localerrors.ErrMissingEmailColumn)
}

func buildReportedWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportReportedExcel(t *testing.T) {
	data := buildReportedWorkbook(t, [][]interface{}{
		{"Issue Type", "Issue key", "Summary", "Created", "Reporter", "Status"},
		{"Phish Report", "SEC-101", "Suspicious email", "2025-02-27 08:00:00", "alice", "Closed"},
		{"Phish Report", "SEC-102", "Another one", "2025-03-02 11:30:00", "bob", "Open"},
	})

	writer := &fakeWriter{}
	svc := NewImporterService(testLogger(), writer, nil, nil, nil)

	result, err := svc.ImportReportedExcel(context.Background(), data, march2025(), "Reported March 2025.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsParsed)

	require.Len(t, writer.reportedEvents, 2)
	first := writer.reportedEvents[0]
	assert.Equal(t, "SEC-101", first.IssueKey)
	assert.Equal(t, "alice", first.Reporter)
	// the selected month wins even when the ticket was created in February
	assert.Equal(t, march2025(), first.MonthKey)
	require.NotNil(t, first.TicketCreatedAt)
	assert.Equal(t, time.February, first.TicketCreatedAt.Month())

	require.NotNil(t, writer.reportedTotal)
	assert.Equal(t, 2, writer.reportedTotal.TotalReported)
	assert.Equal(t, march2025(), writer.reportedTotal.MonthKey)

	require.NotNil(t, writer.reportedBatch)
	assert.Equal(t, models.ImportSourceReported, writer.reportedBatch.Source)
	assert.Equal(t, 2, writer.reportedBatch.RowCount)
}

func TestImportReportedExcel_Empty(t *testing.T) {
	data := buildReportedWorkbook(t, [][]interface{}{
		{"Issue Type", "Issue key", "Summary"},
	})

	svc := NewImporterService(testLogger(), &fakeWriter{}, nil, nil, nil)
	_, err := svc.ImportReportedExcel(context.Background(), data, march2025(), "empty.xlsx")
	assert.ErrorIs(t, err, localerrors.ErrEmptyFile)
}

func TestImportBulk(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewImporterService(testLogger(), writer, nil, nil, nil)

	results := svc.ImportBulk(context.Background(), []BulkFile{
		{Filename: "clicks_2025_03.csv", Data: []byte(proofpointCSV)},
		{Filename: "no-period-here.csv", Data: []byte(proofpointCSV)},
		{Filename: "empty_2025_04.csv", Data: []byte("")},
	})

	require.Len(t, results, 3)

	assert.True(t, results[0].Ok)
	require.NotNil(t, results[0].Result)
	assert.Equal(t, march2025(), results[0].Result.MonthKey)

	assert.False(t, results[1].Ok)
	assert.Contains(t, results[1].Error, "could not infer month")

	assert.False(t, results[2].Ok)
	assert.NotEmpty(t, results[2].Error)
}

func TestDeleteBatch_RemovesArchivedUpload(t *testing.T) {
	batches := &fakeBatchRepo{
		batch: &models.ImportBatch{ID: "batch_1", ArchiveKey: "imports/proofpoint/batch_1/clicks.csv"},
		rows:  12,
	}
	archiver := &fakeArchiver{}
	svc := NewImporterService(testLogger(), &fakeWriter{}, batches, archiver, nil)

	deleted, err := svc.DeleteBatch(context.Background(), "batch_1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.Equal(t, []string{"batch_1"}, batches.deleted)
	assert.Equal(t, []string{"imports/proofpoint/batch_1/clicks.csv"}, archiver.deletedKeys)
}

func TestDeleteBatch_ArchiveFailureDoesNotFailDeletion(t *testing.T) {
	batches := &fakeBatchRepo{
		batch: &models.ImportBatch{ID: "batch_1", ArchiveKey: "imports/proofpoint/batch_1/clicks.csv"},
		rows:  3,
	}
	archiver := &fakeArchiver{deleteErr: assert.AnError}
	svc := NewImporterService(testLogger(), &fakeWriter{}, batches, archiver, nil)

	deleted, err := svc.DeleteBatch(context.Background(), "batch_1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestDeleteBatch_NotFound(t *testing.T) {
	svc := NewImporterService(testLogger(), &fakeWriter{}, &fakeBatchRepo{}, nil, nil)

	_, err := svc.DeleteBatch(context.Background(), "batch_missing")
	assert.ErrorIs(t, err, localerrors.ErrBatchNotFound)
}

func TestDownloadArchive(t *testing.T) {
	archiver := &fakeArchiver{stored: map[string][]byte{
		"imports/proofpoint/batch_1/clicks.csv": []byte("Email,Click Count\n"),
	}}
	batches := &fakeBatchRepo{
		batch: &models.ImportBatch{ID: "batch_1", Filename: "clicks.csv", ArchiveKey: "imports/proofpoint/batch_1/clicks.csv"},
	}
	svc := NewImporterService(testLogger(), &fakeWriter{}, batches, archiver, nil)

	batch, data, err := svc.DownloadArchive(context.Background(), "batch_1")
	require.NoError(t, err)
	assert.Equal(t, "clicks.csv", batch.Filename)
	assert.Equal(t, []byte("Email,Click Count\n"), data)
}

func TestDownloadArchive_NoArchiveKey(t *testing.T) {
	batches := &fakeBatchRepo{batch: &models.ImportBatch{ID: "batch_1"}}
	svc := NewImporterService(testLogger(), &fakeWriter{}, batches, &fakeArchiver{}, nil)

	_, _, err := svc.DownloadArchive(context.Background(), "batch_1")
	assert.ErrorIs(t, err, localerrors.ErrArchiveNotAvailable)
}
