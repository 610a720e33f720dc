package importer

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

// Archiver keeps a copy of the raw upload in object storage. Implementations
// must treat failure as non-fatal; the import proceeds without an archive key.
type Archiver interface {
	ArchiveUpload(ctx context.Context, source models.ImportSource, batchID, filename string, data []byte) (string, error)
	DownloadUpload(ctx context.Context, key string) ([]byte, error)
	DeleteUpload(ctx context.Context, key string) error
}

// Publisher notifies downstream consumers after a batch commits
type Publisher interface {
	PublishImportCompleted(ctx context.Context, batch *models.ImportBatch, inserted int64) error
}

type ImporterService interface {
	ImportProofpointCSV(ctx context.Context, data []byte, month time.Time, filename string, replaceMonth bool) (*ImportResult, error)
	ImportReportedExcel(ctx context.Context, data []byte, month time.Time, filename string) (*ImportResult, error)
	ImportBulk(ctx context.Context, files []BulkFile) []BulkFileResult

	// DeleteBatch removes the batch, the rows it imported and its archived
	// upload; returns the number of event rows deleted
	DeleteBatch(ctx context.Context, id string) (int64, error)

	// DownloadArchive fetches the archived upload for a batch
	DownloadArchive(ctx context.Context, id string) (*models.ImportBatch, []byte, error)
}

// ImportResult summarizes one file's import
type ImportResult struct {
	BatchID       string    `json:"batchId"`
	Filename      string    `json:"filename"`
	MonthKey      time.Time `json:"monthKey"`
	RowsParsed    int       `json:"rowsParsed"`
	RowsInserted  int64     `json:"rowsInserted"`
	RowsSkipped   int64     `json:"rowsSkipped"`
	MalformedRows int       `json:"malformedRows"`
	ArchiveKey    string    `json:"archiveKey,omitempty"`
}

// BulkFile is one upload in a multi-file import
type BulkFile struct {
	Filename string
	Data     []byte
}

// BulkFileResult reports the outcome for one file of a bulk import; a failed
// file never aborts the remaining files
type BulkFileResult struct {
	Filename string        `json:"filename"`
	Ok       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Result   *ImportResult `json:"result,omitempty"`
}

type importerService struct {
	log       logger.Logger
	writer    interfaces.ImportWriter
	batches   interfaces.ImportBatchRepository
	archiver  Archiver
	publisher Publisher
}

func NewImporterService(log logger.Logger, writer interfaces.ImportWriter, batches interfaces.ImportBatchRepository, archiver Archiver, publisher Publisher) ImporterService {
	return &importerService{
		log:       log,
		writer:    writer,
		batches:   batches,
		archiver:  archiver,
		publisher: publisher,
	}
}

func (s *importerService) archiveUpload(ctx context.Context, source models.ImportSource, batchID, filename string, data []byte) string {
	if s.archiver == nil {
		return ""
	}
	key, err := s.archiver.ArchiveUpload(ctx, source, batchID, filename, data)
	if err != nil {
		s.log.Errorf("failed to archive upload %s: %v", filename, err)
		return ""
	}
	return key
}

func (s *importerService) publishCompleted(ctx context.Context, batch *models.ImportBatch, inserted int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishImportCompleted(ctx, batch, inserted); err != nil {
		s.log.Errorf("failed to publish import completed event for batch %s: %v", batch.ID, err)
	}
}

func (s *importerService) DeleteBatch(ctx context.Context, id string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImporterService.DeleteBatch")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagEntity(span, id)

	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	deleted, err := s.batches.Delete(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	// best effort; the DB rows are already gone
	if batch.ArchiveKey != "" && s.archiver != nil {
		if err := s.archiver.DeleteUpload(ctx, batch.ArchiveKey); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("failed to delete archived upload %s for batch %s: %v", batch.ArchiveKey, id, err)
		}
	}

	return deleted, nil
}

func (s *importerService) DownloadArchive(ctx context.Context, id string) (*models.ImportBatch, []byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImporterService.DownloadArchive")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagEntity(span, id)

	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if batch.ArchiveKey == "" || s.archiver == nil {
		return nil, nil, localerrors.ErrArchiveNotAvailable
	}

	data, err := s.archiver.DownloadUpload(ctx, batch.ArchiveKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}

	return batch, data, nil
}
