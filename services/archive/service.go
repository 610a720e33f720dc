package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

// ArchiveService keeps a copy of every imported spreadsheet in object
// storage so the raw upload can be re-examined after the fact
type ArchiveService struct {
	storage interfaces.StorageService
}

func NewArchiveService(storage interfaces.StorageService) *ArchiveService {
	return &ArchiveService{storage: storage}
}

// ArchiveUpload stores the raw upload under a batch-scoped key and returns it
func (s *ArchiveService) ArchiveUpload(ctx context.Context, source models.ImportSource, batchID, filename string, data []byte) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ArchiveService.ArchiveUpload")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("batchID", batchID)

	key := ObjectKey(source, batchID, filename)
	if err := s.storage.Upload(ctx, key, data, contentTypeFor(filename)); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	return key, nil
}

// DownloadUpload fetches an archived upload back by its key
func (s *ArchiveService) DownloadUpload(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ArchiveService.DownloadUpload")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.storage.Download(ctx, key)
}

// DeleteUpload removes an archived upload, used when its batch is deleted
func (s *ArchiveService) DeleteUpload(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ArchiveService.DeleteUpload")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.storage.Delete(ctx, key)
}

func ObjectKey(source models.ImportSource, batchID, filename string) string {
	return fmt.Sprintf("imports/%s/%s/%s", source, batchID, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return "text/csv"
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(strings.ToLower(filename), ".xls"):
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}
