package importer

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/services/period"
)

// ImportBulk imports several Proofpoint exports in one call, inferring each
// file's report month from its filename. Files whose names don't parse, or
// whose import fails, are reported per file; the rest still import.
func (s *importerService) ImportBulk(ctx context.Context, files []BulkFile) []BulkFileResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ImporterService.ImportBulk")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("fileCount", len(files))

	results := make([]BulkFileResult, 0, len(files))
	for _, f := range files {
		month, err := period.FromFilename(f.Filename)
		if err != nil {
			s.log.Warnf("skipping bulk file %s: %v", f.Filename, err)
			results = append(results, BulkFileResult{Filename: f.Filename, Error: err.Error()})
			continue
		}

		result, err := s.ImportProofpointCSV(ctx, f.Data, month, f.Filename, false)
		if err != nil {
			tracing.TraceErr(span, err)
			results = append(results, BulkFileResult{Filename: f.Filename, Error: err.Error()})
			continue
		}

		results = append(results, BulkFileResult{Filename: f.Filename, Ok: true, Result: result})
	}

	return results
}
