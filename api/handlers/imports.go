package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
	"github.com/jkrishnancp/phishing-report-app/services/importer"
	"github.com/jkrishnancp/phishing-report-app/services/period"
)

const maxUploadBytes = 64 << 20

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	if fileHeader.Size > maxUploadBytes {
		return nil, errors.New("file too large")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// resolveMonth uses the explicit month form value when given, otherwise
// infers the month from the filename
func resolveMonth(monthParam, filename string) (time.Time, error) {
	if monthParam != "" {
		return utils.ParseMonthKey(monthParam)
	}
	return period.FromFilename(filename)
}

// ImportProofpoint imports one Proofpoint CSV export
func ImportProofpoint(importerService importer.ImporterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportProofpoint", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		month, err := resolveMonth(c.PostForm("month"), fileHeader.Filename)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		data, err := readUpload(fileHeader)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		replace := c.PostForm("replace") == "true"

		result, err := importerService.ImportProofpointCSV(ctx, data, month, fileHeader.Filename, replace)
		if err != nil {
			tracing.TraceErr(span, err)
			status := http.StatusInternalServerError
			if errors.Is(err, localerrors.ErrEmptyFile) || errors.Is(err, localerrors.ErrMissingEmailColumn) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// ImportProofpointBulk imports several Proofpoint exports, inferring each
// file's month from its name
func ImportProofpointBulk(importerService importer.ImporterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportProofpointBulk", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		form, err := c.MultipartForm()
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		fileHeaders := form.File["files"]
		if len(fileHeaders) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
			return
		}

		files := make([]importer.BulkFile, 0, len(fileHeaders))
		for _, fh := range fileHeaders {
			data, err := readUpload(fh)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			files = append(files, importer.BulkFile{Filename: fh.Filename, Data: data})
		}

		results := importerService.ImportBulk(ctx, files)
		c.JSON(http.StatusOK, gin.H{"files": results})
	}
}

// ImportReported imports one reported-emails Excel sheet; the month form
// value is required and attributes every row
func ImportReported(importerService importer.ImporterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportReported", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		monthParam := c.PostForm("month")
		if monthParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month is required"})
			return
		}
		month, err := utils.ParseMonthKey(monthParam)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		data, err := readUpload(fileHeader)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := importerService.ImportReportedExcel(ctx, data, month, fileHeader.Filename)
		if err != nil {
			tracing.TraceErr(span, err)
			status := http.StatusInternalServerError
			if errors.Is(err, localerrors.ErrEmptyFile) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}
