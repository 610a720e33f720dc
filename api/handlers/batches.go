package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/services/importer"
)

// ListBatches returns recent import batches, optionally filtered by source
func ListBatches(batchRepository interfaces.ImportBatchRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListBatches", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		source := models.ImportSource(c.Query("source"))
		if source != "" && source != models.ImportSourceProofpoint && source != models.ImportSourceReported {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source must be proofpoint or reported"})
			return
		}

		limit := 50
		if l := c.Query("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		batches, err := batchRepository.List(ctx, source, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"batches": batches})
	}
}

// DeleteBatch removes a batch together with the rows it imported and its
// archived upload
func DeleteBatch(importerService importer.ImporterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DeleteBatch", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagEntity(span, id)

		deleted, err := importerService.DeleteBatch(ctx, id)
		if err != nil {
			if errors.Is(err, localerrors.ErrBatchNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "batch deleted", "id": id, "eventsDeleted": deleted})
	}
}

// DownloadBatchArchive streams back the raw upload a batch was imported from
func DownloadBatchArchive(importerService importer.ImporterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DownloadBatchArchive", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagEntity(span, id)

		batch, data, err := importerService.DownloadArchive(ctx, id)
		if err != nil {
			if errors.Is(err, localerrors.ErrBatchNotFound) || errors.Is(err, localerrors.ErrArchiveNotAvailable) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", batch.Filename))
		c.Data(http.StatusOK, "application/octet-stream", data)
	}
}
