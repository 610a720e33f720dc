package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

const defaultReportedEventsLimit = 500

// ReportedEvents returns the per-ticket detail rows from the last reported
// import for a month
func ReportedEvents(reportedRepository interfaces.ReportedRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ReportedEvents", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		monthParam := c.Query("month")
		if monthParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month is required (YYYY-MM)"})
			return
		}
		month, err := utils.ParseMonthKey(monthParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
		span.SetTag("month", monthParam)

		limit := defaultReportedEventsLimit
		if l := c.Query("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		events, err := reportedRepository.EventsForMonth(ctx, month, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"month": monthParam, "events": events})
	}
}
