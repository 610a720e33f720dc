package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
	"github.com/jkrishnancp/phishing-report-app/services/reporting"
)

// MonthlyReport returns the month's click and reported figures
func MonthlyReport(reportingService reporting.ReportingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MonthlyReport", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		monthParam := c.Query("month")
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

		threshold := 0
		if t := c.Query("threshold"); t != "" {
			threshold, err = strconv.Atoi(t)
			if err != nil || threshold < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive integer"})
				return
			}
		}

		report, err := reportingService.MonthlySummary(ctx, month, threshold)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// QuarterlyReport returns per-month figures for a quarter
func QuarterlyReport(reportingService reporting.ReportingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "QuarterlyReport", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		year, err := strconv.Atoi(c.Query("year"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
			return
		}
		quarter, err := strconv.Atoi(c.Query("quarter"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quarter is required"})
			return
		}

		report, err := reportingService.QuarterlySummary(ctx, year, quarter)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidPeriod) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// Inventory returns the stored-data overview
func Inventory(reportingService reporting.ReportingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "Inventory", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		report, err := reportingService.Inventory(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
