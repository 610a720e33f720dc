package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/dto"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
	"github.com/jkrishnancp/phishing-report-app/services/investigation"
)

func parseMonthList(raw []string) ([]time.Time, error) {
	months := make([]time.Time, 0, len(raw))
	for _, m := range raw {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		parsed, err := utils.ParseMonthKey(m)
		if err != nil {
			return nil, errors.Wrapf(localerrors.ErrInvalidSearch, "month must be YYYY-MM: %s", m)
		}
		months = append(months, parsed)
	}
	return months, nil
}

func monthsQueryParam(c *gin.Context) ([]time.Time, error) {
	raw := c.Query("months")
	if raw == "" {
		return nil, nil
	}
	return parseMonthList(strings.Split(raw, ","))
}

// AvailableFields lists the searchable fields: promoted columns plus every
// raw_json key seen in the selected months
func AvailableFields(investigationService investigation.InvestigationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AvailableFields", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		months, err := monthsQueryParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		fields, err := investigationService.AvailableFields(ctx, months)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"fields": fields})
	}
}

// DistinctFieldValues lists the distinct values of one field, for building
// filter dropdowns
func DistinctFieldValues(investigationService investigation.InvestigationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DistinctFieldValues", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		field := c.Query("field")
		if field == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "field is required"})
			return
		}
		span.SetTag("field", field)

		months, err := monthsQueryParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		includeFlagged := c.Query("include_flagged") == "true"

		limit := 0
		if l := c.Query("limit"); l != "" {
			limit, err = strconv.Atoi(l)
			if err != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
		}

		values, err := investigationService.DistinctValues(ctx, field, months, includeFlagged, limit)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidSearch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"field": field, "values": values})
	}
}

// SearchEvents runs a paged multi-filter search over stored click events
func SearchEvents(investigationService investigation.InvestigationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SearchEvents", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.SearchRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		months, err := parseMonthList(request.Months)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		query := models.SearchQuery{
			Months:         months,
			IncludeFlagged: request.IncludeFlagged,
			Fields:         request.Fields,
			PageSize:       request.PageSize,
			Page:           request.Page,
		}
		for _, f := range request.Filters {
			query.Filters = append(query.Filters, models.SearchFilter{
				Field:           f.Field,
				Op:              models.SearchOp(f.Op),
				Value:           f.Value,
				CaseInsensitive: f.CaseInsensitive,
			})
		}

		result, err := investigationService.Search(ctx, query)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidSearch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// FetchEvents resolves an explicit id selection into projected rows
func FetchEvents(investigationService investigation.InvestigationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "FetchEvents", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.FetchEventsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rows, err := investigationService.FetchByIDs(ctx, request.IDs, request.Fields)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidSearch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"rows": rows})
	}
}
