package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/dto"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
	"github.com/jkrishnancp/phishing-report-app/services/rules"
)

func specFromRequest(request dto.RuleRequest) (rules.RuleSpec, error) {
	spec := rules.RuleSpec{
		Scope:           models.RuleScope(request.Scope),
		FieldLabel:      request.FieldLabel,
		MatchType:       models.RuleMatchType(request.MatchType),
		Value:           request.Value,
		CaseInsensitive: request.CaseInsensitive,
		Comment:         request.Comment,
		CreatedBy:       request.CreatedBy,
	}
	for _, m := range request.Months {
		month, err := utils.ParseMonthKey(m)
		if err != nil {
			return rules.RuleSpec{}, errors.Wrapf(err, "invalid month %q", m)
		}
		spec.Months = append(spec.Months, month)
	}
	return spec, nil
}

// ListRules returns saved rules; active ones only unless all=true
func ListRules(rulesService rules.RulesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListRules", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		activeOnly := c.Query("all") != "true"
		list, err := rulesService.List(ctx, activeOnly)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"rules": list})
	}
}

// PreviewRule reports what a rule would flag without saving it
func PreviewRule(rulesService rules.RulesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PreviewRule", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.RuleRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		spec, err := specFromRequest(request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		preview, err := rulesService.Preview(ctx, spec)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidRule) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, preview)
	}
}

// CreateRule saves a rule and applies it to matching rows
func CreateRule(rulesService rules.RulesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CreateRule", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.RuleRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		spec, err := specFromRequest(request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := rulesService.Apply(ctx, spec)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidRule) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// DeactivateRule turns a rule off; already flagged rows stay flagged
func DeactivateRule(rulesService rules.RulesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DeactivateRule", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagEntity(span, id)

		if err := rulesService.Deactivate(ctx, id); err != nil {
			if errors.Is(err, localerrors.ErrRuleNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "rule deactivated", "id": id})
	}
}

// MarkFalsePositives applies a one-off manual marking
func MarkFalsePositives(rulesService rules.RulesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MarkFalsePositives", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ManualActionRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		action := rules.ManualAction{
			FieldLabel:      request.FieldLabel,
			MatchType:       models.RuleMatchType(request.MatchType),
			Value:           request.Value,
			CaseInsensitive: request.CaseInsensitive,
			Comment:         request.Comment,
			CreatedBy:       request.CreatedBy,
		}
		if request.Month != "" {
			month, err := utils.ParseMonthKey(request.Month)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			action.Month = &month
		}

		affected, err := rulesService.ManualMark(ctx, action)
		if err != nil {
			if errors.Is(err, localerrors.ErrInvalidRule) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "rows flagged", "affectedCount": affected})
	}
}
