package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

const previewSampleLimit = 200

type RulesService interface {
	Preview(ctx context.Context, spec RuleSpec) (*PreviewResult, error)
	Apply(ctx context.Context, spec RuleSpec) (*ApplyResult, error)
	List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error)
	Deactivate(ctx context.Context, id string) error
	ManualMark(ctx context.Context, action ManualAction) (int64, error)
	ReapplyActiveRules(ctx context.Context) (int64, error)
}

// RuleSpec is the input for creating or previewing a rule
type RuleSpec struct {
	Scope           models.RuleScope
	Months          []time.Time
	FieldLabel      string
	MatchType       models.RuleMatchType
	Value           string
	CaseInsensitive bool
	Comment         string
	CreatedBy       string
}

// PreviewResult reports what a rule would flag, with both the exact and the
// case-insensitive count so the caller can surface case variants
type PreviewResult struct {
	ExactCount           int64               `json:"exactCount"`
	CaseInsensitiveCount int64               `json:"caseInsensitiveCount"`
	Sample               []models.ClickEvent `json:"sample"`
	CaseVariantHint      string              `json:"caseVariantHint,omitempty"`
}

type ApplyResult struct {
	Rule          *models.FalsePositiveRule `json:"rule"`
	AffectedCount int64                     `json:"affectedCount"`
}

// ManualAction marks matching rows directly, without persisting a rule
type ManualAction struct {
	Month           *time.Time
	FieldLabel      string
	MatchType       models.RuleMatchType
	Value           string
	CaseInsensitive bool
	Comment         string
	CreatedBy       string
}

type rulesService struct {
	log         logger.Logger
	rules       interfaces.FalsePositiveRuleRepository
	clickEvents interfaces.ClickEventRepository
}

func NewRulesService(log logger.Logger, rules interfaces.FalsePositiveRuleRepository, clickEvents interfaces.ClickEventRepository) RulesService {
	return &rulesService{
		log:         log,
		rules:       rules,
		clickEvents: clickEvents,
	}
}

func validateSpec(spec RuleSpec) error {
	if spec.Scope != models.RuleScopeMonth && spec.Scope != models.RuleScopeAll {
		return errors.Wrap(localerrors.ErrInvalidRule, "scope must be MONTH or ALL")
	}
	if spec.Scope == models.RuleScopeMonth && len(spec.Months) == 0 {
		return errors.Wrap(localerrors.ErrInvalidRule, "months are required when scope is MONTH")
	}
	if _, ok := models.RuleFields[spec.FieldLabel]; !ok {
		return errors.Wrapf(localerrors.ErrInvalidRule, "invalid field: %s", spec.FieldLabel)
	}
	switch spec.MatchType {
	case models.RuleMatchExact, models.RuleMatchContains, models.RuleMatchRegex:
	default:
		return errors.Wrap(localerrors.ErrInvalidRule, "match type must be EXACT, CONTAINS or REGEX")
	}
	if strings.TrimSpace(spec.Value) == "" {
		return errors.Wrap(localerrors.ErrInvalidRule, "value is required")
	}
	if strings.TrimSpace(spec.Comment) == "" {
		return errors.Wrap(localerrors.ErrInvalidRule, "comment is required")
	}
	return nil
}

// matchForSpec restricts matching to clicked rows; that is the population
// the reports count, so it is the only one worth flagging
func matchForSpec(spec RuleSpec, caseInsensitive bool) models.ClickEventMatch {
	months := spec.Months
	if spec.Scope == models.RuleScopeAll {
		months = nil
	}
	return models.ClickEventMatch{
		Months:          months,
		Column:          models.RuleFields[spec.FieldLabel],
		MatchType:       spec.MatchType,
		Value:           strings.TrimSpace(spec.Value),
		CaseInsensitive: caseInsensitive,
		ClickedOnly:     true,
	}
}

func (s *rulesService) Preview(ctx context.Context, spec RuleSpec) (*PreviewResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.Preview")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	exactCount, err := s.clickEvents.CountMatching(ctx, matchForSpec(spec, false))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	insensitiveCount, err := s.clickEvents.CountMatching(ctx, matchForSpec(spec, true))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sample, err := s.clickEvents.FindMatching(ctx, matchForSpec(spec, spec.CaseInsensitive), previewSampleLimit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	result := &PreviewResult{
		ExactCount:           exactCount,
		CaseInsensitiveCount: insensitiveCount,
		Sample:               sample,
	}
	if !spec.CaseInsensitive {
		if exactCount == 0 && insensitiveCount > 0 {
			result.CaseVariantHint = "Exact match found 0, but case-insensitive match found results. Enable case-insensitive to include them."
		} else if insensitiveCount > exactCount {
			result.CaseVariantHint = "There are case variants (e.g., ABC vs abc). Enable case-insensitive if you want to include them."
		}
	}

	return result, nil
}

func (s *rulesService) Apply(ctx context.Context, spec RuleSpec) (*ApplyResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.Apply")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	rule := &models.FalsePositiveRule{
		Scope:           spec.Scope,
		FieldLabel:      spec.FieldLabel,
		FieldColumn:     models.RuleFields[spec.FieldLabel],
		MatchType:       spec.MatchType,
		Value:           strings.TrimSpace(spec.Value),
		CaseInsensitive: spec.CaseInsensitive,
		Comment:         strings.TrimSpace(spec.Comment),
		CreatedBy:       spec.CreatedBy,
		IsActive:        true,
	}
	if spec.Scope == models.RuleScopeMonth {
		for _, m := range spec.Months {
			rule.Months = append(rule.Months, utils.FirstOfMonth(m).Format(utils.MonthKeyLayout))
		}
	}

	if err := s.rules.Save(ctx, rule); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	affected, err := s.applyRule(ctx, rule, false)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("applied false positive rule %s: %d rows flagged", rule.ID, affected)

	return &ApplyResult{Rule: rule, AffectedCount: affected}, nil
}

// applyRule flags matching rows. Re-application passes excludeFlagged so
// already-flagged rows keep their original reason and comment.
func (s *rulesService) applyRule(ctx context.Context, rule *models.FalsePositiveRule, excludeFlagged bool) (int64, error) {
	match := models.ClickEventMatch{
		Months:          rule.MonthKeys(),
		Column:          rule.FieldColumn,
		MatchType:       rule.MatchType,
		Value:           rule.Value,
		CaseInsensitive: rule.CaseInsensitive,
		ClickedOnly:     true,
		ExcludeFlagged:  excludeFlagged,
	}
	if rule.Scope == models.RuleScopeAll {
		match.Months = nil
	}

	reason := fmt.Sprintf("Rule %s: %s %s '%s'", rule.ID, rule.FieldLabel, rule.MatchType, rule.Value)
	affected, err := s.clickEvents.MarkFalsePositives(ctx, match, reason, rule.Comment, rule.CreatedBy)
	if err != nil {
		return 0, err
	}

	if err := s.rules.RecordRun(ctx, &models.FalsePositiveRuleRun{RuleID: rule.ID, AffectedCount: affected}); err != nil {
		return 0, err
	}

	return affected, nil
}

func (s *rulesService) List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.List")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.rules.List(ctx, activeOnly)
}

func (s *rulesService) Deactivate(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.Deactivate")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("ruleID", id)

	return s.rules.Deactivate(ctx, id)
}

func (s *rulesService) ManualMark(ctx context.Context, action ManualAction) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.ManualMark")
	defer span.Finish()
	tracing.TagComponentService(span)

	column, ok := models.RuleFields[action.FieldLabel]
	if !ok {
		return 0, errors.Wrapf(localerrors.ErrInvalidRule, "invalid field: %s", action.FieldLabel)
	}
	if action.MatchType != models.RuleMatchExact && action.MatchType != models.RuleMatchContains {
		return 0, errors.Wrap(localerrors.ErrInvalidRule, "manual actions support EXACT and CONTAINS only")
	}
	if strings.TrimSpace(action.Value) == "" {
		return 0, errors.Wrap(localerrors.ErrInvalidRule, "value is required")
	}

	match := models.ClickEventMatch{
		Column:          column,
		MatchType:       action.MatchType,
		Value:           strings.TrimSpace(action.Value),
		CaseInsensitive: action.CaseInsensitive,
		ClickedOnly:     true,
	}
	if action.Month != nil {
		match.Months = []time.Time{utils.FirstOfMonth(*action.Month)}
	}

	reason := fmt.Sprintf("Manual: %s %s '%s'", action.FieldLabel, action.MatchType, strings.TrimSpace(action.Value))
	affected, err := s.clickEvents.MarkFalsePositives(ctx, match, reason, strings.TrimSpace(action.Comment), action.CreatedBy)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	s.log.Infof("manual false positive action flagged %d rows", affected)
	return affected, nil
}

// ReapplyActiveRules re-runs every active rule so months imported after a
// rule was created still pick it up. Flagging is idempotent.
func (s *rulesService) ReapplyActiveRules(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RulesService.ReapplyActiveRules")
	defer span.Finish()
	tracing.TagComponentService(span)

	active, err := s.rules.List(ctx, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	var total int64
	for i := range active {
		affected, err := s.applyRule(ctx, &active[i], true)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("failed to reapply rule %s: %v", active[i].ID, err)
			continue
		}
		total += affected
	}

	return total, nil
}
