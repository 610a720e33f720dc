package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type fakeRuleRepo struct {
	saved       []*models.FalsePositiveRule
	runs        []*models.FalsePositiveRuleRun
	active      []models.FalsePositiveRule
	deactivated []string
}

func (f *fakeRuleRepo) Save(ctx context.Context, rule *models.FalsePositiveRule) error {
	if rule.ID == "" {
		rule.ID = "rule_test1"
	}
	f.saved = append(f.saved, rule)
	return nil
}

func (f *fakeRuleRepo) List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error) {
	return f.active, nil
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.FalsePositiveRule, error) {
	return nil, localerrors.ErrRuleNotFound
}

func (f *fakeRuleRepo) Deactivate(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeRuleRepo) RecordRun(ctx context.Context, run *models.FalsePositiveRuleRun) error {
	f.runs = append(f.runs, run)
	return nil
}

type fakeMatchRepo struct {
	exactCount       int64
	insensitiveCount int64
	sample           []models.ClickEvent
	markAffected     int64

	lastMatch   models.ClickEventMatch
	markedWith  []models.ClickEventMatch
	markReasons []string
}

func (f *fakeMatchRepo) ClickedUsers(ctx context.Context, month time.Time) ([]models.ClickEvent, error) {
	return nil, nil
}

func (f *fakeMatchRepo) MonthlyStats(ctx context.Context, months []time.Time) ([]models.MonthlyClickStats, error) {
	return nil, nil
}

func (f *fakeMatchRepo) RepeatOffenders(ctx context.Context, emails []string, start, end time.Time, threshold int) ([]models.RepeatOffender, error) {
	return nil, nil
}

func (f *fakeMatchRepo) ClickHistory(ctx context.Context, emails []string, start, end time.Time) ([]models.ClickEvent, error) {
	return nil, nil
}

func (f *fakeMatchRepo) Inventory(ctx context.Context) (*models.InventorySummary, error) {
	return nil, nil
}

func (f *fakeMatchRepo) CountMatching(ctx context.Context, match models.ClickEventMatch) (int64, error) {
	f.lastMatch = match
	if match.CaseInsensitive {
		return f.insensitiveCount, nil
	}
	return f.exactCount, nil
}

func (f *fakeMatchRepo) FindMatching(ctx context.Context, match models.ClickEventMatch, limit int) ([]models.ClickEvent, error) {
	return f.sample, nil
}

func (f *fakeMatchRepo) MarkFalsePositives(ctx context.Context, match models.ClickEventMatch, reason, comment, setBy string) (int64, error) {
	f.markedWith = append(f.markedWith, match)
	f.markReasons = append(f.markReasons, reason)
	return f.markAffected, nil
}

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func march2025() time.Time {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func validSpec() RuleSpec {
	return RuleSpec{
		Scope:      models.RuleScopeMonth,
		Months:     []time.Time{march2025()},
		FieldLabel: "Clicked IP",
		MatchType:  models.RuleMatchExact,
		Value:      "10.1.2.3",
		Comment:    "scanner appliance",
		CreatedBy:  "analyst",
	}
}

func TestPreview_CaseVariantHints(t *testing.T) {
	tests := []struct {
		name             string
		exact            int64
		insensitive      int64
		caseInsensitive  bool
		wantHintContains string
	}{
		{"exact zero but variants exist", 0, 4, false, "Enable case-insensitive"},
		{"variants beyond exact", 2, 5, false, "case variants"},
		{"counts agree", 3, 3, false, ""},
		{"already case insensitive", 0, 4, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeMatchRepo{exactCount: tt.exact, insensitiveCount: tt.insensitive}
			svc := NewRulesService(testLogger(), &fakeRuleRepo{}, repo)

			spec := validSpec()
			spec.CaseInsensitive = tt.caseInsensitive

			result, err := svc.Preview(context.Background(), spec)
			require.NoError(t, err)
			assert.Equal(t, tt.exact, result.ExactCount)
			assert.Equal(t, tt.insensitive, result.CaseInsensitiveCount)
			if tt.wantHintContains == "" {
				assert.Empty(t, result.CaseVariantHint)
			} else {
				assert.Contains(t, result.CaseVariantHint, tt.wantHintContains)
			}
		})
	}
}

func TestApply(t *testing.T) {
	ruleRepo := &fakeRuleRepo{}
	matchRepo := &fakeMatchRepo{markAffected: 7}
	svc := NewRulesService(testLogger(), ruleRepo, matchRepo)

	result, err := svc.Apply(context.Background(), validSpec())
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.AffectedCount)
	require.Len(t, ruleRepo.saved, 1)
	saved := ruleRepo.saved[0]
	assert.Equal(t, "clicked_ip", saved.FieldColumn)
	assert.True(t, saved.IsActive)
	assert.Equal(t, []string{"2025-03"}, []string(saved.Months))

	require.Len(t, matchRepo.markedWith, 1)
	match := matchRepo.markedWith[0]
	assert.True(t, match.ClickedOnly)
	assert.Equal(t, "clicked_ip", match.Column)
	require.Len(t, match.Months, 1)
	assert.Contains(t, matchRepo.markReasons[0], "Clicked IP")

	require.Len(t, ruleRepo.runs, 1)
	assert.Equal(t, int64(7), ruleRepo.runs[0].AffectedCount)
}

func TestApply_Validation(t *testing.T) {
	svc := NewRulesService(testLogger(), &fakeRuleRepo{}, &fakeMatchRepo{})

	mutate := func(f func(*RuleSpec)) RuleSpec {
		spec := validSpec()
		f(&spec)
		return spec
	}

	for name, spec := range map[string]RuleSpec{
		"bad scope":           mutate(func(s *RuleSpec) { s.Scope = "WEEK" }),
		"month without month": mutate(func(s *RuleSpec) { s.Months = nil }),
		"unknown field":       mutate(func(s *RuleSpec) { s.FieldLabel = "Shoe Size" }),
		"bad match type":      mutate(func(s *RuleSpec) { s.MatchType = "FUZZY" }),
		"blank value":         mutate(func(s *RuleSpec) { s.Value = "   " }),
		"missing comment":     mutate(func(s *RuleSpec) { s.Comment = "" }),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), spec)
			assert.ErrorIs(t, err, localerrors.ErrInvalidRule)
		})
	}
}

func TestManualMark(t *testing.T) {
	matchRepo := &fakeMatchRepo{markAffected: 2}
	svc := NewRulesService(testLogger(), &fakeRuleRepo{}, matchRepo)

	m := march2025()
	affected, err := svc.ManualMark(context.Background(), ManualAction{
		Month:      &m,
		FieldLabel: "Email (normalized)",
		MatchType:  models.RuleMatchContains,
		Value:      "scanner",
		Comment:    "automated scanner account",
		CreatedBy:  "analyst",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	require.Len(t, matchRepo.markedWith, 1)
	assert.Equal(t, "email_norm", matchRepo.markedWith[0].Column)
	assert.True(t, matchRepo.markedWith[0].ClickedOnly)
}

func TestManualMark_RejectsRegex(t *testing.T) {
	svc := NewRulesService(testLogger(), &fakeRuleRepo{}, &fakeMatchRepo{})

	_, err := svc.ManualMark(context.Background(), ManualAction{
		FieldLabel: "Clicked IP",
		MatchType:  models.RuleMatchRegex,
		Value:      "10\\..*",
	})
	assert.ErrorIs(t, err, localerrors.ErrInvalidRule)
}

func TestReapplyActiveRules(t *testing.T) {
	ruleRepo := &fakeRuleRepo{
		active: []models.FalsePositiveRule{
			{ID: "rule_a", Scope: models.RuleScopeAll, FieldColumn: "clicked_ip", MatchType: models.RuleMatchExact, Value: "10.1.2.3"},
			{ID: "rule_b", Scope: models.RuleScopeMonth, Months: []string{"2025-03"}, FieldColumn: "whois_org", MatchType: models.RuleMatchContains, Value: "Acme"},
		},
	}
	matchRepo := &fakeMatchRepo{markAffected: 3}
	svc := NewRulesService(testLogger(), ruleRepo, matchRepo)

	total, err := svc.ReapplyActiveRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, ruleRepo.runs, 2)

	require.Len(t, matchRepo.markedWith, 2)
	assert.Empty(t, matchRepo.markedWith[0].Months)
	require.Len(t, matchRepo.markedWith[1].Months, 1)
	assert.Equal(t, time.March, matchRepo.markedWith[1].Months[0].Month())

	// re-application must not touch rows already flagged
	assert.True(t, matchRepo.markedWith[0].ExcludeFlagged)
	assert.True(t, matchRepo.markedWith[1].ExcludeFlagged)
}

func TestApply_IncludesAlreadyFlaggedRows(t *testing.T) {
	matchRepo := &fakeMatchRepo{markAffected: 1}
	svc := NewRulesService(testLogger(), &fakeRuleRepo{}, matchRepo)

	_, err := svc.Apply(context.Background(), validSpec())
	require.NoError(t, err)

	require.Len(t, matchRepo.markedWith, 1)
	assert.False(t, matchRepo.markedWith[0].ExcludeFlagged)
}
