package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jkrishnancp/phishing-report-app/config"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
	"github.com/jkrishnancp/phishing-report-app/services/rules"
)

type stubRulesService struct {
	reapplied int
}

func (s *stubRulesService) Preview(ctx context.Context, spec rules.RuleSpec) (*rules.PreviewResult, error) {
	return nil, nil
}

func (s *stubRulesService) Apply(ctx context.Context, spec rules.RuleSpec) (*rules.ApplyResult, error) {
	return nil, nil
}

func (s *stubRulesService) List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error) {
	return nil, nil
}

func (s *stubRulesService) Deactivate(ctx context.Context, id string) error {
	return nil
}

func (s *stubRulesService) ManualMark(ctx context.Context, action rules.ManualAction) (int64, error) {
	return 0, nil
}

func (s *stubRulesService) ReapplyActiveRules(ctx context.Context) (int64, error) {
	s.reapplied++
	return 3, nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig(schedule string) *config.Config {
	return &config.Config{
		CronConfig: &config.CronConfig{ReapplyRulesSchedule: schedule},
	}
}

func TestNewCronManager(t *testing.T) {
	cfg := testConfig("0 0 3 * * *")
	log := getLogger()

	cm := NewCronManager(cfg, log, &stubRulesService{})

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartRegistersJob(t *testing.T) {
	cm := NewCronManager(testConfig("0 0 3 * * *"), getLogger(), &stubRulesService{})

	cm.Start()
	defer cm.Stop()

	assert.NotNil(t, cm.cron)
	assert.Contains(t, cm.jobIDs, "reapply_fp_rules")
	assert.Len(t, cm.cron.Entries(), 1)
}

func TestCronManager_EmptyScheduleDisablesJob(t *testing.T) {
	cm := NewCronManager(testConfig(""), getLogger(), &stubRulesService{})

	cm.Start()
	defer cm.Stop()

	assert.Empty(t, cm.jobIDs)
	assert.Empty(t, cm.cron.Entries())
}

func TestCronManager_ReapplyInvokesService(t *testing.T) {
	stub := &stubRulesService{}
	cm := NewCronManager(testConfig("0 0 3 * * *"), getLogger(), stub)

	cm.reapplyFalsePositiveRules()

	assert.Equal(t, 1, stub.reapplied)
}
