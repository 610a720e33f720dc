package cron

import (
	"context"
	"sync"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/jkrishnancp/phishing-report-app/config"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/services/rules"
)

// ruleJobLock keeps rule re-application runs from overlapping
var ruleJobLock sync.Mutex

type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
	rules  rules.RulesService
}

func NewCronManager(cfg *config.Config, log logger.Logger, rulesService rules.RulesService) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		jobIDs: make(map[string]cronv3.EntryID),
		rules:  rulesService,
	}
}

// Start initializes and starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager, waiting for running jobs
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	schedule := cm.cfg.CronConfig.ReapplyRulesSchedule
	if schedule == "" {
		cm.log.Info("Rule re-application job disabled, no schedule configured")
		return
	}

	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		ruleJobLock.Lock()
		defer ruleJobLock.Unlock()
		cm.reapplyFalsePositiveRules()
	})
	if err != nil {
		cm.log.Fatalf("Could not add rule re-application cron job: %v", err)
	}
	cm.jobIDs["reapply_fp_rules"] = id
	cm.log.Infof("Registered rule re-application job with schedule: %s", schedule)
}

// reapplyFalsePositiveRules re-runs every active rule so months imported
// after a rule was created still pick it up
func (cm *CronManager) reapplyFalsePositiveRules() {
	cm.log.Info("Running false positive rule re-application")

	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.reapplyFalsePositiveRules")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	affected, err := cm.rules.ReapplyActiveRules(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to reapply false positive rules: %v", err)
		return
	}

	cm.log.Infof("Rule re-application flagged %d rows", affected)
}
