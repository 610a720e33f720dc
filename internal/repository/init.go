package repository

import (
	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type Repositories struct {
	ImportWriter                interfaces.ImportWriter
	ImportBatchRepository       interfaces.ImportBatchRepository
	ClickEventRepository        interfaces.ClickEventRepository
	ReportedRepository          interfaces.ReportedRepository
	FalsePositiveRuleRepository interfaces.FalsePositiveRuleRepository
	InvestigationRepository     interfaces.InvestigationRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ImportWriter:                NewImportWriter(db),
		ImportBatchRepository:       NewImportBatchRepository(db),
		ClickEventRepository:        NewClickEventRepository(db),
		ReportedRepository:          NewReportedRepository(db),
		FalsePositiveRuleRepository: NewFalsePositiveRuleRepository(db),
		InvestigationRepository:     NewInvestigationRepository(db),
	}
}

// MigrateDB creates or updates the schema. Safe to run on every startup.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ImportBatch{},
		&models.ClickEvent{},
		&models.ReportedTotal{},
		&models.ReportedEvent{},
		&models.FalsePositiveRule{},
		&models.FalsePositiveRuleRun{},
	)
}
