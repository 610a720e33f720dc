package services

import (
	"github.com/jkrishnancp/phishing-report-app/config"
	"github.com/jkrishnancp/phishing-report-app/interfaces"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/repository"
	"github.com/jkrishnancp/phishing-report-app/services/archive"
	"github.com/jkrishnancp/phishing-report-app/services/events"
	"github.com/jkrishnancp/phishing-report-app/services/importer"
	"github.com/jkrishnancp/phishing-report-app/services/investigation"
	"github.com/jkrishnancp/phishing-report-app/services/reporting"
	"github.com/jkrishnancp/phishing-report-app/services/rules"
	"github.com/jkrishnancp/phishing-report-app/services/storage"
)

type Services struct {
	ImporterService      importer.ImporterService
	ReportingService     reporting.ReportingService
	RulesService         rules.RulesService
	InvestigationService investigation.InvestigationService
	ArchiveService       *archive.ArchiveService
	Publisher            *events.RabbitMQPublisher
	StorageService       interfaces.StorageService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	services := &Services{}

	switch {
	case cfg.ArchiveConfig.R2Enabled():
		services.StorageService = storage.NewR2StorageService(
			cfg.ArchiveConfig.R2AccountID,
			cfg.ArchiveConfig.R2AccessKeyID,
			cfg.ArchiveConfig.R2AccessKeySecret,
			cfg.ArchiveConfig.Bucket,
		)
	case cfg.ArchiveConfig.S3Enabled():
		services.StorageService = storage.NewS3StorageService(
			cfg.ArchiveConfig.AWSRegion,
			cfg.ArchiveConfig.AWSAccessKeyID,
			cfg.ArchiveConfig.AWSAccessKeySecret,
			cfg.ArchiveConfig.Bucket,
		)
	}

	var archiver importer.Archiver
	if services.StorageService != nil {
		services.ArchiveService = archive.NewArchiveService(services.StorageService)
		archiver = services.ArchiveService
	} else {
		log.Info("upload archiving disabled, no storage configured")
	}

	var publisher importer.Publisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		services.Publisher = rabbitPublisher
		publisher = rabbitPublisher
	} else {
		log.Info("import events disabled, no RabbitMQ URL configured")
	}

	services.ImporterService = importer.NewImporterService(log, repos.ImportWriter, repos.ImportBatchRepository, archiver, publisher)
	services.ReportingService = reporting.NewReportingService(log, repos.ClickEventRepository, repos.ReportedRepository, repos.ImportBatchRepository)
	services.RulesService = rules.NewRulesService(log, repos.FalsePositiveRuleRepository, repos.ClickEventRepository)
	services.InvestigationService = investigation.NewInvestigationService(log, repos.InvestigationRepository)

	return services, nil
}

// Close shuts down service connections that hold external resources
func (s *Services) Close() {
	if s.Publisher != nil {
		_ = s.Publisher.Close()
	}
}
