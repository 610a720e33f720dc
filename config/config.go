package config

import (
	"github.com/jkrishnancp/phishing-report-app/internal/database"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"11000"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

// ArchiveConfig enables raw-upload archiving when a bucket is configured.
// R2 wins when both providers are set.
type ArchiveConfig struct {
	Bucket string `env:"ARCHIVE_BUCKET"`

	R2AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`

	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSAccessKeySecret string `env:"AWS_SECRET_ACCESS_KEY"`
}

func (c *ArchiveConfig) R2Enabled() bool {
	return c.Bucket != "" && c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != ""
}

func (c *ArchiveConfig) S3Enabled() bool {
	return c.Bucket != "" && c.AWSRegion != "" && c.AWSAccessKeyID != "" && c.AWSAccessKeySecret != ""
}

type CronConfig struct {
	// 6-field cron expression, seconds included
	ReapplyRulesSchedule string `env:"CRON_SCHEDULE_REAPPLY_FP_RULES" envDefault:"0 0 3 * * *"`
}

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *database.DatabaseConfig
	ArchiveConfig  *ArchiveConfig
	CronConfig     *CronConfig
}
