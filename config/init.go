package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jkrishnancp/phishing-report-app/internal/database"
	"github.com/jkrishnancp/phishing-report-app/internal/logger"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &database.DatabaseConfig{},
		ArchiveConfig:  &ArchiveConfig{},
		CronConfig:     &CronConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	return config, nil
}
