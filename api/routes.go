package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/jkrishnancp/phishing-report-app/api/handlers"
	"github.com/jkrishnancp/phishing-report-app/api/middleware"
	"github.com/jkrishnancp/phishing-report-app/internal/repository"
	"github.com/jkrishnancp/phishing-report-app/internal/tracing"
	"github.com/jkrishnancp/phishing-report-app/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-PHISH-REPORTS-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	{
		imports := api.Group("/imports")
		{
			imports.POST("/proofpoint", handlers.ImportProofpoint(s.ImporterService))
			imports.POST("/proofpoint/bulk", handlers.ImportProofpointBulk(s.ImporterService))
			imports.POST("/reported", handlers.ImportReported(s.ImporterService))
			imports.GET("/reported/events", handlers.ReportedEvents(repos.ReportedRepository))
			imports.GET("/batches", handlers.ListBatches(repos.ImportBatchRepository))
			imports.GET("/batches/:id/archive", handlers.DownloadBatchArchive(s.ImporterService))
			imports.DELETE("/batches/:id", handlers.DeleteBatch(s.ImporterService))
		}

		api.GET("/inventory", handlers.Inventory(s.ReportingService))

		reports := api.Group("/reports")
		{
			reports.GET("/monthly", handlers.MonthlyReport(s.ReportingService))
			reports.GET("/quarterly", handlers.QuarterlyReport(s.ReportingService))
		}

		rules := api.Group("/rules")
		{
			rules.GET("", handlers.ListRules(s.RulesService))
			rules.POST("", handlers.CreateRule(s.RulesService))
			rules.POST("/preview", handlers.PreviewRule(s.RulesService))
			rules.DELETE("/:id", handlers.DeactivateRule(s.RulesService))
		}

		investigation := api.Group("/investigation")
		{
			investigation.GET("/fields", handlers.AvailableFields(s.InvestigationService))
			investigation.GET("/values", handlers.DistinctFieldValues(s.InvestigationService))
			investigation.POST("/search", handlers.SearchEvents(s.InvestigationService))
			investigation.POST("/events", handlers.FetchEvents(s.InvestigationService))
		}

		api.POST("/false-positives", handlers.MarkFalsePositives(s.RulesService))
	}
}
