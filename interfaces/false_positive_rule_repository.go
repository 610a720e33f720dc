package interfaces

import (
	"context"

	"github.com/jkrishnancp/phishing-report-app/internal/models"
)

type FalsePositiveRuleRepository interface {
	Save(ctx context.Context, rule *models.FalsePositiveRule) error
	List(ctx context.Context, activeOnly bool) ([]models.FalsePositiveRule, error)
	GetByID(ctx context.Context, id string) (*models.FalsePositiveRule, error)
	Deactivate(ctx context.Context, id string) error
	RecordRun(ctx context.Context, run *models.FalsePositiveRuleRun) error
}
