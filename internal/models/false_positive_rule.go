package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

type RuleScope string

const (
	RuleScopeMonth RuleScope = "MONTH"
	RuleScopeAll   RuleScope = "ALL"
)

type RuleMatchType string

const (
	RuleMatchExact    RuleMatchType = "EXACT"
	RuleMatchContains RuleMatchType = "CONTAINS"
	RuleMatchRegex    RuleMatchType = "REGEX"
)

// RuleFields maps the labels exposed to users onto click_events columns.
// Matching is only ever built against columns in this map.
var RuleFields = map[string]string{
	"Email (normalized)": "email_norm",
	"Email Address":      "email_address",
	"First Name":         "first_name",
	"Last Name":          "last_name",
	"Department":         "department",
	"Manager Name":       "manager_name",
	"Manager Email":      "manager_email",
	"Executive Name":     "executive_name",
	"Executive Email":    "executive_email",
	"Campaign Title":     "campaign_title",
	"Phishing Template":  "phishing_template",
	"Campaign Guid":      "campaign_guid",
	"Users Guid":         "users_guid",
	"Clicked IP":         "clicked_ip",
	"Whois Org":          "whois_org",
}

// FalsePositiveRule marks matching click events as false positives so they
// drop out of report totals without being deleted.
type FalsePositiveRule struct {
	ID              string         `gorm:"column:id;type:varchar(50);primaryKey"`
	Scope           RuleScope      `gorm:"column:scope;type:varchar(10);not null"`
	Months          pq.StringArray `gorm:"column:months;type:text[]"`
	FieldLabel      string         `gorm:"column:field_label;type:varchar(100);not null"`
	FieldColumn     string         `gorm:"column:field_column;type:varchar(100);not null"`
	MatchType       RuleMatchType  `gorm:"column:match_type;type:varchar(20);not null"`
	Value           string         `gorm:"column:value;type:text;not null"`
	CaseInsensitive bool           `gorm:"column:case_insensitive;not null;default:false"`
	Comment         string         `gorm:"column:comment;type:text;not null"`
	CreatedBy       string         `gorm:"column:created_by;type:varchar(255);not null"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true;index"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (FalsePositiveRule) TableName() string {
	return "false_positive_rules"
}

func (r *FalsePositiveRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("rule", 21)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.Now()
	}
	return nil
}

// MonthKeys parses the stored month list back into dates
func (r *FalsePositiveRule) MonthKeys() []time.Time {
	months := make([]time.Time, 0, len(r.Months))
	for _, m := range r.Months {
		if t, err := utils.ParseMonthKey(m); err == nil {
			months = append(months, t)
		}
	}
	return months
}

// FalsePositiveRuleRun records one application of a rule and how many rows it flagged
type FalsePositiveRuleRun struct {
	ID            string    `gorm:"column:id;type:varchar(50);primaryKey"`
	RuleID        string    `gorm:"column:rule_id;type:varchar(50);index;not null"`
	RunAt         time.Time `gorm:"column:run_at;type:timestamp;default:current_timestamp"`
	AffectedCount int64     `gorm:"column:affected_count;not null;default:0"`
}

func (FalsePositiveRuleRun) TableName() string {
	return "false_positive_rule_runs"
}

func (r *FalsePositiveRuleRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("rulerun", 21)
	}
	if r.RunAt.IsZero() {
		r.RunAt = utils.Now()
	}
	return nil
}
