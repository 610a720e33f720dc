package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

// ReportedTotal is the monthly snapshot of user-reported emails.
// At most one row exists per month; re-importing a month overwrites it.
type ReportedTotal struct {
	ID            string    `gorm:"column:id;type:varchar(50);primaryKey"`
	MonthKey      time.Time `gorm:"column:month_key;type:date;uniqueIndex;not null"`
	TotalReported int       `gorm:"column:total_reported;not null;default:0"`
	Filename      string    `gorm:"column:filename;type:varchar(512)"`
	BatchID       string    `gorm:"column:batch_id;type:varchar(50);index"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (t *ReportedTotal) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.GenerateNanoIDWithPrefix("rtot", 21)
	}
	return nil
}

func (ReportedTotal) TableName() string {
	return "reported_totals"
}

// ReportedEvent is one ticket row from the reported-email sheet. The month
// attribution always comes from the user's selection, never from the row's
// own created date.
type ReportedEvent struct {
	ID       string    `gorm:"column:id;type:varchar(50);primaryKey"`
	MonthKey time.Time `gorm:"column:month_key;type:date;index;not null"`
	BatchID  string    `gorm:"column:batch_id;type:varchar(50);index;not null"`
	Filename string    `gorm:"column:filename;type:varchar(512)"`

	IssueType string `gorm:"column:issue_type;type:varchar(100)"`
	IssueKey  string `gorm:"column:issue_key;type:varchar(100)"`
	IssueID   string `gorm:"column:issue_id;type:varchar(100);index"`
	Summary   string `gorm:"column:summary;type:text"`

	TicketCreatedAt *time.Time `gorm:"column:ticket_created_at;type:timestamp"`
	RiskAccepted    string     `gorm:"column:risk_accepted;type:varchar(100)"`
	Assignee        string     `gorm:"column:assignee;type:varchar(255)"`
	AssigneeID      string     `gorm:"column:assignee_id;type:varchar(100)"`
	Reporter        string     `gorm:"column:reporter;type:varchar(255)"`
	ReporterID      string     `gorm:"column:reporter_id;type:varchar(100)"`
	Priority        string     `gorm:"column:priority;type:varchar(50)"`
	Status          string     `gorm:"column:status;type:varchar(100)"`
	DueDate         *time.Time `gorm:"column:due_date;type:timestamp"`

	RemediationSteps string `gorm:"column:remediation_steps;type:text"`
	ReasonForClosing string `gorm:"column:reason_for_closing;type:text"`

	Raw JSONMap `gorm:"column:raw_json;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ReportedEvent) TableName() string {
	return "reported_events"
}

func (e *ReportedEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("rpt", 21)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.Now()
	}
	return nil
}
