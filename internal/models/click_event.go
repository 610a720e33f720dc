package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

// ClickEvent is one Proofpoint simulation row for one recipient.
// Rows are immutable once stored, apart from the false positive flags.
type ClickEvent struct {
	ID       string    `gorm:"column:id;type:varchar(50);primaryKey"`
	MonthKey time.Time `gorm:"column:month_key;type:date;index;not null"`
	BatchID  string    `gorm:"column:batch_id;type:varchar(50);index;not null"`
	Filename string    `gorm:"column:filename;type:varchar(512)"`

	// Natural key for idempotent re-import
	DedupeHash string `gorm:"column:dedupe_hash;type:varchar(64);uniqueIndex;not null"`

	EmailAddress string `gorm:"column:email_address;type:varchar(255)"`
	EmailNorm    string `gorm:"column:email_norm;type:varchar(255);index"`
	FirstName    string `gorm:"column:first_name;type:varchar(255)"`
	LastName     string `gorm:"column:last_name;type:varchar(255)"`
	Department   string `gorm:"column:department;type:varchar(255)"`

	ManagerName    string `gorm:"column:manager_name;type:varchar(255)"`
	ManagerEmail   string `gorm:"column:manager_email;type:varchar(255)"`
	ExecutiveName  string `gorm:"column:executive_name;type:varchar(255)"`
	ExecutiveEmail string `gorm:"column:executive_email;type:varchar(255)"`

	CampaignGuid     string `gorm:"column:campaign_guid;type:varchar(100);index"`
	UsersGuid        string `gorm:"column:users_guid;type:varchar(100);index"`
	CampaignTitle    string `gorm:"column:campaign_title;type:varchar(512)"`
	PhishingTemplate string `gorm:"column:phishing_template;type:varchar(512)"`

	DateSent     *time.Time `gorm:"column:date_sent;type:timestamp"`
	DateOpened   *time.Time `gorm:"column:date_opened;type:timestamp"`
	DateClicked  *time.Time `gorm:"column:date_clicked;type:timestamp"`
	DateReported *time.Time `gorm:"column:date_reported;type:timestamp"`

	PrimaryClicked  int `gorm:"column:primary_clicked;not null;default:0"`
	MultiClickEvent int `gorm:"column:multi_click_event;not null;default:0"`
	ClickCount      int `gorm:"column:click_count;not null;default:0;index"`

	ClickedIP string `gorm:"column:clicked_ip;type:varchar(100);index"`
	WhoisOrg  string `gorm:"column:whois_org;type:varchar(255)"`

	IsFalsePositive      bool       `gorm:"column:is_false_positive;not null;default:false;index"`
	FalsePositiveReason  string     `gorm:"column:false_positive_reason;type:text"`
	FalsePositiveComment string     `gorm:"column:false_positive_comment;type:text"`
	FalsePositiveSetAt   *time.Time `gorm:"column:false_positive_set_at;type:timestamp"`
	FalsePositiveSetBy   string     `gorm:"column:false_positive_set_by;type:varchar(255)"`

	// Full-fidelity copy of the source row
	Raw JSONMap `gorm:"column:raw_json;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ClickEvent) TableName() string {
	return "click_events"
}

func (e *ClickEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("click", 21)
	}
	if e.DedupeHash == "" {
		e.DedupeHash = e.ComputeDedupeHash()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.Now()
	}
	return nil
}

// ComputeDedupeHash derives the natural uniqueness key of a source row:
// recipient + campaign + click timestamp. Re-importing the same export
// produces the same hash and the insert becomes a no-op.
func (e *ClickEvent) ComputeDedupeHash() string {
	clicked := ""
	if e.DateClicked != nil {
		clicked = e.DateClicked.UTC().Format(time.RFC3339)
	}
	key := strings.Join([]string{e.UsersGuid, e.CampaignGuid, e.EmailNorm, clicked}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
