package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/jkrishnancp/phishing-report-app/internal/utils"
)

type ImportSource string

const (
	ImportSourceProofpoint ImportSource = "proofpoint"
	ImportSourceReported   ImportSource = "reported"
)

type ImportStatus string

const (
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportBatch is the append-only audit record of one import operation.
// Batches are never deduplicated; they are the history shown to the user.
type ImportBatch struct {
	ID         string       `gorm:"column:id;type:varchar(50);primaryKey"`
	Source     ImportSource `gorm:"column:source;type:varchar(20);index;not null"`
	Filename   string       `gorm:"column:filename;type:varchar(512);not null"`
	MonthKey   time.Time    `gorm:"column:month_key;type:date;index;not null"`
	RowCount   int          `gorm:"column:row_count;not null;default:0"`
	ErrorCount int          `gorm:"column:error_count;not null;default:0"`
	Status     ImportStatus `gorm:"column:status;type:varchar(20);not null"`
	ArchiveKey string       `gorm:"column:archive_key;type:varchar(512)"`
	CreatedAt  time.Time    `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}

func (b *ImportBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = utils.GenerateNanoIDWithPrefix("batch", 21)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.Now()
	}
	return nil
}
