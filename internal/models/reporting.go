package models

import (
	"time"
)

// ClickEventMatch describes a filter over click_events used by false
// positive rules and manual actions. Column must be a value from RuleFields.
type ClickEventMatch struct {
	Months          []time.Time // empty means all months
	Column          string
	MatchType       RuleMatchType
	Value           string
	CaseInsensitive bool
	ClickedOnly     bool
	ExcludeFlagged  bool
}

// MonthlyClickStats is one month's click totals sourced from click_events
type MonthlyClickStats struct {
	MonthKey    time.Time `gorm:"column:month_key"`
	TotalClicks int64     `gorm:"column:total_clicks"`
	Clickers    int64     `gorm:"column:clickers"`
}

// RepeatOffender aggregates a user's clicks over a lookback window
type RepeatOffender struct {
	EmailNorm        string `gorm:"column:email_norm"`
	TotalClicks      int64  `gorm:"column:total_clicks"`
	MonthsWithClicks int64  `gorm:"column:months_with_clicks"`
}

// MonthRowCount is the per-month inventory breakdown
type MonthRowCount struct {
	MonthKey time.Time `gorm:"column:month_key"`
	Rows     int64     `gorm:"column:rows"`
}

// InventorySummary is the stored-data overview shown on the dashboard
type InventorySummary struct {
	TotalEvents         int64
	ClickEvents         int64
	FalsePositiveEvents int64
	Months              []MonthRowCount
}
