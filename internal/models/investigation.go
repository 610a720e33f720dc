package models

import "time"

type SearchOp string

const (
	SearchOpEquals     SearchOp = "EQUALS"
	SearchOpContains   SearchOp = "CONTAINS"
	SearchOpStartsWith SearchOp = "STARTS_WITH"
	SearchOpEndsWith   SearchOp = "ENDS_WITH"
	SearchOpGT         SearchOp = "GT"
	SearchOpGTE        SearchOp = "GTE"
	SearchOpLT         SearchOp = "LT"
	SearchOpLTE        SearchOp = "LTE"
	SearchOpIsEmpty    SearchOp = "IS_EMPTY"
	SearchOpIsNotEmpty SearchOp = "IS_NOT_EMPTY"
)

// SearchOps is the full operator set accepted by investigation filters
var SearchOps = map[SearchOp]bool{
	SearchOpEquals:     true,
	SearchOpContains:   true,
	SearchOpStartsWith: true,
	SearchOpEndsWith:   true,
	SearchOpGT:         true,
	SearchOpGTE:        true,
	SearchOpLT:         true,
	SearchOpLTE:        true,
	SearchOpIsEmpty:    true,
	SearchOpIsNotEmpty: true,
}

// PromotedColumns lists the click_events columns addressable by name in
// investigation searches. Any other field name is resolved as a raw_json key.
// Only names from this set are ever interpolated into SQL.
var PromotedColumns = map[string]bool{
	"id":                     true,
	"month_key":              true,
	"batch_id":               true,
	"filename":               true,
	"email_address":          true,
	"email_norm":             true,
	"first_name":             true,
	"last_name":              true,
	"department":             true,
	"manager_name":           true,
	"manager_email":          true,
	"executive_name":         true,
	"executive_email":        true,
	"campaign_guid":          true,
	"users_guid":             true,
	"campaign_title":         true,
	"phishing_template":      true,
	"date_sent":              true,
	"date_opened":            true,
	"date_clicked":           true,
	"date_reported":          true,
	"primary_clicked":        true,
	"multi_click_event":      true,
	"click_count":            true,
	"clicked_ip":             true,
	"whois_org":              true,
	"is_false_positive":      true,
	"false_positive_reason":  true,
	"false_positive_comment": true,
	"false_positive_set_at":  true,
	"false_positive_set_by":  true,
}

// NumericColumns get numeric comparison for GT/GTE/LT/LTE; everything else
// compares lexically as text
var NumericColumns = map[string]bool{
	"primary_clicked":   true,
	"multi_click_event": true,
	"click_count":       true,
}

// DefaultSearchFields is the column set returned when a search names none
var DefaultSearchFields = []string{
	"id", "month_key", "email_address", "department", "executive_name",
	"campaign_title", "date_clicked", "clicked_ip", "whois_org", "click_count", "is_false_positive",
}

// SearchFilter is one predicate of an investigation search. Field may be a
// promoted column or a raw_json key.
type SearchFilter struct {
	Field           string
	Op              SearchOp
	Value           string
	CaseInsensitive bool
}

// SearchQuery describes a paged multi-filter search over click_events
type SearchQuery struct {
	Months         []time.Time // empty means all months
	IncludeFlagged bool
	Filters        []SearchFilter
	Fields         []string // projected columns; empty means DefaultSearchFields
	PageSize       int
	Page           int // 1-based
}
