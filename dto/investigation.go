package dto

// SearchFilterRequest is one predicate of an investigation search
type SearchFilterRequest struct {
	Field           string `json:"field" binding:"required"`
	Op              string `json:"op" binding:"required"`
	Value           string `json:"value"`
	CaseInsensitive bool   `json:"caseInsensitive"`
}

// SearchRequest runs a paged multi-filter search over stored click events
type SearchRequest struct {
	Months         []string              `json:"months"`
	IncludeFlagged bool                  `json:"includeFlagged"`
	Filters        []SearchFilterRequest `json:"filters"`
	Fields         []string              `json:"fields"`
	PageSize       int                   `json:"pageSize"`
	Page           int                   `json:"page"`
}

// FetchEventsRequest resolves an explicit row selection
type FetchEventsRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Fields []string `json:"fields"`
}
