package dto

// RuleRequest creates or previews a false positive rule
type RuleRequest struct {
	Scope           string   `json:"scope" binding:"required"`
	Months          []string `json:"months"`
	FieldLabel      string   `json:"fieldLabel" binding:"required"`
	MatchType       string   `json:"matchType" binding:"required"`
	Value           string   `json:"value" binding:"required"`
	CaseInsensitive bool     `json:"caseInsensitive"`
	Comment         string   `json:"comment"`
	CreatedBy       string   `json:"createdBy"`
}

// ManualActionRequest marks matching rows directly without saving a rule
type ManualActionRequest struct {
	Month           string `json:"month"`
	FieldLabel      string `json:"fieldLabel" binding:"required"`
	MatchType       string `json:"matchType" binding:"required"`
	Value           string `json:"value" binding:"required"`
	CaseInsensitive bool   `json:"caseInsensitive"`
	Comment         string `json:"comment"`
	CreatedBy       string `json:"createdBy"`
}
