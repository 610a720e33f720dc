package dto

// ImportCompleted is published after an import batch commits
type ImportCompleted struct {
	BatchID      string `json:"batchId"`
	Source       string `json:"source"`
	Filename     string `json:"filename"`
	MonthKey     string `json:"monthKey"`
	RowCount     int    `json:"rowCount"`
	ErrorCount   int    `json:"errorCount"`
	RowsInserted int64  `json:"rowsInserted"`
}

// EventEnvelope wraps every published message with its metadata
type EventEnvelope struct {
	ID          string      `json:"id"`
	EventType   string      `json:"eventType"`
	Timestamp   string      `json:"timestamp"`
	UberTraceID string      `json:"uberTraceId,omitempty"`
	Data        interface{} `json:"data"`
}
