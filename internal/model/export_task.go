package model

// ExportTask is the job persisted in Redis. It must be JSON-serializable.
type ExportTask struct {
	TaskID      string `json:"task_id"`
	EventID     int64  `json:"event_id"`
	RequestedBy *int64 `json:"requested_by,omitempty"`
	// Type selects the pipeline: "results" renders the participants report
	// alone, "merged" prepends the administrator-uploaded custom PDFs.
	Type    string        `json:"type"`
	Options ExportOptions `json:"options"`
}

const (
	ResultsExportType = "results"
	MergedExportType  = "merged"
)
