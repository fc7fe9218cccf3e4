package model

type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "pending"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusDone       ExportStatus = "done"
	ExportStatusFailed     ExportStatus = "failed"
)

type ExportHistory struct {
	ID        int64        `db:"id"`
	EventID   int64        `db:"event_id"`
	Name      string       `db:"name"`
	Mime      string       `db:"mime"`
	CreatedAt int64        `db:"created_at"`
	UpdatedAt int64        `db:"updated_at"`
	CreatedBy *int64       `db:"created_by"`
	Status    ExportStatus `db:"status"`
	Pages     int          `db:"pages"`
}

type NewExportHistory struct {
	EventID   int64        `db:"event_id"`
	Name      string       `db:"name"`
	Mime      string       `db:"mime"`
	CreatedAt int64        `db:"created_at"`
	CreatedBy *int64       `db:"created_by"`
	Status    ExportStatus `db:"status"`
}

type UpdateExportStatus struct {
	ID     int64        `db:"id"`
	Status ExportStatus `db:"status"`
	Pages  *int         `db:"pages"`
}
