package model

import "time"

// VerificationRecord is the durable pointer from the QR code embedded into a
// generated document back to the export that produced it. Created once per
// verified export, never updated; persistence is best-effort.
type VerificationRecord struct {
	ID         string    `db:"id"`
	EventID    int64     `db:"event_id"`
	Type       string    `db:"type"`
	ExportedAt time.Time `db:"exported_at"`
	URL        string    `db:"url"`
}
