package export

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/webitel/event-exporter/internal/model"
	"github.com/webitel/event-exporter/internal/store"
)

const qrImageSize = 256 // px, rendered QR raster edge

// VerificationArtifact is everything the document needs from verification:
// the id, the stable URL and its QR raster. It exists independently of the
// persisted record, which is best-effort.
type VerificationArtifact struct {
	ID  string
	URL string
	QR  []byte // PNG
}

type Registrar struct {
	store store.VerificationStore
	log   *slog.Logger
}

func NewRegistrar(s store.VerificationStore, log *slog.Logger) *Registrar {
	if log == nil {
		log = slog.Default()
	}
	return &Registrar{store: s, log: log}
}

// BuildVerificationURL is the external contract embedded into documents:
// base with any trailing slash removed, then "/verify/", then the id.
func BuildVerificationURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/verify/" + id
}

// Prepare mints the verification artifact. Verification is opt-in: an empty
// base URL returns nil. A QR encoding failure is logged and also returns
// nil; it never reaches the caller as an error.
func (r *Registrar) Prepare(eventID int64, opts *model.ExportOptions) *VerificationArtifact {
	if opts.VerificationBaseURL == "" {
		return nil
	}

	id := opts.VerificationID
	if id == "" {
		id = uuid.NewString()
	}
	url := BuildVerificationURL(opts.VerificationBaseURL, id)

	png, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		r.log.Warn("export.verify.qr_encode_failed", "event_id", eventID, "error", err)
		return nil
	}

	return &VerificationArtifact{ID: id, URL: url, QR: png}
}

// Persist writes the verification record once. Failure is logged and
// swallowed: the artifact already embedded into the document must never
// depend on storage availability.
func (r *Registrar) Persist(ctx context.Context, artifact *VerificationArtifact, eventID int64, typ string) {
	if artifact == nil || r.store == nil {
		return
	}

	rec := &model.VerificationRecord{
		ID:         artifact.ID,
		EventID:    eventID,
		Type:       typ,
		ExportedAt: time.Now().UTC(),
		URL:        artifact.URL,
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		r.log.Warn("export.verify.persist_failed",
			"event_id", eventID,
			"verification_id", artifact.ID,
			"error", err,
		)
	}
}
