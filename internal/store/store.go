package store

import (
	"context"

	"github.com/webitel/event-exporter/internal/model"
)

type Store interface {
	Event() EventStore
	Verification() VerificationStore
	History() HistoryStore

	// ------------ Database Management ------------ //
	Open() error  // Return custom DB error
	Close() error // Return custom DB error
}

// EventStore reads the already-aggregated rows the composer needs. All
// methods return empty collections, not errors, when an event has no data;
// only GetEvent signals not-found for an unknown id.
type EventStore interface {
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	GetSections(ctx context.Context, eventID int64) ([]model.Section, error)
	GetTableBlocks(ctx context.Context, eventID int64) ([]model.TableBlock, error)
	GetParticipants(ctx context.Context, eventID int64) ([]model.Participant, error)
	GetSurveyAnswers(ctx context.Context, eventID int64) ([]model.SurveyAnswer, error)
	GetDiscussionReplies(ctx context.Context, eventID int64) ([]model.DiscussionReply, error)
	GetSignatures(ctx context.Context, eventID int64) (map[int64]*model.Signature, error)
	GetCustomExportFiles(ctx context.Context, eventID int64) ([]model.Attachment, error)
	GetImageAttachments(ctx context.Context, eventID int64) ([]model.Attachment, error)
}

type VerificationStore interface {
	Insert(ctx context.Context, rec *model.VerificationRecord) error
}

type HistoryStore interface {
	Insert(ctx context.Context, input *model.NewExportHistory) (int64, error)
	UpdateStatus(ctx context.Context, input *model.UpdateExportStatus) error
}
