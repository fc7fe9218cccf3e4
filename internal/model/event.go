package model

import "time"

// Event is the header row of an exported event.
type Event struct {
	ID           int64      `db:"id"`
	Title        string     `db:"title"`
	Organization string     `db:"organization"`
	StartsAt     *time.Time `db:"starts_at"`
	EndsAt       *time.Time `db:"ends_at"`
}

// Participant is any identity with at least one recorded interaction with
// the event: a survey answer, a discussion reply, a signature, a legacy
// participation record, attendance or a public-link guest registration.
type Participant struct {
	IdentityID int64  `db:"identity_id"`
	Name       string `db:"name"`
	Role       string `db:"role"`
	Ordinal    int    `db:"ordinal"`
}

// SurveyAnswer is one selected option of one participant, already flattened
// by the store: question text plus the chosen option texts.
type SurveyAnswer struct {
	IdentityID      int64    `db:"identity_id"`
	ParticipantName string   `db:"participant_name"`
	Question        string   `db:"question"`
	Options         []string `db:"options"`
}

type DiscussionReply struct {
	IdentityID      int64  `db:"identity_id"`
	ParticipantName string `db:"participant_name"`
	Topic           string `db:"topic"`
	Body            string `db:"body"`
}

// Signature is the current raster signature of a participant. Path is
// resolved to bytes by the asset resolver; a missing file is not an error.
type Signature struct {
	IdentityID int64  `db:"identity_id"`
	Path       string `db:"path"`
	Image      []byte `db:"-"`
}

// AttachmentKind is resolved once at the store boundary instead of comparing
// mime strings inside rendering code.
type AttachmentKind int

const (
	AttachmentUnknown AttachmentKind = iota
	AttachmentImage
	AttachmentDocument
)

type Attachment struct {
	ID   int64          `db:"id"`
	Name string         `db:"name"`
	Path string         `db:"path"`
	Mime string         `db:"mime"`
	Kind AttachmentKind `db:"-"`
}

// TableBlock is a free-form rectangular grid of text cells. Payload keeps
// the stored permissive JSON; the composer parses it and silently renders
// nothing when the payload is malformed.
type TableBlock struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	HeaderRow bool   `db:"header_row"`
	Payload   string `db:"payload"`
}

type Section struct {
	ID          int64        `db:"id"`
	Title       string       `db:"title"`
	Body        string       `db:"body"`
	Tables      []TableBlock `db:"-"`
	Attachments []Attachment `db:"-"`
}

// AggregatedEventData is the read-only snapshot the composer works from.
// Slice order is the rendering order.
type AggregatedEventData struct {
	Event        Event
	Participants []Participant
	Answers      []SurveyAnswer
	Replies      []DiscussionReply
	Signatures   map[int64]*Signature
	Sections     []Section
	Tables       []TableBlock
}
