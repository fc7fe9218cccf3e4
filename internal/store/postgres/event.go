package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	dberr "github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
)

type EventStore struct {
	storage *Store
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (e *EventStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_event", err)
	}

	query := psql.
		Select("e.id", "e.title", "coalesce(o.name, '')", "e.starts_at", "e.ends_at").
		From("events.event e").
		LeftJoin("events.organization o ON o.id = e.organization_id").
		Where(sq.Eq{"e.id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_event", err)
	}

	var ev model.Event
	err = db.QueryRow(ctx, sqlStr, args...).Scan(&ev.ID, &ev.Title, &ev.Organization, &ev.StartsAt, &ev.EndsAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, dberr.NewDBNotFoundError("get_event", "event not found")
		}
		return nil, dberr.NewDBInternalError("get_event", err)
	}
	return &ev, nil
}

func (e *EventStore) GetSections(ctx context.Context, eventID int64) ([]model.Section, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_sections", err)
	}

	query := psql.
		Select("id", "coalesce(title, '')", "coalesce(body, '')").
		From("events.section").
		Where(sq.Eq{"event_id": eventID}).
		OrderBy("position, id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_sections", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_sections", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Title, &s.Body); err != nil {
			return nil, dberr.NewDBInternalError("get_sections", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_sections", err)
	}

	for i := range sections {
		if sections[i].Tables, err = e.sectionTables(ctx, sections[i].ID); err != nil {
			return nil, err
		}
		if sections[i].Attachments, err = e.sectionAttachments(ctx, sections[i].ID); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

func (e *EventStore) sectionTables(ctx context.Context, sectionID int64) ([]model.TableBlock, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_tables", err)
	}

	sqlStr, args, err := psql.
		Select("id", "coalesce(title, '')", "header_row", "coalesce(payload, '')").
		From("events.table_block").
		Where(sq.Eq{"section_id": sectionID}).
		OrderBy("position, id").
		ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_tables", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_tables", err)
	}
	defer rows.Close()

	return scanTableBlocks(rows)
}

func (e *EventStore) sectionAttachments(ctx context.Context, sectionID int64) ([]model.Attachment, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_attachments", err)
	}

	sqlStr, args, err := psql.
		Select("id", "coalesce(name, '')", "coalesce(path, '')", "coalesce(mime, '')").
		From("events.attachment").
		Where(sq.Eq{"section_id": sectionID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_attachments", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_section_attachments", err)
	}
	defer rows.Close()

	return scanAttachments(rows)
}

// GetTableBlocks returns event-level grids not tied to any section.
func (e *EventStore) GetTableBlocks(ctx context.Context, eventID int64) ([]model.TableBlock, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_table_blocks", err)
	}

	sqlStr, args, err := psql.
		Select("id", "coalesce(title, '')", "header_row", "coalesce(payload, '')").
		From("events.table_block").
		Where(sq.Eq{"event_id": eventID}).
		Where(sq.Eq{"section_id": nil}).
		OrderBy("position, id").
		ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_table_blocks", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_table_blocks", err)
	}
	defer rows.Close()

	return scanTableBlocks(rows)
}

// GetParticipants builds the deduplicated union of every identity with a
// recorded interaction: survey answers, discussion replies, signatures,
// legacy participations, attendance and public-link guests. The ordinal is
// assigned once here so the participants summary stays deterministic.
func (e *EventStore) GetParticipants(ctx context.Context, eventID int64) ([]model.Participant, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_participants", err)
	}

	query := `
		WITH interacting AS (
			SELECT identity_id FROM events.survey_answer WHERE event_id = $1
			UNION
			SELECT identity_id FROM events.discussion_reply WHERE event_id = $1
			UNION
			SELECT identity_id FROM events.signature WHERE event_id = $1
			UNION
			SELECT identity_id FROM events.participation WHERE event_id = $1
			UNION
			SELECT identity_id FROM events.attendance WHERE event_id = $1
			UNION
			SELECT identity_id FROM events.guest WHERE event_id = $1
		)
		SELECT i.id,
		       coalesce(i.display_name, ''),
		       coalesce(r.label, ''),
		       row_number() OVER (ORDER BY coalesce(p.registered_at, i.created_at), i.id) AS ordinal
		FROM interacting x
		JOIN events.identity i ON i.id = x.identity_id
		LEFT JOIN events.participation p ON p.event_id = $1 AND p.identity_id = i.id
		LEFT JOIN events.event_role r ON r.event_id = $1 AND r.identity_id = i.id
		ORDER BY ordinal
	`

	rows, err := db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_participants", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.IdentityID, &p.Name, &p.Role, &p.Ordinal); err != nil {
			return nil, dberr.NewDBInternalError("get_participants", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_participants", err)
	}
	return participants, nil
}

func (e *EventStore) GetSurveyAnswers(ctx context.Context, eventID int64) ([]model.SurveyAnswer, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_survey_answers", err)
	}

	query := `
		SELECT a.identity_id,
		       coalesce(i.display_name, ''),
		       coalesce(q.text, ''),
		       array_agg(coalesce(o.text, '') ORDER BY o.position)
		FROM events.survey_answer a
		JOIN events.identity i ON i.id = a.identity_id
		JOIN events.survey_question q ON q.id = a.question_id
		JOIN events.survey_option o ON o.id = ANY (a.option_ids)
		WHERE a.event_id = $1
		GROUP BY a.identity_id, i.display_name, q.text, q.position, a.id
		ORDER BY a.identity_id, q.position
	`

	rows, err := db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_survey_answers", err)
	}
	defer rows.Close()

	var answers []model.SurveyAnswer
	for rows.Next() {
		var a model.SurveyAnswer
		if err := rows.Scan(&a.IdentityID, &a.ParticipantName, &a.Question, &a.Options); err != nil {
			return nil, dberr.NewDBInternalError("get_survey_answers", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_survey_answers", err)
	}
	return answers, nil
}

func (e *EventStore) GetDiscussionReplies(ctx context.Context, eventID int64) ([]model.DiscussionReply, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_discussion_replies", err)
	}

	query := `
		SELECT r.identity_id,
		       coalesce(i.display_name, ''),
		       coalesce(d.topic, ''),
		       coalesce(r.body, '')
		FROM events.discussion_reply r
		JOIN events.identity i ON i.id = r.identity_id
		JOIN events.discussion d ON d.id = r.discussion_id
		WHERE r.event_id = $1
		ORDER BY r.identity_id, r.created_at, r.id
	`

	rows, err := db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_discussion_replies", err)
	}
	defer rows.Close()

	var replies []model.DiscussionReply
	for rows.Next() {
		var r model.DiscussionReply
		if err := rows.Scan(&r.IdentityID, &r.ParticipantName, &r.Topic, &r.Body); err != nil {
			return nil, dberr.NewDBInternalError("get_discussion_replies", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_discussion_replies", err)
	}
	return replies, nil
}

// GetSignatures returns the current signature per participant, keyed by
// identity. At most one row per identity survives the DISTINCT ON.
func (e *EventStore) GetSignatures(ctx context.Context, eventID int64) (map[int64]*model.Signature, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_signatures", err)
	}

	query := `
		SELECT DISTINCT ON (identity_id) identity_id, coalesce(path, '')
		FROM events.signature
		WHERE event_id = $1
		ORDER BY identity_id, signed_at DESC, id DESC
	`

	rows, err := db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_signatures", err)
	}
	defer rows.Close()

	signatures := make(map[int64]*model.Signature)
	for rows.Next() {
		var s model.Signature
		if err := rows.Scan(&s.IdentityID, &s.Path); err != nil {
			return nil, dberr.NewDBInternalError("get_signatures", err)
		}
		signatures[s.IdentityID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_signatures", err)
	}
	return signatures, nil
}

// GetCustomExportFiles returns administrator-uploaded PDFs to merge ahead of
// the generated report, in upload order.
func (e *EventStore) GetCustomExportFiles(ctx context.Context, eventID int64) ([]model.Attachment, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_custom_export_files", err)
	}

	sqlStr, args, err := psql.
		Select("id", "coalesce(name, '')", "coalesce(path, '')", "coalesce(mime, '')").
		From("events.attachment").
		Where(sq.Eq{"event_id": eventID, "custom_export": true}).
		Where(sq.Eq{"mime": "application/pdf"}).
		OrderBy("position, id").
		ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_custom_export_files", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_custom_export_files", err)
	}
	defer rows.Close()

	return scanAttachments(rows)
}

func (e *EventStore) GetImageAttachments(ctx context.Context, eventID int64) ([]model.Attachment, error) {
	db, err := e.storage.Database()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_image_attachments", err)
	}

	sqlStr, args, err := psql.
		Select("id", "coalesce(name, '')", "coalesce(path, '')", "coalesce(mime, '')").
		From("events.attachment").
		Where(sq.Eq{"event_id": eventID}).
		Where(sq.Like{"mime": "image/%"}).
		OrderBy("position, id").
		ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError("get_image_attachments", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, dberr.NewDBInternalError("get_image_attachments", err)
	}
	defer rows.Close()

	return scanAttachments(rows)
}

func scanTableBlocks(rows pgx.Rows) ([]model.TableBlock, error) {
	var blocks []model.TableBlock
	for rows.Next() {
		var b model.TableBlock
		if err := rows.Scan(&b.ID, &b.Title, &b.HeaderRow, &b.Payload); err != nil {
			return nil, dberr.NewDBInternalError("scan_table_blocks", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("scan_table_blocks", err)
	}
	return blocks, nil
}

func scanAttachments(rows pgx.Rows) ([]model.Attachment, error) {
	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.Name, &a.Path, &a.Mime); err != nil {
			return nil, dberr.NewDBInternalError("scan_attachments", err)
		}
		a.Kind = attachmentKind(a.Mime)
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("scan_attachments", err)
	}
	return attachments, nil
}

// attachmentKind is resolved once at the store boundary.
func attachmentKind(mime string) model.AttachmentKind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return model.AttachmentImage
	case mime == "application/pdf":
		return model.AttachmentDocument
	default:
		return model.AttachmentUnknown
	}
}
