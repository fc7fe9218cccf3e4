package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	dberr "github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
)

type History struct {
	storage *Store
}

func (h *History) Insert(ctx context.Context, input *model.NewExportHistory) (int64, error) {
	db, err := h.storage.Database()
	if err != nil {
		return 0, dberr.NewDBInternalError("insert_export_history", err)
	}

	query := `
		INSERT INTO event_exporter.export_history
			(event_id, name, mime, created_at, updated_at, created_by, status)
		VALUES ($1, $2, $3, $4, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err = db.QueryRow(
		ctx,
		query,
		input.EventID,
		input.Name,
		input.Mime,
		input.CreatedAt,
		input.CreatedBy,
		input.Status,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if dberr.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return 0, &dberr.DBUniqueViolationError{
					DBError: *dberr.NewDBError("insert_export_history", pgErr.Message),
					Column:  pgErr.ConstraintName,
				}
			case "23503": // foreign_key_violation
				return 0, &dberr.DBForeignKeyViolationError{
					DBError:         *dberr.NewDBError("insert_export_history", pgErr.Message),
					ForeignKeyTable: pgErr.TableName,
				}
			}
		}
		return 0, dberr.NewDBInternalError("insert_export_history", err)
	}

	return id, nil
}

func (h *History) UpdateStatus(ctx context.Context, input *model.UpdateExportStatus) error {
	db, err := h.storage.Database()
	if err != nil {
		return dberr.NewDBInternalError("update_export_status", err)
	}

	query := `
		UPDATE event_exporter.export_history
		SET status = $1,
		    updated_at = $2,
		    pages = COALESCE($3, pages)
		WHERE id = $4
	`
	cmd, err := db.Exec(
		ctx,
		query,
		input.Status,
		time.Now().UnixMilli(),
		input.Pages,
		input.ID,
	)
	if err != nil {
		return dberr.NewDBInternalError("update_export_status", err)
	}

	if cmd.RowsAffected() == 0 {
		return dberr.NewDBNotFoundError("update_export_status",
			fmt.Sprintf("no export history record found for id=%d", input.ID))
	}

	return nil
}
