package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	dberr "github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/model"
)

type Verification struct {
	storage *Store
}

// Insert writes a verification record. Records are write-once; a duplicate
// id is reported as a unique violation so the caller can log it.
func (v *Verification) Insert(ctx context.Context, rec *model.VerificationRecord) error {
	db, err := v.storage.Database()
	if err != nil {
		return dberr.NewDBInternalError("insert_verification", err)
	}

	query := `
		INSERT INTO event_exporter.verification_record
			(id, event_id, type, exported_at, url)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = db.Exec(ctx, query, rec.ID, rec.EventID, rec.Type, rec.ExportedAt, rec.URL)
	if err != nil {
		var pgErr *pgconn.PgError
		if dberr.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return &dberr.DBUniqueViolationError{
					DBError: *dberr.NewDBError("insert_verification", pgErr.Message),
					Column:  pgErr.ConstraintName,
				}
			case "23503": // foreign_key_violation
				return &dberr.DBForeignKeyViolationError{
					DBError:         *dberr.NewDBError("insert_verification", pgErr.Message),
					ForeignKeyTable: pgErr.TableName,
				}
			}
		}
		return dberr.NewDBInternalError("insert_verification", err)
	}
	return nil
}
