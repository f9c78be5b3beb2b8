package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isDuplicateKey reports unique index violations whether or not the gorm
// instance was opened with TranslateError.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isRowID reports whether id can name a row of a uuid keyed table. Anything
// else cannot exist there, and postgres would reject it with 22P02.
func isRowID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
