package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConflict means a guarded update matched no row because the row had
	// already moved to another state.
	ErrConflict = errors.New("row state changed")
	// ErrConstraint wraps integrity violations reported by PostgreSQL.
	ErrConstraint = errors.New("constraint violation")
)

const (
	pgNotNullViolation = "23502"
	pgForeignKey       = "23503"
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgNotNullViolation, pgForeignKey, pgUniqueViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s (%s)", ErrConstraint, pgErr.Message, pgErr.Code)
		}
	}
	return err
}
