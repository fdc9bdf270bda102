package db

import (
	"errors"

	"github.com/colearn/backend/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation || errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation || errors.Is(err, gorm.ErrForeignKeyViolated)
}

// Translation says how constraint failures of one call site surface to clients.
// A nil entry leaves that failure as a server error.
type Translation struct {
	NotFound   *apperr.Error
	Unique     *apperr.Error
	ForeignKey *apperr.Error
}

// Translate maps a storage error into the apperr taxonomy. Errors that are
// already classified pass through untouched.
func Translate(err error, tr Translation) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound) && tr.NotFound != nil:
		return apperr.Wrap(tr.NotFound.Kind, tr.NotFound.Message, err)
	case IsUniqueViolation(err) && tr.Unique != nil:
		return apperr.Wrap(tr.Unique.Kind, tr.Unique.Message, err)
	case IsForeignKeyViolation(err) && tr.ForeignKey != nil:
		return apperr.Wrap(tr.ForeignKey.Kind, tr.ForeignKey.Message, err)
	}
	return apperr.Server(err)
}
