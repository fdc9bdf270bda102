package db

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/colearn/backend/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var folderTranslation = Translation{
	NotFound:   apperr.NotFound("folder not found"),
	Unique:     apperr.Conflict("folder already exists"),
	ForeignKey: apperr.Validation("parent folder does not exist"),
}

func TestTranslateUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
	got := Translate(err, folderTranslation)
	if apperr.Status(got) != http.StatusConflict {
		t.Fatalf("expected 409, got %d", apperr.Status(got))
	}
}

func TestTranslateForeignKeyViolation(t *testing.T) {
	got := Translate(&pgconn.PgError{Code: "23503"}, folderTranslation)
	if apperr.Status(got) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", apperr.Status(got))
	}
	if apperr.Message(got) != "parent folder does not exist" {
		t.Fatalf("unexpected message %q", apperr.Message(got))
	}
}

func TestTranslateRecordNotFound(t *testing.T) {
	got := Translate(gorm.ErrRecordNotFound, folderTranslation)
	if apperr.Status(got) != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apperr.Status(got))
	}
}

// TestTranslateUnmappedIsServerError verifies that constraint failures without a
// translation never leak as client errors.
func TestTranslateUnmappedIsServerError(t *testing.T) {
	got := Translate(&pgconn.PgError{Code: "23505"}, Translation{})
	if apperr.Status(got) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", apperr.Status(got))
	}
	if Translate(nil, folderTranslation) != nil {
		t.Fatal("expected nil passthrough")
	}
	classified := apperr.Forbidden("not yours")
	if !errors.Is(Translate(classified, folderTranslation), classified) {
		t.Fatal("expected classified error to pass through")
	}
}
