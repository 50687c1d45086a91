//go:build !integration

package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationMatchesWrappedError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "deposit_addresses_pkey"}
	wrapped := fmt.Errorf("exec insert: %w", pgErr)

	if !IsUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be recognized")
	}
}

func TestIsUniqueViolationIgnoresOtherErrors(t *testing.T) {
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("expected foreign key violation to be ignored")
	}
	if IsUniqueViolation(errors.New("connection reset")) {
		t.Fatalf("expected plain error to be ignored")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("expected nil error to be ignored")
	}
}
