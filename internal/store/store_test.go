package store

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorCodeUnwrapsDriverErrors(t *testing.T) {
	// gorm wraps driver errors, so the code must survive unwrapping.
	deadlock := fmt.Errorf("insert fixtures: %w", &pgconn.PgError{Code: "40P01"})
	if got := pgErrorCode(deadlock); got != "40P01" {
		t.Fatalf("deadlock code = %q, want 40P01", got)
	}

	unique := fmt.Errorf("insert quotes: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_quotes_current"})
	if got := pgErrorCode(unique); got != "23505" {
		t.Fatalf("unique-violation code = %q, want 23505", got)
	}

	if got := pgErrorCode(fmt.Errorf("connection reset")); got != "" {
		t.Fatalf("non-driver error classified as %q", got)
	}
}
