package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "reminder_jobs_key_unique"}

	if !isUniqueViolation(dup, "reminder_jobs_key_unique") {
		t.Error("expected a 23505 on the named constraint to match")
	}
	if !isUniqueViolation(fmt.Errorf("insert failed: %w", dup), "reminder_jobs_key_unique") {
		t.Error("expected a wrapped driver error to match")
	}
	if isUniqueViolation(dup, "translator_ratings_request_rater_unique") {
		t.Error("expected a different constraint not to match")
	}
	if isUniqueViolation(&pq.Error{Code: "23503", Constraint: "reminder_jobs_key_unique"}, "reminder_jobs_key_unique") {
		t.Error("expected a non-unique-violation code not to match")
	}
	if isUniqueViolation(errors.New(`duplicate key value violates unique constraint "reminder_jobs_key_unique"`), "reminder_jobs_key_unique") {
		t.Error("expected a plain error mentioning the constraint not to match")
	}
}
