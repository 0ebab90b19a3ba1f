package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Sentinel errors shared by the repositories. The app layer compares
// against these to translate storage outcomes into domain results.
var (
	ErrRequestNotFound  = fmt.Errorf("translation request not found")
	ErrStatusConflict   = fmt.Errorf("translation request status changed concurrently")
	ErrJobNotFound      = fmt.Errorf("reminder job not found")
	ErrDuplicateJob     = fmt.Errorf("duplicate reminder job (request_id, kind, offset_hours)")
	ErrDuplicateRating  = fmt.Errorf("rating already recorded for this request and rater")
	ErrLanguageNotFound = fmt.Errorf("translator language not found")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505) on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}
