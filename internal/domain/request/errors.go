package request

import (
	"fmt"

	"github.com/google/uuid"
)

// ConflictingStateError reports a transition attempted from a status that
// does not permit it, or by an actor who is not allowed to trigger it.
// It is an expected domain outcome and is never retried automatically.
type ConflictingStateError struct {
	RequestID uuid.UUID
	Current   Status
	Requested Status
	Reason    string
}

func (e *ConflictingStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("request %s: cannot move %s -> %s: %s", e.RequestID, e.Current, e.Requested, e.Reason)
	}
	return fmt.Sprintf("request %s: cannot move %s -> %s", e.RequestID, e.Current, e.Requested)
}

// ValidationError reports a missing or invalid field, surfaced to the
// caller before any mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EligibilityError reports that a translator lacks a verified language
// for the request's target language.
type EligibilityError struct {
	TranslatorID uuid.UUID
	Language     string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("translator %s has no verified proficiency in %s", e.TranslatorID, e.Language)
}
