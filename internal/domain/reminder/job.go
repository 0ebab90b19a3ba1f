package reminder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two reminder families.
type Kind string

const (
	// KindDocumentDeadline reminds the translator of an approaching
	// document deadline (7, 3 and 1 days before).
	KindDocumentDeadline Kind = "DOCUMENT_DEADLINE"
	// KindMeetingStart reminds the translator of an upcoming
	// interpretation session (24, 3 and 1 hours before the start).
	KindMeetingStart Kind = "MEETING_START"
)

// Job is a scheduled, at-most-once-fired notification tied to a request's
// deadline or start time. The (RequestID, Kind, OffsetHours) triple is the
// job key: rescheduling replaces the job with the same key rather than
// duplicating it.
type Job struct {
	ID          int64
	RequestID   uuid.UUID
	Kind        Kind
	OffsetHours int
	FireAt      time.Time
	Fired       bool
	FiredAt     *time.Time
	Failed      bool
	Attempts    int
	LastError   string
	LockedUntil *time.Time
	CreatedAt   time.Time
}

// Key renders the structured job key for logs.
func (j *Job) Key() string {
	return fmt.Sprintf("%s/%s/%dh", j.RequestID, j.Kind, j.OffsetHours)
}
