package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting reminder jobs.
//
// Claim must be an atomic lease acquisition: it succeeds only for an
// unfired, unfailed job whose previous lease (if any) has expired, and it
// increments the attempt counter in the same statement. Claim-then-dispatch
// is what keeps delivery at-most-once even when two fire-loop instances
// race.
type Repository interface {
	// ReplaceForRequest atomically swaps the request's job set: every
	// existing job for the request is removed and the given jobs inserted.
	ReplaceForRequest(ctx context.Context, requestID uuid.UUID, jobs []*Job) error
	DeleteForRequest(ctx context.Context, requestID uuid.UUID) error
	ListForRequest(ctx context.Context, requestID uuid.UUID) ([]*Job, error)

	// ListDue returns unfired, unfailed jobs whose fire instant is at or
	// before now, oldest first, up to limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	Claim(ctx context.Context, id int64, now time.Time, leaseUntil time.Time) (bool, error)
	MarkFired(ctx context.Context, id int64, firedAt time.Time) error
	// Release clears the lease and records the dispatch error so the job
	// is retried on a later tick.
	Release(ctx context.Context, id int64, reason string) error
	// MarkFailed permanently retires a job whose delivery kept failing.
	MarkFailed(ctx context.Context, id int64, reason string) error
	Delete(ctx context.Context, id int64) error

	// DeleteFiredBefore removes fired job records older than the cutoff
	// and reports how many were deleted.
	DeleteFiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
