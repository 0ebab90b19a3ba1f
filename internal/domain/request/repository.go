package request

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving
// translation requests.
//
// The status-checked update methods are the concurrency backbone of the
// lifecycle: they must apply the update only while the stored status still
// equals the expected one (compare-and-swap), and report a conflict
// otherwise, so that two concurrent transitions on the same request resolve
// to exactly one winner.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// UpdateWithStatusCheck persists the request only if its stored status
	// still equals expected. Non-status field changes (schedule edits) go
	// through it too, so a concurrent transition invalidates the write.
	UpdateWithStatusCheck(ctx context.Context, req *Request, expected Status) error

	// UpdateWithStatusCheckAndClearReminders additionally deletes every
	// reminder job belonging to the request inside the same transaction.
	// Used for terminal transitions so no reminder can fire afterward.
	UpdateWithStatusCheckAndClearReminders(ctx context.Context, req *Request, expected Status) error

	ListByStatus(ctx context.Context, statuses ...Status) ([]*Request, error)

	AppendStatusChange(ctx context.Context, ch *StatusChange) error
	ListStatusChanges(ctx context.Context, requestID uuid.UUID) ([]*StatusChange, error)
}
