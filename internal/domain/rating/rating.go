package rating

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Rating is a client's 1..5 evaluation of a translator on a completed
// request. One rating per (request, rater).
type Rating struct {
	ID           int64
	RequestID    uuid.UUID
	TranslatorID uuid.UUID
	RatedBy      uuid.UUID
	Score        int
	Comment      string
	CreatedAt    time.Time
}

// Repository defines persistence for translator ratings.
type Repository interface {
	Create(ctx context.Context, r *Rating) error
	ListByTranslator(ctx context.Context, translatorID uuid.UUID) ([]*Rating, error)
}
