package translator

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the read side of translator language verification.
// Lookups are read-only during a transition.
type Repository interface {
	HasVerifiedLanguage(ctx context.Context, translatorID uuid.UUID, languageCode string) (bool, error)
	ListVerified(ctx context.Context, translatorID uuid.UUID) ([]*Language, error)
	Upsert(ctx context.Context, l *Language) error
}
