package database

import (
	"context"
	"database/sql"
	"fmt"

	"translation_marketplace/internal/domain/rating"

	"github.com/google/uuid"
)

type PostgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) *PostgresRatingRepository {
	return &PostgresRatingRepository{db: db}
}

func (r *PostgresRatingRepository) Create(ctx context.Context, rt *rating.Rating) error {
	query := `INSERT INTO translator_ratings (request_id, translator_id, rated_by, score, comment)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rt.RequestID, rt.TranslatorID, rt.RatedBy, rt.Score, rt.Comment).Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "translator_ratings_request_rater_unique") {
			return ErrDuplicateRating
		}
		return fmt.Errorf("error creating translator rating: %w", err)
	}
	return nil
}

func (r *PostgresRatingRepository) ListByTranslator(ctx context.Context, translatorID uuid.UUID) ([]*rating.Rating, error) {
	query := `SELECT id, request_id, translator_id, rated_by, score, comment, created_at
		FROM translator_ratings WHERE translator_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, translatorID)
	if err != nil {
		return nil, fmt.Errorf("error listing translator ratings: %w", err)
	}
	defer rows.Close()

	var out []*rating.Rating
	for rows.Next() {
		rt := &rating.Rating{}
		if err := rows.Scan(&rt.ID, &rt.RequestID, &rt.TranslatorID, &rt.RatedBy, &rt.Score, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning translator rating row: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
