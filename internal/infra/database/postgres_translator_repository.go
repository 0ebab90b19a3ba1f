package database

import (
	"context"
	"database/sql"
	"fmt"

	"translation_marketplace/internal/domain/translator"

	"github.com/google/uuid"
)

type PostgresTranslatorRepository struct {
	db *sql.DB
}

func NewPostgresTranslatorRepository(db *sql.DB) *PostgresTranslatorRepository {
	return &PostgresTranslatorRepository{db: db}
}

func (r *PostgresTranslatorRepository) HasVerifiedLanguage(ctx context.Context, translatorID uuid.UUID, languageCode string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM translator_languages
		WHERE translator_id = $1 AND language_code = $2 AND is_verified = TRUE)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, translatorID, languageCode).Scan(&ok); err != nil {
		return false, fmt.Errorf("error checking verified language: %w", err)
	}
	return ok, nil
}

func (r *PostgresTranslatorRepository) ListVerified(ctx context.Context, translatorID uuid.UUID) ([]*translator.Language, error) {
	query := `SELECT translator_id, language_code, proficiency, is_verified, created_at
		FROM translator_languages WHERE translator_id = $1 AND is_verified = TRUE ORDER BY language_code`
	rows, err := r.db.QueryContext(ctx, query, translatorID)
	if err != nil {
		return nil, fmt.Errorf("error listing verified languages: %w", err)
	}
	defer rows.Close()

	var out []*translator.Language
	for rows.Next() {
		l := &translator.Language{}
		if err := rows.Scan(&l.TranslatorID, &l.LanguageCode, &l.Proficiency, &l.IsVerified, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning translator language row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresTranslatorRepository) Upsert(ctx context.Context, l *translator.Language) error {
	query := `INSERT INTO translator_languages (translator_id, language_code, proficiency, is_verified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (translator_id, language_code)
		DO UPDATE SET proficiency = EXCLUDED.proficiency, is_verified = EXCLUDED.is_verified
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, l.TranslatorID, l.LanguageCode, l.Proficiency, l.IsVerified).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting translator language: %w", err)
	}
	return nil
}

var _ translator.Repository = (*PostgresTranslatorRepository)(nil)
