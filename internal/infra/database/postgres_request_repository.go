package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"translation_marketplace/internal/domain/request"

	"github.com/google/uuid"
)

const requestColumns = `id, title, description, source_language, target_language,
	translation_type, status, deadline, start_date, completed_date,
	original_document, translated_document, address, duration_minutes,
	meeting_link, phone_number, client_price_cents, translator_price_cents,
	is_paid, payment_ref, client_id, client_name, client_email,
	translator_id, translator_name, translator_email,
	assigned_by_id, assigned_by_name, assigned_by_email,
	notes, created_at, updated_at`

type PostgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) Create(ctx context.Context, req *request.Request) error {
	query := `INSERT INTO translation_requests (
			id, title, description, source_language, target_language,
			translation_type, status, deadline, start_date,
			original_document, address, duration_minutes, meeting_link, phone_number,
			client_price_cents, translator_price_cents, is_paid,
			client_id, client_name, client_email, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		req.ID, req.Title, req.Description, req.SourceLanguage, req.TargetLanguage,
		req.Type, req.Status, req.Deadline, nullTime(req.StartDate),
		nullString(req.OriginalDocument), nullString(req.Address), nullInt(req.DurationMinutes),
		nullString(req.MeetingLink), nullString(req.PhoneNumber),
		req.ClientPriceCents, req.TranslatorPriceCents, req.IsPaid,
		req.Client.ID, req.Client.Name, req.Client.Email, req.Notes,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating translation request: %w", err)
	}
	return nil
}

func (r *PostgresRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM translation_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("error getting translation request by ID: %w", err)
	}
	return req, nil
}

func (r *PostgresRequestRepository) UpdateWithStatusCheck(ctx context.Context, req *request.Request, expected request.Status) error {
	query := updateRequestQuery + ` AND status = $23`
	res, err := r.db.ExecContext(ctx, query, append(updateRequestArgs(req), expected)...)
	if err != nil {
		return fmt.Errorf("error updating translation request with status check: %w", err)
	}
	return statusCheckResult(res)
}

// UpdateWithStatusCheckAndClearReminders performs the status-checked update
// and deletes the request's reminder jobs in the same transaction, so that
// once a terminal transition commits no reminder for the request can fire.
func (r *PostgresRequestRepository) UpdateWithStatusCheckAndClearReminders(ctx context.Context, req *request.Request, expected request.Status) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for terminal transition: %w", err)
	}
	defer txn.Rollback()

	query := updateRequestQuery + ` AND status = $23`
	res, err := txn.ExecContext(ctx, query, append(updateRequestArgs(req), expected)...)
	if err != nil {
		return fmt.Errorf("error updating translation request in terminal transition: %w", err)
	}
	if err := statusCheckResult(res); err != nil {
		return err
	}

	if _, err := txn.ExecContext(ctx, `DELETE FROM reminder_jobs WHERE request_id = $1`, req.ID); err != nil {
		return fmt.Errorf("error clearing reminder jobs in terminal transition: %w", err)
	}

	return txn.Commit()
}

func (r *PostgresRequestRepository) ListByStatus(ctx context.Context, statuses ...request.Status) ([]*request.Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, len(statuses))
	placeholders := ""
	for i, s := range statuses {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args[i] = s
	}
	query := `SELECT ` + requestColumns + ` FROM translation_requests
		WHERE status IN (` + placeholders + `) ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing translation requests by status: %w", err)
	}
	defer rows.Close()

	var out []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning translation request row: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *PostgresRequestRepository) AppendStatusChange(ctx context.Context, ch *request.StatusChange) error {
	query := `INSERT INTO request_status_changes (request_id, status, actor_id, actor_role, note, changed_at)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, ch.RequestID, ch.Status, ch.ActorID, ch.ActorRole, ch.Note, ch.ChangedAt).Scan(&ch.ID)
	if err != nil {
		return fmt.Errorf("error appending status change: %w", err)
	}
	return nil
}

func (r *PostgresRequestRepository) ListStatusChanges(ctx context.Context, requestID uuid.UUID) ([]*request.StatusChange, error) {
	query := `SELECT id, request_id, status, actor_id, actor_role, note, changed_at
		FROM request_status_changes WHERE request_id = $1 ORDER BY changed_at DESC`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("error listing status changes: %w", err)
	}
	defer rows.Close()

	var out []*request.StatusChange
	for rows.Next() {
		ch := &request.StatusChange{}
		if err := rows.Scan(&ch.ID, &ch.RequestID, &ch.Status, &ch.ActorID, &ch.ActorRole, &ch.Note, &ch.ChangedAt); err != nil {
			return nil, fmt.Errorf("error scanning status change row: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

const updateRequestQuery = `UPDATE translation_requests SET
		title = $2, description = $3, status = $4, deadline = $5, start_date = $6,
		completed_date = $7, original_document = $8, translated_document = $9,
		address = $10, duration_minutes = $11, meeting_link = $12, phone_number = $13,
		client_price_cents = $14, translator_price_cents = $15, is_paid = $16, payment_ref = $17,
		translator_id = $18, translator_name = $19, translator_email = $20,
		assigned_by_id = $21, notes = $22, updated_at = NOW()
	WHERE id = $1`

func updateRequestArgs(req *request.Request) []any {
	var translatorID, translatorName, translatorEmail any
	if req.Translator != nil {
		translatorID, translatorName, translatorEmail = req.Translator.ID, req.Translator.Name, req.Translator.Email
	}
	var assignedByID any
	if req.AssignedBy != nil {
		assignedByID = req.AssignedBy.ID
	}
	return []any{
		req.ID, req.Title, req.Description, req.Status, req.Deadline, nullTime(req.StartDate),
		nullTime(req.CompletedDate), nullString(req.OriginalDocument), nullString(req.TranslatedDocument),
		nullString(req.Address), nullInt(req.DurationMinutes), nullString(req.MeetingLink), nullString(req.PhoneNumber),
		req.ClientPriceCents, req.TranslatorPriceCents, req.IsPaid, nullString(req.PaymentRef),
		translatorID, translatorName, translatorEmail,
		assignedByID, req.Notes,
	}
}

func statusCheckResult(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected on status-checked update: %w", err)
	}
	if rows == 0 {
		return ErrStatusConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*request.Request, error) {
	req := &request.Request{}
	var (
		startDate, completedDate                      sql.NullTime
		originalDoc, translatedDoc, address           sql.NullString
		meetingLink, phoneNumber, paymentRef          sql.NullString
		durationMinutes                               sql.NullInt64
		translatorID, assignedByID                    uuid.NullUUID
		translatorName, translatorEmail               sql.NullString
		assignedByName, assignedByEmail               sql.NullString
	)
	err := row.Scan(
		&req.ID, &req.Title, &req.Description, &req.SourceLanguage, &req.TargetLanguage,
		&req.Type, &req.Status, &req.Deadline, &startDate, &completedDate,
		&originalDoc, &translatedDoc, &address, &durationMinutes,
		&meetingLink, &phoneNumber, &req.ClientPriceCents, &req.TranslatorPriceCents,
		&req.IsPaid, &paymentRef, &req.Client.ID, &req.Client.Name, &req.Client.Email,
		&translatorID, &translatorName, &translatorEmail,
		&assignedByID, &assignedByName, &assignedByEmail,
		&req.Notes, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.StartDate = timePtr(startDate)
	req.CompletedDate = timePtr(completedDate)
	req.OriginalDocument = originalDoc.String
	req.TranslatedDocument = translatedDoc.String
	req.Address = address.String
	req.MeetingLink = meetingLink.String
	req.PhoneNumber = phoneNumber.String
	req.PaymentRef = paymentRef.String
	req.DurationMinutes = int(durationMinutes.Int64)
	if translatorID.Valid {
		req.Translator = &request.Party{ID: translatorID.UUID, Name: translatorName.String, Email: translatorEmail.String}
	}
	if assignedByID.Valid {
		req.AssignedBy = &request.Party{ID: assignedByID.UUID, Name: assignedByName.String, Email: assignedByEmail.String}
	}
	return req, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
