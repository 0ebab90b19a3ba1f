package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"translation_marketplace/internal/domain/reminder"

	"github.com/google/uuid"
)

const jobColumns = `id, request_id, kind, offset_hours, fire_at, fired, fired_at,
	failed, attempts, last_error, locked_until, created_at`

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

// ReplaceForRequest swaps the request's job set in one transaction, which
// gives reschedules their replace-existing semantics: stale offsets vanish
// and identical recomputations leave an identical set behind. The insert is
// conditioned on the request still holding an active status, so a job set
// planned from a snapshot that a terminal transition has since overtaken
// leaves the table cleared instead of resurrecting reminders.
func (r *PostgresReminderRepository) ReplaceForRequest(ctx context.Context, requestID uuid.UUID, jobs []*reminder.Job) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for job replacement: %w", err)
	}
	defer txn.Rollback()

	if _, err := txn.ExecContext(ctx, `DELETE FROM reminder_jobs WHERE request_id = $1`, requestID); err != nil {
		return fmt.Errorf("error deleting existing reminder jobs: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO reminder_jobs (request_id, kind, offset_hours, fire_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM translation_requests
			WHERE id = $1 AND status IN ('ASSIGNED', 'IN_PROGRESS')
		) RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for job insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		err := stmt.QueryRowContext(ctx, j.RequestID, j.Kind, j.OffsetHours, j.FireAt).Scan(&j.ID, &j.CreatedAt)
		if err == sql.ErrNoRows {
			// The request left the active statuses after this set was
			// planned; keep the table cleared.
			break
		}
		if err != nil {
			if isUniqueViolation(err, "reminder_jobs_key_unique") {
				return ErrDuplicateJob
			}
			return fmt.Errorf("error inserting reminder job %s: %w", j.Key(), err)
		}
	}

	return txn.Commit()
}

func (r *PostgresReminderRepository) DeleteForRequest(ctx context.Context, requestID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminder_jobs WHERE request_id = $1`, requestID); err != nil {
		return fmt.Errorf("error deleting reminder jobs for request %s: %w", requestID, err)
	}
	return nil
}

func (r *PostgresReminderRepository) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]*reminder.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM reminder_jobs WHERE request_id = $1 ORDER BY fire_at`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("error listing reminder jobs for request: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *PostgresReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*reminder.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM reminder_jobs
		WHERE fired = FALSE AND failed = FALSE AND fire_at <= $1
		ORDER BY fire_at LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing due reminder jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// Claim takes a dispatch lease on the job. The WHERE clause is the
// compare-and-swap: a job already fired, permanently failed, or still held
// by a live lease cannot be claimed again.
func (r *PostgresReminderRepository) Claim(ctx context.Context, id int64, now time.Time, leaseUntil time.Time) (bool, error) {
	query := `UPDATE reminder_jobs
		SET attempts = attempts + 1, locked_until = $2
		WHERE id = $1 AND fired = FALSE AND failed = FALSE
		  AND (locked_until IS NULL OR locked_until <= $3)`
	res, err := r.db.ExecContext(ctx, query, id, leaseUntil, now)
	if err != nil {
		return false, fmt.Errorf("error claiming reminder job %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking rows affected on claim: %w", err)
	}
	return rows == 1, nil
}

func (r *PostgresReminderRepository) MarkFired(ctx context.Context, id int64, firedAt time.Time) error {
	query := `UPDATE reminder_jobs SET fired = TRUE, fired_at = $2, locked_until = NULL WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, firedAt)
}

func (r *PostgresReminderRepository) Release(ctx context.Context, id int64, reason string) error {
	query := `UPDATE reminder_jobs SET locked_until = NULL, last_error = $2 WHERE id = $1 AND fired = FALSE`
	return execExpectingRow(ctx, r.db, query, id, reason)
}

func (r *PostgresReminderRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE reminder_jobs SET failed = TRUE, locked_until = NULL, last_error = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, reason)
}

func (r *PostgresReminderRepository) Delete(ctx context.Context, id int64) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM reminder_jobs WHERE id = $1`, id)
}

func (r *PostgresReminderRepository) DeleteFiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminder_jobs WHERE fired = TRUE AND fired_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting old fired reminder jobs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error checking rows affected on cleanup: %w", err)
	}
	return rows, nil
}

func execExpectingRow(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error executing reminder job update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrJobNotFound
	}
	return nil
}

func collectJobs(rows *sql.Rows) ([]*reminder.Job, error) {
	var out []*reminder.Job
	for rows.Next() {
		j := &reminder.Job{}
		var firedAt, lockedUntil sql.NullTime
		var lastErr sql.NullString
		err := rows.Scan(&j.ID, &j.RequestID, &j.Kind, &j.OffsetHours, &j.FireAt,
			&j.Fired, &firedAt, &j.Failed, &j.Attempts, &lastErr, &lockedUntil, &j.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder job row: %w", err)
		}
		j.FiredAt = timePtr(firedAt)
		j.LockedUntil = timePtr(lockedUntil)
		j.LastError = lastErr.String
		out = append(out, j)
	}
	return out, rows.Err()
}
