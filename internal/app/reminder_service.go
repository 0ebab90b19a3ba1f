package app

import (
	"context"
	"fmt"
	"time"

	"translation_marketplace/internal/domain/reminder"
	"translation_marketplace/internal/domain/request"

	"github.com/sirupsen/logrus"
)

// Reminder offsets. Document deadlines warn in days, interpretation
// sessions in hours.
var (
	documentReminderDays = []int{7, 3, 1}
	meetingReminderHours = []int{24, 3, 1}
)

const (
	defaultDueBatchSize = 200
	defaultClaimLease   = 15 * time.Minute
)

// ReminderService owns the reminder job table: it computes job sets from
// request snapshots, keeps them in sync with schedule changes, and runs
// the periodic fire/cleanup/resync passes the cron scheduler ticks.
type ReminderService struct {
	requests request.Repository
	jobs     reminder.Repository
	notifier *NotificationService
	logger   *logrus.Logger

	maxAttempts int
	claimLease  time.Duration
	now         func() time.Time
}

func NewReminderService(
	requests request.Repository,
	jobs reminder.Repository,
	notifier *NotificationService,
	logger *logrus.Logger,
	maxAttempts int,
) *ReminderService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ReminderService{
		requests:    requests,
		jobs:        jobs,
		notifier:    notifier,
		logger:      logger,
		maxAttempts: maxAttempts,
		claimLease:  defaultClaimLease,
		now:         time.Now,
	}
}

// PlanJobs computes the deterministic reminder set for a request snapshot.
// Only instants strictly in the future at computation time are included;
// requests without a translator, and live requests without a start date,
// produce no jobs.
func PlanJobs(req *request.Request, now time.Time) []*reminder.Job {
	if req.Status.IsTerminal() || !req.Assigned() {
		return nil
	}

	var jobs []*reminder.Job
	if req.Type == request.TypeDocument {
		for _, days := range documentReminderDays {
			fireAt := req.Deadline.Add(-time.Duration(days) * 24 * time.Hour)
			if fireAt.After(now) {
				jobs = append(jobs, &reminder.Job{
					RequestID:   req.ID,
					Kind:        reminder.KindDocumentDeadline,
					OffsetHours: days * 24,
					FireAt:      fireAt,
				})
			}
		}
		return jobs
	}

	if req.StartDate == nil {
		return nil
	}
	for _, hours := range meetingReminderHours {
		fireAt := req.StartDate.Add(-time.Duration(hours) * time.Hour)
		if fireAt.After(now) {
			jobs = append(jobs, &reminder.Job{
				RequestID:   req.ID,
				Kind:        reminder.KindMeetingStart,
				OffsetHours: hours,
				FireAt:      fireAt,
			})
		}
	}
	return jobs
}

// Sync recomputes and persists the request's job set. Recomputation with
// identical schedule fields yields an identical set (replace-existing), and
// offsets no longer in the future disappear. Terminal or unassigned
// requests get their jobs removed.
func (s *ReminderService) Sync(ctx context.Context, req *request.Request) error {
	jobs := PlanJobs(req, s.now())
	if len(jobs) == 0 {
		if err := s.jobs.DeleteForRequest(ctx, req.ID); err != nil {
			return fmt.Errorf("failed to clear reminder jobs for request %s: %w", req.ID, err)
		}
		return nil
	}
	if err := s.jobs.ReplaceForRequest(ctx, req.ID, jobs); err != nil {
		return fmt.Errorf("failed to replace reminder jobs for request %s: %w", req.ID, err)
	}
	s.logger.WithField("request", req.ID).Debugf("scheduled %d reminder jobs", len(jobs))
	return nil
}

// ProcessDue is one fire-loop tick: claim each due job, dispatch its
// reminder, and mark it fired. A job whose delivery fails is released for
// the next tick until the attempt cap is reached, then permanently failed
// and surfaced to the admins rather than silently dropped.
func (s *ReminderService) ProcessDue(ctx context.Context) error {
	now := s.now()
	due, err := s.jobs.ListDue(ctx, now, defaultDueBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list due reminder jobs: %w", err)
	}

	for _, job := range due {
		claimed, err := s.jobs.Claim(ctx, job.ID, now, now.Add(s.claimLease))
		if err != nil {
			s.logger.Errorf("failed to claim reminder job %s: %v", job.Key(), err)
			continue
		}
		if !claimed {
			// Another loop instance holds it.
			continue
		}
		s.fireJob(ctx, job)
	}
	return nil
}

func (s *ReminderService) fireJob(ctx context.Context, job *reminder.Job) {
	req, err := s.requests.GetByID(ctx, job.RequestID)
	if err != nil {
		s.logger.Errorf("reminder job %s: cannot load request: %v", job.Key(), err)
		s.release(ctx, job, err)
		return
	}

	// Jobs are deleted inside the terminal-transition transaction, but the
	// fire loop may still hold a stale listing.
	if req.Status.IsTerminal() || !req.Assigned() {
		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			s.logger.Errorf("reminder job %s: cannot delete stale job: %v", job.Key(), err)
		}
		return
	}

	err = s.notifier.Dispatch(ctx, Event{
		Kind:         EventReminder,
		Request:      req,
		ReminderKind: job.Kind,
		OffsetHours:  job.OffsetHours,
	})
	if err != nil {
		s.release(ctx, job, err)
		return
	}

	if err := s.jobs.MarkFired(ctx, job.ID, s.now()); err != nil {
		s.logger.Errorf("reminder job %s dispatched but could not be marked fired: %v", job.Key(), err)
	}
}

// release puts a failed job back for retry, or retires it permanently once
// the attempt cap is exhausted.
func (s *ReminderService) release(ctx context.Context, job *reminder.Job, cause error) {
	attempts := job.Attempts + 1 // Claim already incremented the stored counter
	if attempts >= s.maxAttempts {
		s.logger.WithFields(logrus.Fields{
			"job":      job.Key(),
			"attempts": attempts,
		}).Errorf("reminder permanently failed: %v", cause)
		if err := s.jobs.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
			s.logger.Errorf("could not mark reminder job %s failed: %v", job.Key(), err)
		}
		s.notifier.AlertAdmins(ctx, fmt.Sprintf("Reminder %s gave up after %d attempts: %v", job.Key(), attempts, cause))
		return
	}

	s.logger.Warnf("reminder job %s dispatch failed (attempt %d/%d), will retry: %v", job.Key(), attempts, s.maxAttempts, cause)
	if err := s.jobs.Release(ctx, job.ID, cause.Error()); err != nil {
		s.logger.Errorf("could not release reminder job %s: %v", job.Key(), err)
	}
}

// ResyncActive recomputes reminder schedules for every active assignment,
// converging any schedule that a failed Sync during a transition left
// behind.
func (s *ReminderService) ResyncActive(ctx context.Context) error {
	active, err := s.requests.ListByStatus(ctx, request.StatusAssigned, request.StatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to list active requests for resync: %w", err)
	}
	for _, req := range active {
		if err := s.Sync(ctx, req); err != nil {
			s.logger.Errorf("resync of request %s failed: %v", req.ID, err)
		}
	}
	return nil
}

// Cleanup deletes fired job records older than the retention window and
// reports how many rows were removed.
func (s *ReminderService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	deleted, err := s.jobs.DeleteFiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old fired reminder jobs: %w", err)
	}
	if deleted > 0 {
		s.logger.Infof("cleanup removed %d fired reminder jobs older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
