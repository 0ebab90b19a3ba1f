package scheduler

import (
	"context"
	"time"

	"translation_marketplace/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler drives the reminder engine off wall-clock time: a
// frequent tick claims and dispatches due reminder jobs, an hourly pass
// resynchronizes schedules for active requests, and a weekly pass purges
// fired jobs past retention.
type ReminderScheduler struct {
	cronEngine            *cron.Cron
	reminderService       *app.ReminderService
	logger                *logrus.Logger
	cronSpecReminderCheck string
	cronSpecResync        string
	cronSpecCleanup       string
	jobRetention          time.Duration
}

func NewReminderScheduler(
	reminderService *app.ReminderService,
	logger *logrus.Logger,
	cronSpecReminderCheck string, // e.g. "*/15 * * * *"
	cronSpecResync string, // e.g. "0 * * * *"
	cronSpecCleanup string, // e.g. "0 0 * * 1"
	jobRetention time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:            cron.New(cron.WithLocation(time.Local)),
		reminderService:       reminderService,
		logger:                logger,
		cronSpecReminderCheck: cronSpecReminderCheck,
		cronSpecResync:        cronSpecResync,
		cronSpecCleanup:       cronSpecCleanup,
		jobRetention:          jobRetention,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.Info("starting reminder scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpecReminderCheck, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.reminderService.ProcessDue(ctx); err != nil {
			s.logger.Errorf("due reminder processing failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecResync, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.reminderService.ResyncActive(ctx); err != nil {
			s.logger.Errorf("reminder resync failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecCleanup, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		deleted, err := s.reminderService.Cleanup(ctx, s.jobRetention)
		if err != nil {
			s.logger.Errorf("reminder job cleanup failed: %v", err)
			return
		}
		s.logger.WithField("deleted", deleted).Info("fired reminder jobs purged")
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("reminder scheduler started")
	return nil
}

// Stop halts scheduling and waits for any in-flight job to finish.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("stopping reminder scheduler")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}
