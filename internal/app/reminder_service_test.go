package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"translation_marketplace/internal/domain/reminder"
	"translation_marketplace/internal/domain/request"

	"github.com/google/uuid"
)

func assignedDocumentRequest(deadline time.Time) *request.Request {
	start := fixedNow
	return &request.Request{
		ID:               uuid.New(),
		Title:            "Patent filing",
		SourceLanguage:   "en",
		TargetLanguage:   "ja",
		Type:             request.TypeDocument,
		Status:           request.StatusAssigned,
		Deadline:         deadline,
		StartDate:        &start,
		OriginalDocument: "uploads/patent.pdf",
		ClientPriceCents: 40000,
		Client:           request.Party{ID: uuid.New(), Name: "Clara", Email: "clara@example.com"},
		Translator:       &request.Party{ID: uuid.New(), Name: "Tess", Email: "tess@example.com"},
	}
}

func assignedMeetingRequest(start time.Time) *request.Request {
	return &request.Request{
		ID:              uuid.New(),
		Title:           "Deposition",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
		Type:            request.TypeRemoteMeeting,
		Status:          request.StatusAssigned,
		Deadline:        start.Add(24 * time.Hour),
		StartDate:       &start,
		DurationMinutes: 60,
		Client:          request.Party{ID: uuid.New(), Name: "Clara", Email: "clara@example.com"},
		Translator:      &request.Party{ID: uuid.New(), Name: "Tess", Email: "tess@example.com"},
	}
}

func TestPlanJobs_DocumentTenDaysOut(t *testing.T) {
	req := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	jobs := PlanJobs(req, fixedNow)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	wantOffsets := map[int]bool{168: true, 72: true, 24: true}
	for _, j := range jobs {
		if j.Kind != reminder.KindDocumentDeadline {
			t.Errorf("expected document kind, got %s", j.Kind)
		}
		if !wantOffsets[j.OffsetHours] {
			t.Errorf("unexpected offset %dh", j.OffsetHours)
		}
		want := req.Deadline.Add(-time.Duration(j.OffsetHours) * time.Hour)
		if !j.FireAt.Equal(want) {
			t.Errorf("offset %dh: expected fire at %v, got %v", j.OffsetHours, want, j.FireAt)
		}
	}
}

func TestPlanJobs_MeetingTwoHoursOut(t *testing.T) {
	// 24h and 3h instants are already in the past; only the 1-hour
	// reminder survives.
	req := assignedMeetingRequest(fixedNow.Add(2 * time.Hour))
	jobs := PlanJobs(req, fixedNow)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Kind != reminder.KindMeetingStart || jobs[0].OffsetHours != 1 {
		t.Errorf("expected the 1-hour meeting reminder, got %s/%dh", jobs[0].Kind, jobs[0].OffsetHours)
	}
}

func TestPlanJobs_NothingForTerminalOrUnassigned(t *testing.T) {
	terminal := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	terminal.Status = request.StatusCancelled
	if jobs := PlanJobs(terminal, fixedNow); jobs != nil {
		t.Errorf("terminal request must plan no jobs, got %d", len(jobs))
	}

	unassigned := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	unassigned.Translator = nil
	if jobs := PlanJobs(unassigned, fixedNow); jobs != nil {
		t.Errorf("unassigned request must plan no jobs, got %d", len(jobs))
	}
}

func TestPlanJobs_LiveWithoutStartDate(t *testing.T) {
	req := assignedMeetingRequest(fixedNow.Add(48 * time.Hour))
	req.StartDate = nil
	if jobs := PlanJobs(req, fixedNow); jobs != nil {
		t.Errorf("live request without a start date must plan no jobs, got %d", len(jobs))
	}
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	for i := 0; i < 3; i++ {
		if err := f.reminders.Sync(ctx, req); err != nil {
			t.Fatalf("Sync: %v", err)
		}
	}
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 3 {
		t.Errorf("repeated sync must not duplicate jobs, got %d", len(jobs))
	}
}

func TestSync_TerminalRequestClearsJobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	f.requests.Create(ctx, req)
	f.reminders.Sync(ctx, req)

	req.Status = request.StatusCancelled
	if err := f.reminders.Sync(ctx, req); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 0 {
		t.Errorf("expected cleared schedule, got %d jobs", len(jobs))
	}
}

func TestProcessDue_FiresDueJobsOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(6 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	f.jobs.ReplaceForRequest(ctx, req.ID, []*reminder.Job{
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 168, FireAt: fixedNow.Add(-time.Minute)},
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 72, FireAt: fixedNow.Add(3 * 24 * time.Hour)},
	})

	if err := f.reminders.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	msgs := f.sender.sentTo("tess@example.com")
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one reminder email, got %d", len(msgs))
	}
	if msgs[0].Subject != "Reminder: Translation due in 7 days" {
		t.Errorf("unexpected subject %q", msgs[0].Subject)
	}

	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	var fired, pending int
	for _, j := range jobs {
		if j.Fired {
			fired++
		} else {
			pending++
		}
	}
	if fired != 1 || pending != 1 {
		t.Errorf("expected 1 fired and 1 pending job, got %d/%d", fired, pending)
	}

	// A second tick must not re-fire the job.
	f.reminders.ProcessDue(ctx)
	if len(f.sender.sentTo("tess@example.com")) != 1 {
		t.Error("fired job was dispatched again")
	}
}

func TestProcessDue_StaleJobForCancelledRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(6 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	f.jobs.ReplaceForRequest(ctx, req.ID, []*reminder.Job{
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 168, FireAt: fixedNow.Add(-time.Minute)},
	})

	// Cancel the request without the transactional job cleanup, leaving
	// the fire loop holding a stale due listing.
	cancelled := *req
	cancelled.Status = request.StatusCancelled
	if err := f.requests.UpdateWithStatusCheck(ctx, &cancelled, request.StatusAssigned); err != nil {
		t.Fatalf("UpdateWithStatusCheck: %v", err)
	}

	if err := f.reminders.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if f.sender.count() != 0 {
		t.Error("cancelled request must not produce reminder email")
	}
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 0 {
		t.Errorf("stale job should be deleted, %d remain", len(jobs))
	}
}

func TestSync_StaleSnapshotAfterTerminalTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	// A resync pass read the request while it was ASSIGNED; the
	// cancellation commits before the pass reaches Sync.
	stale := *req
	cancelled := *req
	cancelled.Status = request.StatusCancelled
	if err := f.requests.UpdateWithStatusCheckAndClearReminders(ctx, &cancelled, request.StatusAssigned); err != nil {
		t.Fatalf("UpdateWithStatusCheckAndClearReminders: %v", err)
	}

	if err := f.reminders.Sync(ctx, &stale); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 0 {
		t.Errorf("stale snapshot must not resurrect reminder jobs, found %d", len(jobs))
	}
}

func TestProcessDue_RetriesThenFailsPermanently(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(6 * 24 * time.Hour))
	f.requests.Create(ctx, req)
	f.sender.failFor["tess@example.com"] = errors.New("smtp unavailable")
	f.reminders.maxAttempts = 2

	f.jobs.ReplaceForRequest(ctx, req.ID, []*reminder.Job{
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 24, FireAt: fixedNow.Add(-time.Minute)},
	})

	// First tick: delivery fails, job released for retry.
	f.reminders.ProcessDue(ctx)
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 1 || jobs[0].Failed || jobs[0].Attempts != 1 {
		t.Fatalf("expected released job with 1 attempt, got %+v", jobs[0])
	}
	if len(f.alerter.alerts) != 0 {
		t.Fatal("no admin alert before the attempt cap")
	}

	// Second tick: attempt cap reached, job permanently failed.
	f.reminders.ProcessDue(ctx)
	jobs, _ = f.jobs.ListForRequest(ctx, req.ID)
	if !jobs[0].Failed || jobs[0].Attempts != 2 {
		t.Fatalf("expected permanently failed job after 2 attempts, got %+v", jobs[0])
	}
	if len(f.alerter.alerts) != 1 {
		t.Errorf("expected one admin alert, got %d", len(f.alerter.alerts))
	}

	// Failed jobs never come due again.
	f.reminders.ProcessDue(ctx)
	if jobs, _ = f.jobs.ListForRequest(ctx, req.ID); jobs[0].Attempts != 2 {
		t.Error("failed job was claimed again")
	}
}

func TestProcessDue_RespectsForeignLease(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(6 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	f.jobs.ReplaceForRequest(ctx, req.ID, []*reminder.Job{
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 24, FireAt: fixedNow.Add(-time.Minute)},
	})
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	lease := fixedNow.Add(10 * time.Minute)
	f.jobs.jobs[jobs[0].ID].LockedUntil = &lease

	f.reminders.ProcessDue(ctx)
	if f.sender.count() != 0 {
		t.Error("leased job must not be dispatched by another loop")
	}
}

func TestResyncActive_RepairsSchedules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(10 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	// Simulate a transition whose best-effort scheduling was lost.
	if jobs, _ := f.jobs.ListForRequest(ctx, req.ID); len(jobs) != 0 {
		t.Fatal("precondition: no jobs scheduled")
	}
	if err := f.reminders.ResyncActive(ctx); err != nil {
		t.Fatalf("ResyncActive: %v", err)
	}
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	if len(jobs) != 3 {
		t.Errorf("expected resync to schedule 3 jobs, got %d", len(jobs))
	}
}

func TestCleanup_DeletesOldFiredJobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := assignedDocumentRequest(fixedNow.Add(6 * 24 * time.Hour))
	f.requests.Create(ctx, req)

	f.jobs.ReplaceForRequest(ctx, req.ID, []*reminder.Job{
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 168, FireAt: fixedNow.Add(-10 * 24 * time.Hour)},
		{RequestID: req.ID, Kind: reminder.KindDocumentDeadline, OffsetHours: 24, FireAt: fixedNow.Add(5 * 24 * time.Hour)},
	})
	jobs, _ := f.jobs.ListForRequest(ctx, req.ID)
	for _, j := range jobs {
		if j.OffsetHours == 168 {
			old := fixedNow.Add(-9 * 24 * time.Hour)
			f.jobs.jobs[j.ID].Fired = true
			f.jobs.jobs[j.ID].FiredAt = &old
		}
	}

	deleted, err := f.reminders.Cleanup(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted job, got %d", deleted)
	}
	if jobs, _ = f.jobs.ListForRequest(ctx, req.ID); len(jobs) != 1 {
		t.Errorf("expected the pending job to survive, got %d", len(jobs))
	}
}
