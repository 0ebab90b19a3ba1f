package app

import (
	"context"
	"sync"
	"time"

	"translation_marketplace/internal/domain/notify"
	"translation_marketplace/internal/domain/rating"
	"translation_marketplace/internal/domain/reminder"
	"translation_marketplace/internal/domain/request"
	"translation_marketplace/internal/domain/translator"
	idb "translation_marketplace/internal/infra/database"

	"github.com/google/uuid"
)

// memRequestRepo is an in-memory request.Repository with the same
// compare-and-swap semantics as the Postgres implementation. When jobs is
// set, the terminal-transition method clears the request's reminder jobs
// under the same lock, mirroring the transactional variant.
type memRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*request.Request
	changes  []*request.StatusChange
	jobs     *memReminderRepo

	// afterGet, when set, runs after GetByID returns its snapshot. Tests
	// use it to interleave a concurrent transition inside a command's
	// read-then-write window.
	afterGet func()
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[uuid.UUID]*request.Request)}
}

func copyRequest(r *request.Request) *request.Request {
	cp := *r
	if r.StartDate != nil {
		t := *r.StartDate
		cp.StartDate = &t
	}
	if r.CompletedDate != nil {
		t := *r.CompletedDate
		cp.CompletedDate = &t
	}
	if r.Translator != nil {
		p := *r.Translator
		cp.Translator = &p
	}
	if r.AssignedBy != nil {
		p := *r.AssignedBy
		cp.AssignedBy = &p
	}
	return &cp
}

func (m *memRequestRepo) Create(_ context.Context, req *request.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *memRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*request.Request, error) {
	m.mu.Lock()
	r, ok := m.requests[id]
	var cp *request.Request
	if ok {
		cp = copyRequest(r)
	}
	m.mu.Unlock()
	if !ok {
		return nil, idb.ErrRequestNotFound
	}
	if m.afterGet != nil {
		m.afterGet()
	}
	return cp, nil
}

func (m *memRequestRepo) UpdateWithStatusCheck(_ context.Context, req *request.Request, expected request.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[req.ID]
	if !ok {
		return idb.ErrRequestNotFound
	}
	if stored.Status != expected {
		return idb.ErrStatusConflict
	}
	m.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *memRequestRepo) UpdateWithStatusCheckAndClearReminders(ctx context.Context, req *request.Request, expected request.Status) error {
	m.mu.Lock()
	stored, ok := m.requests[req.ID]
	if !ok {
		m.mu.Unlock()
		return idb.ErrRequestNotFound
	}
	if stored.Status != expected {
		m.mu.Unlock()
		return idb.ErrStatusConflict
	}
	m.requests[req.ID] = copyRequest(req)
	m.mu.Unlock()
	if m.jobs != nil {
		return m.jobs.DeleteForRequest(ctx, req.ID)
	}
	return nil
}

func (m *memRequestRepo) ListByStatus(_ context.Context, statuses ...request.Status) ([]*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.Request
	for _, r := range m.requests {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, copyRequest(r))
				break
			}
		}
	}
	return out, nil
}

func (m *memRequestRepo) AppendStatusChange(_ context.Context, ch *request.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, ch)
	return nil
}

func (m *memRequestRepo) ListStatusChanges(_ context.Context, requestID uuid.UUID) ([]*request.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.StatusChange
	for _, ch := range m.changes {
		if ch.RequestID == requestID {
			out = append(out, ch)
		}
	}
	return out, nil
}

// memReminderRepo is an in-memory reminder.Repository with atomic lease
// claims. Like the Postgres implementation, ReplaceForRequest inserts only
// while the request is still in an active status.
type memReminderRepo struct {
	mu       sync.Mutex
	nextID   int64
	jobs     map[int64]*reminder.Job
	requests *memRequestRepo

	replaceErr error // injected failure for ReplaceForRequest
}

func newMemReminderRepo() *memReminderRepo {
	return &memReminderRepo{jobs: make(map[int64]*reminder.Job)}
}

func (m *memReminderRepo) ReplaceForRequest(_ context.Context, requestID uuid.UUID, jobs []*reminder.Job) error {
	active := true
	if m.requests != nil {
		m.requests.mu.Lock()
		r, ok := m.requests.requests[requestID]
		active = ok && (r.Status == request.StatusAssigned || r.Status == request.StatusInProgress)
		m.requests.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	for id, j := range m.jobs {
		if j.RequestID == requestID {
			delete(m.jobs, id)
		}
	}
	if !active {
		return nil
	}
	for _, j := range jobs {
		m.nextID++
		cp := *j
		cp.ID = m.nextID
		m.jobs[cp.ID] = &cp
	}
	return nil
}

func (m *memReminderRepo) DeleteForRequest(_ context.Context, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if j.RequestID == requestID {
			delete(m.jobs, id)
		}
	}
	return nil
}

func (m *memReminderRepo) ListForRequest(_ context.Context, requestID uuid.UUID) ([]*reminder.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reminder.Job
	for _, j := range m.jobs {
		if j.RequestID == requestID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReminderRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*reminder.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reminder.Job
	for _, j := range m.jobs {
		if !j.Fired && !j.Failed && !j.FireAt.After(now) {
			cp := *j
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memReminderRepo) Claim(_ context.Context, id int64, now, leaseUntil time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return false, nil
	}
	if j.Fired || j.Failed {
		return false, nil
	}
	if j.LockedUntil != nil && j.LockedUntil.After(now) {
		return false, nil
	}
	j.Attempts++
	lease := leaseUntil
	j.LockedUntil = &lease
	return true, nil
}

func (m *memReminderRepo) MarkFired(_ context.Context, id int64, firedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return idb.ErrJobNotFound
	}
	j.Fired = true
	t := firedAt
	j.FiredAt = &t
	j.LockedUntil = nil
	return nil
}

func (m *memReminderRepo) Release(_ context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return idb.ErrJobNotFound
	}
	j.LockedUntil = nil
	j.LastError = reason
	return nil
}

func (m *memReminderRepo) MarkFailed(_ context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return idb.ErrJobNotFound
	}
	j.Failed = true
	j.LastError = reason
	j.LockedUntil = nil
	return nil
}

func (m *memReminderRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return idb.ErrJobNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *memReminderRepo) DeleteFiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, j := range m.jobs {
		if j.Fired && j.FiredAt != nil && j.FiredAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

// memTranslatorRepo verifies languages from a static set.
type memTranslatorRepo struct {
	verified map[uuid.UUID]map[string]bool
}

func newMemTranslatorRepo() *memTranslatorRepo {
	return &memTranslatorRepo{verified: make(map[uuid.UUID]map[string]bool)}
}

func (m *memTranslatorRepo) verify(translatorID uuid.UUID, code string) {
	if m.verified[translatorID] == nil {
		m.verified[translatorID] = make(map[string]bool)
	}
	m.verified[translatorID][code] = true
}

func (m *memTranslatorRepo) HasVerifiedLanguage(_ context.Context, translatorID uuid.UUID, code string) (bool, error) {
	return m.verified[translatorID][code], nil
}

func (m *memTranslatorRepo) ListVerified(_ context.Context, translatorID uuid.UUID) ([]*translator.Language, error) {
	var out []*translator.Language
	for code := range m.verified[translatorID] {
		out = append(out, &translator.Language{TranslatorID: translatorID, LanguageCode: code, IsVerified: true})
	}
	return out, nil
}

func (m *memTranslatorRepo) Upsert(_ context.Context, l *translator.Language) error {
	m.verify(l.TranslatorID, l.LanguageCode)
	return nil
}

// memRatingRepo stores ratings and enforces one per (request, rater).
type memRatingRepo struct {
	ratings []*rating.Rating
}

func (m *memRatingRepo) Create(_ context.Context, r *rating.Rating) error {
	for _, existing := range m.ratings {
		if existing.RequestID == r.RequestID && existing.RatedBy == r.RatedBy {
			return idb.ErrDuplicateRating
		}
	}
	m.ratings = append(m.ratings, r)
	return nil
}

func (m *memRatingRepo) ListByTranslator(_ context.Context, translatorID uuid.UUID) ([]*rating.Rating, error) {
	var out []*rating.Rating
	for _, r := range m.ratings {
		if r.TranslatorID == translatorID {
			out = append(out, r)
		}
	}
	return out, nil
}

// recordingSender captures outbound email and can fail per recipient.
type recordingSender struct {
	mu      sync.Mutex
	sent    []notify.Message
	failFor map[string]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{failFor: make(map[string]error)}
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) sentTo(addr string) []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Message
	for _, m := range s.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// recordingAlerter captures operational alerts.
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) Alert(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, text)
	return nil
}
