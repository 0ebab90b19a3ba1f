package app

import (
	"context"
	"fmt"
	"time"

	"translation_marketplace/internal/domain/invoice"
	"translation_marketplace/internal/domain/rating"
	"translation_marketplace/internal/domain/request"
	"translation_marketplace/internal/domain/translator"
	idb "translation_marketplace/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestService implements the lifecycle state machine: it validates and
// applies transitions on translation requests, enforcing actor and field
// preconditions, and emits the reminder and notification side effects.
//
// Every status write goes through the repository's compare-and-swap
// methods, so concurrent transitions on the same request resolve to one
// winner; the loser receives a ConflictingStateError. Reminder scheduling
// and notification dispatch are best-effort: their failure never rolls
// back a committed transition.
type RequestService struct {
	requests    request.Repository
	translators translator.Repository
	ratings     rating.Repository
	reminders   *ReminderService
	notifier    *NotificationService
	invoices    invoice.Generator
	logger      *logrus.Logger
	now         func() time.Time
}

func NewRequestService(
	requests request.Repository,
	translators translator.Repository,
	ratings rating.Repository,
	reminders *ReminderService,
	notifier *NotificationService,
	invoices invoice.Generator,
	logger *logrus.Logger,
) *RequestService {
	return &RequestService{
		requests:    requests,
		translators: translators,
		ratings:     ratings,
		reminders:   reminders,
		notifier:    notifier,
		invoices:    invoices,
		logger:      logger,
		now:         time.Now,
	}
}

// NewRequestInput carries the client-provided fields of a quote request.
type NewRequestInput struct {
	Title            string
	Description      string
	SourceLanguage   string
	TargetLanguage   string
	Type             request.Type
	Deadline         time.Time
	StartDate        *time.Time
	OriginalDocument string
	Address          string
	DurationMinutes  int
	Notes            string
}

// SubmitQuote creates a new request in status QUOTE on behalf of a client.
func (s *RequestService) SubmitQuote(ctx context.Context, actor request.Actor, in NewRequestInput) (*request.Request, error) {
	if actor.Role != request.RoleClient {
		return nil, &request.ValidationError{Field: "actor", Reason: "only clients may submit quote requests"}
	}

	req := &request.Request{
		ID:               uuid.New(),
		Title:            in.Title,
		Description:      in.Description,
		SourceLanguage:   in.SourceLanguage,
		TargetLanguage:   in.TargetLanguage,
		Type:             in.Type,
		Status:           request.StatusQuote,
		Deadline:         in.Deadline,
		StartDate:        in.StartDate,
		OriginalDocument: in.OriginalDocument,
		Address:          in.Address,
		DurationMinutes:  in.DurationMinutes,
		Notes:            in.Notes,
		Client:           request.Party{ID: actor.ID, Name: actor.Name, Email: actor.Email},
	}
	if err := request.ValidateNew(req, s.now()); err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	s.appendHistory(ctx, req, actor, "quote request submitted")
	s.logger.WithField("request", req.ID).Info("quote request submitted")
	return req, nil
}

// ApproveQuote prices the request and moves QUOTE -> QUOTED.
func (s *RequestService) ApproveQuote(ctx context.Context, actor request.Actor, id uuid.UUID, clientPriceCents, translatorPriceCents int64) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusQuoted, request.CapAdmin); err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusQuoted); err != nil {
		return nil, err
	}
	if clientPriceCents <= 0 {
		return nil, &request.ValidationError{Field: "client_price", Reason: "required to approve a quote"}
	}
	if translatorPriceCents <= 0 {
		return nil, &request.ValidationError{Field: "translator_price", Reason: "required to approve a quote"}
	}

	prev := req.Status
	req.Status = request.StatusQuoted
	req.ClientPriceCents = clientPriceCents
	req.TranslatorPriceCents = translatorPriceCents
	if err := s.requests.UpdateWithStatusCheck(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusQuoted)
	}

	s.appendHistory(ctx, req, actor, "quote approved and priced")
	s.dispatch(ctx, Event{Kind: EventQuoteApproved, Request: req})
	return req, nil
}

// RejectQuote moves QUOTE -> REJECTED (terminal).
func (s *RequestService) RejectQuote(ctx context.Context, actor request.Actor, id uuid.UUID, note string) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusRejected, request.CapAdmin); err != nil {
		return nil, err
	}
	if req.Status != request.StatusQuote {
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: request.StatusRejected, Reason: "only unpriced quotes can be rejected by an admin"}
	}

	prev := req.Status
	req.Status = request.StatusRejected
	if err := s.requests.UpdateWithStatusCheckAndClearReminders(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusRejected)
	}

	s.appendHistory(ctx, req, actor, note)
	s.dispatch(ctx, Event{Kind: EventQuoteRejected, Request: req})
	return req, nil
}

// ConfirmPayment consumes an inbound payment confirmation and moves
// QUOTED -> PAID. The confirmed amount must match the quoted client price
// exactly.
func (s *RequestService) ConfirmPayment(ctx context.Context, id uuid.UUID, amountCents int64, providerRef string) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusPaid); err != nil {
		return nil, err
	}
	if amountCents != req.ClientPriceCents {
		return nil, &request.ConflictingStateError{
			RequestID: id,
			Current:   req.Status,
			Requested: request.StatusPaid,
			Reason:    fmt.Sprintf("confirmed amount %d does not match quoted price %d", amountCents, req.ClientPriceCents),
		}
	}

	prev := req.Status
	req.Status = request.StatusPaid
	req.IsPaid = true
	req.PaymentRef = providerRef
	if err := s.requests.UpdateWithStatusCheck(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusPaid)
	}

	s.appendHistory(ctx, req, request.Actor{ID: req.Client.ID, Role: request.RoleClient}, "payment confirmed: "+providerRef)
	s.dispatch(ctx, Event{Kind: EventPaymentReceived, Request: req})
	return req, nil
}

// Accept binds the acting translator to a paid, unassigned request:
// PAID -> ASSIGNED. The translator must hold a verified proficiency in the
// request's target language. When two translators race for the same
// request, the compare-and-swap update lets exactly one win.
func (s *RequestService) Accept(ctx context.Context, actor request.Actor, id uuid.UUID) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusAssigned, request.CapAnyTranslator); err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusAssigned); err != nil {
		return nil, err
	}
	if req.Assigned() {
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: request.StatusAssigned, Reason: "request already has a translator"}
	}

	verified, err := s.translators.HasVerifiedLanguage(ctx, actor.ID, req.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to check language verification: %w", err)
	}
	if !verified {
		return nil, &request.EligibilityError{TranslatorID: actor.ID, Language: req.TargetLanguage}
	}

	prev := req.Status
	req.Status = request.StatusAssigned
	req.Translator = &request.Party{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	req.AssignedBy = &request.Party{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	if req.StartDate == nil {
		// Document work starts at acceptance; client-scheduled session
		// times are preserved.
		start := s.now()
		req.StartDate = &start
	}
	if err := s.requests.UpdateWithStatusCheck(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusAssigned)
	}

	s.appendHistory(ctx, req, actor, "translator accepted the request")
	if err := s.reminders.Sync(ctx, req); err != nil {
		// Scheduling is not transactionally required for the transition;
		// the resync pass repairs it.
		s.logger.Errorf("reminder scheduling failed for request %s: %v", req.ID, err)
	}
	s.dispatch(ctx, Event{Kind: EventTranslatorAssigned, Request: req})
	return req, nil
}

// Decline refuses a request. From PAID it is a pool decline by any
// translator and the request becomes terminally REJECTED with no
// translator. From ASSIGNED or IN_PROGRESS only the owning translator may
// decline: the translator is released and the request still goes to the
// terminal REJECTED status.
func (s *RequestService) Decline(ctx context.Context, actor request.Actor, id uuid.UUID, reason string) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case request.StatusPaid:
		if err := request.Authorize(actor, req, request.StatusRejected, request.CapAnyTranslator); err != nil {
			return nil, err
		}
	case request.StatusAssigned, request.StatusInProgress:
		if err := request.Authorize(actor, req, request.StatusRejected, request.CapOwningTranslator); err != nil {
			return nil, err
		}
	default:
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: request.StatusRejected, Reason: "request cannot be declined in its current status"}
	}

	prev := req.Status
	req.Status = request.StatusRejected
	req.Translator = nil
	if err := s.requests.UpdateWithStatusCheckAndClearReminders(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusRejected)
	}

	s.appendHistory(ctx, req, actor, "declined: "+reason)
	s.logger.WithField("request", req.ID).Info("request declined")
	return req, nil
}

// StartWork moves ASSIGNED -> IN_PROGRESS for the owning translator.
func (s *RequestService) StartWork(ctx context.Context, actor request.Actor, id uuid.UUID) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusInProgress, request.CapOwningTranslator); err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusInProgress); err != nil {
		return nil, err
	}

	prev := req.Status
	req.Status = request.StatusInProgress
	if err := s.requests.UpdateWithStatusCheck(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusInProgress)
	}

	s.appendHistory(ctx, req, actor, "work started")
	return req, nil
}

// Complete moves IN_PROGRESS -> COMPLETED. Document requests require the
// translated document; the transition clears the request's reminder jobs
// in the same transaction.
func (s *RequestService) Complete(ctx context.Context, actor request.Actor, id uuid.UUID, translatedDocument string) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusCompleted, request.CapOwningTranslator); err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusCompleted); err != nil {
		return nil, err
	}
	if req.Type == request.TypeDocument && translatedDocument == "" {
		return nil, &request.ValidationError{Field: "translated_document", Reason: "required to complete a document translation"}
	}

	prev := req.Status
	req.Status = request.StatusCompleted
	req.TranslatedDocument = translatedDocument
	completed := s.now()
	req.CompletedDate = &completed
	if err := s.requests.UpdateWithStatusCheckAndClearReminders(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusCompleted)
	}

	s.appendHistory(ctx, req, actor, "translation completed")
	s.dispatch(ctx, Event{Kind: EventCompleted, Request: req})
	return req, nil
}

// Cancel moves any non-terminal request to CANCELLED. Admins may cancel
// anything; clients only their own requests. Pending reminder jobs are
// removed in the same transaction as the status change, so no reminder for
// a cancelled request can fire afterward.
func (s *RequestService) Cancel(ctx context.Context, actor request.Actor, id uuid.UUID, note string) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, request.StatusCancelled, request.CapAdmin, request.CapOwningClient); err != nil {
		return nil, err
	}
	if err := s.checkTransition(req, request.StatusCancelled); err != nil {
		return nil, err
	}

	prev := req.Status
	req.Status = request.StatusCancelled
	if err := s.requests.UpdateWithStatusCheckAndClearReminders(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, request.StatusCancelled)
	}

	s.appendHistory(ctx, req, actor, note)
	s.dispatch(ctx, Event{Kind: EventCancelled, Request: req})
	return req, nil
}

// Reschedule updates deadline and/or start date on a non-terminal request
// and resynchronizes the reminder schedule. Admins may reschedule at any
// point; the owning client only while the request is unpaid.
func (s *RequestService) Reschedule(ctx context.Context, actor request.Actor, id uuid.UUID, newDeadline time.Time, newStartDate *time.Time) (*request.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: req.Status, Reason: "terminal requests cannot be rescheduled"}
	}

	allowed := request.Authorize(actor, req, req.Status, request.CapAdmin) == nil
	if !allowed && (req.Status == request.StatusQuote || req.Status == request.StatusQuoted) {
		allowed = request.Authorize(actor, req, req.Status, request.CapOwningClient) == nil
	}
	if !allowed {
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: req.Status, Reason: "actor may not reschedule this request"}
	}

	if newDeadline.IsZero() {
		return nil, &request.ValidationError{Field: "deadline", Reason: "required"}
	}
	if err := request.ValidateSchedule(req.Type, newStartDate, newDeadline); err != nil {
		return nil, err
	}

	prev := req.Status
	req.Deadline = newDeadline
	if newStartDate != nil {
		req.StartDate = newStartDate
	}
	if err := s.requests.UpdateWithStatusCheck(ctx, req, prev); err != nil {
		return nil, s.conflict(ctx, err, id, prev)
	}

	s.appendHistory(ctx, req, actor, "schedule updated")
	if err := s.reminders.Sync(ctx, req); err != nil {
		s.logger.Errorf("reminder resync failed for request %s: %v", req.ID, err)
	}
	return req, nil
}

// RateTranslator records the owning client's 1..5 rating of the translator
// on a completed request.
func (s *RequestService) RateTranslator(ctx context.Context, actor request.Actor, id uuid.UUID, score int, comment string) (*rating.Rating, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, req.Status, request.CapOwningClient); err != nil {
		return nil, err
	}
	if req.Status != request.StatusCompleted || req.Translator == nil {
		return nil, &request.ConflictingStateError{RequestID: id, Current: req.Status, Requested: req.Status, Reason: "only completed requests can be rated"}
	}
	if score < 1 || score > 5 {
		return nil, &request.ValidationError{Field: "score", Reason: "must be between 1 and 5"}
	}

	rt := &rating.Rating{
		RequestID:    req.ID,
		TranslatorID: req.Translator.ID,
		RatedBy:      actor.ID,
		Score:        score,
		Comment:      comment,
	}
	if err := s.ratings.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to record rating: %w", err)
	}
	return rt, nil
}

// GenerateInvoice renders the billing artifact for a priced request. No
// state-machine dependency: any priced request can be invoiced.
func (s *RequestService) GenerateInvoice(ctx context.Context, actor request.Actor, id uuid.UUID) (*invoice.Invoice, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := request.Authorize(actor, req, req.Status, request.CapAdmin, request.CapOwningClient); err != nil {
		return nil, err
	}
	if !req.Quoted() {
		return nil, &request.ValidationError{Field: "client_price", Reason: "request has not been priced yet"}
	}
	return s.invoices.Generate(req, s.now())
}

// checkTransition verifies lifecycle validity (ignoring actor and field
// preconditions, which the callers enforce).
func (s *RequestService) checkTransition(req *request.Request, to request.Status) error {
	if !request.CanTransition(req.Status, to) {
		return &request.ConflictingStateError{RequestID: req.ID, Current: req.Status, Requested: to}
	}
	return nil
}

// conflict maps a repository CAS failure onto a ConflictingStateError
// carrying the status observed after the race.
func (s *RequestService) conflict(ctx context.Context, err error, id uuid.UUID, requested request.Status) error {
	if err != idb.ErrStatusConflict {
		return fmt.Errorf("failed to persist transition of request %s: %w", id, err)
	}
	current := request.Status("UNKNOWN")
	if fresh, fetchErr := s.requests.GetByID(ctx, id); fetchErr == nil {
		current = fresh.Status
	}
	return &request.ConflictingStateError{RequestID: id, Current: current, Requested: requested, Reason: "request was modified concurrently"}
}

func (s *RequestService) appendHistory(ctx context.Context, req *request.Request, actor request.Actor, note string) {
	ch := &request.StatusChange{
		RequestID: req.ID,
		Status:    req.Status,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Note:      note,
		ChangedAt: s.now(),
	}
	if err := s.requests.AppendStatusChange(ctx, ch); err != nil {
		s.logger.Errorf("could not append status history for request %s: %v", req.ID, err)
	}
}

// dispatch delivers the event and logs aggregate failures. Delivery
// problems are operational noise, not lifecycle outcomes.
func (s *RequestService) dispatch(ctx context.Context, ev Event) {
	if err := s.notifier.Dispatch(ctx, ev); err != nil {
		s.logger.Errorf("notification dispatch for %s on request %s failed: %v", ev.Kind, ev.Request.ID, err)
	}
}
