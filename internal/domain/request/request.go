package request

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a translation request. It is immutable after creation.
type Type string

const (
	TypeDocument      Type = "DOCUMENT"
	TypeLiveOnSite    Type = "LIVE_ON_SITE"
	TypeRemotePhone   Type = "REMOTE_PHONE"
	TypeRemoteMeeting Type = "REMOTE_MEETING"
)

// IsLive reports whether the request is a live interpretation (anything
// that happens at a scheduled start time rather than against a document
// deadline).
func (t Type) IsLive() bool {
	return t == TypeLiveOnSite || t == TypeRemotePhone || t == TypeRemoteMeeting
}

// Role identifies the kind of actor invoking a lifecycle command.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleClient     Role = "CLIENT"
	RoleTranslator Role = "TRANSLATOR"
)

// Party is a denormalized snapshot of a user taking part in a request.
// Keeping name and email on the request lets the notification dispatcher
// address recipients without reaching into a user store.
type Party struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Request is the central entity: a client's translation or interpretation
// order moving through the quote/payment/assignment lifecycle.
type Request struct {
	ID             uuid.UUID
	Title          string
	Description    string
	SourceLanguage string
	TargetLanguage string
	Type           Type
	Status         Status

	Deadline      time.Time
	StartDate     *time.Time
	CompletedDate *time.Time

	OriginalDocument   string
	TranslatedDocument string
	Address            string
	DurationMinutes    int
	MeetingLink        string
	PhoneNumber        string

	// Prices are integer cents; zero means not yet quoted.
	ClientPriceCents     int64
	TranslatorPriceCents int64
	IsPaid               bool
	PaymentRef           string

	Client     Party
	Translator *Party
	AssignedBy *Party

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assigned reports whether a translator currently holds the request.
func (r *Request) Assigned() bool {
	return r.Translator != nil
}

// Quoted reports whether the admin has priced the request.
func (r *Request) Quoted() bool {
	return r.ClientPriceCents > 0 && r.TranslatorPriceCents > 0
}

// StatusChange is one entry in a request's append-only status history.
type StatusChange struct {
	ID        int64
	RequestID uuid.UUID
	Status    Status
	ActorID   uuid.UUID
	ActorRole Role
	Note      string
	ChangedAt time.Time
}
