package request

import "github.com/google/uuid"

// Actor is the identity invoking a lifecycle command.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Name  string
	Email string
}

// Capability declares who may invoke a transition: the role the actor must
// hold and an optional ownership predicate evaluated against the request.
// Commands declare their capabilities up front and a single gate checks
// them, independent of any entry-point mechanism.
type Capability struct {
	Role Role
	Owns func(Actor, *Request) bool
}

func (c Capability) permits(a Actor, r *Request) bool {
	if a.Role != c.Role {
		return false
	}
	if c.Owns != nil && !c.Owns(a, r) {
		return false
	}
	return true
}

var (
	// CapAdmin permits any administrator.
	CapAdmin = Capability{Role: RoleAdmin}

	// CapOwningClient permits the client who created the request.
	CapOwningClient = Capability{Role: RoleClient, Owns: func(a Actor, r *Request) bool {
		return a.ID == r.Client.ID
	}}

	// CapAnyTranslator permits any translator; used for accepting or
	// declining a request that is still in the pool.
	CapAnyTranslator = Capability{Role: RoleTranslator}

	// CapOwningTranslator permits only the translator the request is
	// assigned to.
	CapOwningTranslator = Capability{Role: RoleTranslator, Owns: func(a Actor, r *Request) bool {
		return r.Translator != nil && a.ID == r.Translator.ID
	}}
)

// Authorize is the single authorization gate: the actor must satisfy at
// least one of the given capabilities, otherwise the attempted transition
// fails with a ConflictingStateError and nothing is mutated.
func Authorize(a Actor, r *Request, requested Status, caps ...Capability) error {
	for _, c := range caps {
		if c.permits(a, r) {
			return nil
		}
	}
	return &ConflictingStateError{
		RequestID: r.ID,
		Current:   r.Status,
		Requested: requested,
		Reason:    "actor " + string(a.Role) + " is not permitted to perform this transition",
	}
}
