package request

import "time"

// ValidateNew checks the type-conditional field requirements for a request
// being submitted as a quote. It returns a ValidationError describing the
// first offending field.
func ValidateNew(r *Request, now time.Time) error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if r.SourceLanguage == "" || r.TargetLanguage == "" {
		return &ValidationError{Field: "languages", Reason: "source and target languages are required"}
	}
	if r.Deadline.IsZero() {
		return &ValidationError{Field: "deadline", Reason: "required"}
	}
	if !r.Deadline.After(now) {
		return &ValidationError{Field: "deadline", Reason: "must be in the future"}
	}

	switch r.Type {
	case TypeDocument:
		if r.OriginalDocument == "" {
			return &ValidationError{Field: "original_document", Reason: "required for document translations"}
		}
	case TypeLiveOnSite:
		if r.Address == "" {
			return &ValidationError{Field: "address", Reason: "required for on-site interpretations"}
		}
	case TypeRemotePhone, TypeRemoteMeeting:
		// Meeting link and phone number are populated post-creation.
	default:
		return &ValidationError{Field: "translation_type", Reason: "unknown type " + string(r.Type)}
	}

	if r.Type.IsLive() {
		if r.DurationMinutes <= 0 {
			return &ValidationError{Field: "duration_minutes", Reason: "required for interpretations"}
		}
		if err := ValidateSchedule(r.Type, r.StartDate, r.Deadline); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchedule enforces start_date < deadline when both are set for
// live types. Document requests carry no start date constraint.
func ValidateSchedule(t Type, startDate *time.Time, deadline time.Time) error {
	if !t.IsLive() || startDate == nil {
		return nil
	}
	if !startDate.Before(deadline) {
		return &ValidationError{Field: "start_date", Reason: "must precede the deadline"}
	}
	return nil
}
