package request

// Status is the lifecycle state of a translation request.
type Status string

const (
	StatusQuote      Status = "QUOTE"
	StatusQuoted     Status = "QUOTED"
	StatusPaid       Status = "PAID"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// validTransitions lists, per source status, the statuses a request may
// move to. CANCELLED is reachable from every non-terminal status and is
// handled separately in CanTransition.
var validTransitions = map[Status][]Status{
	StatusQuote:      {StatusQuoted, StatusRejected},
	StatusQuoted:     {StatusPaid},
	StatusPaid:       {StatusAssigned, StatusRejected},
	StatusAssigned:   {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusRejected},
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another, ignoring actor and field preconditions.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
