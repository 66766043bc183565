package incident

import "github.com/rescuegrid/firedispatch/core/model"

// statusRank orders the response flow. Transitions move forward only;
// skipping intermediate states is allowed because admin consoles may record
// phases after the fact.
var statusRank = map[model.IncidentStatus]int{
	model.StatusPendingDispatch:  0,
	model.StatusDispatchOnTheWay: 1,
	model.StatusOngoingResponse:  2,
	model.StatusFireUnderControl: 3,
	model.StatusResolved:         4,
}

// ValidStatus reports whether s is a known incident status.
func ValidStatus(s model.IncidentStatus) bool {
	if s == model.StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func Terminal(s model.IncidentStatus) bool {
	return s == model.StatusResolved || s == model.StatusCancelled
}

// CanTransition reports whether an incident may move from one status to
// another. Cancellation is reachable from any non-terminal state; otherwise
// only forward movement along the response flow is allowed.
func CanTransition(from, to model.IncidentStatus) bool {
	if !ValidStatus(from) || !ValidStatus(to) || from == to {
		return false
	}
	if Terminal(from) {
		return false
	}
	if to == model.StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}
