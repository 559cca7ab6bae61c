package model

// transitions lists the admin-driven status changes. Organizer edits reset any
// status to pending and are not part of this table.
var transitions = map[EventStatus][]EventStatus{
	StatusApproved: {StatusPending, StatusApproved},
	StatusRejected: {StatusPending, StatusApproved},
}

// SourcesFor returns the statuses an event may be in for an admin to move it to target.
func SourcesFor(target EventStatus) []EventStatus {
	return append([]EventStatus(nil), transitions[target]...)
}

func CanTransition(from, to EventStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
