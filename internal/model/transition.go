package model

// Status is the single source of truth for which lifecycle actions are
// currently valid on a contribution. Transitions are only ever made through
// CanTransition; nothing in the engine compares raw status strings.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAutomatedPass         Status = "automated_pass"
	StatusAutomatedNeedsChanges Status = "automated_needs_changes"
	StatusAutomatedReject       Status = "automated_reject"
	StatusModeratorNeedsChanges Status = "moderator_needs_changes"
	StatusPublished             Status = "published"
	StatusRejected              Status = "rejected"
	StatusWithdrawn             Status = "withdrawn"
)

// AllStatuses lists every lifecycle state. Kept in transition order so the
// exhaustiveness test can walk the full table.
var AllStatuses = []Status{
	StatusPending,
	StatusAutomatedPass,
	StatusAutomatedNeedsChanges,
	StatusAutomatedReject,
	StatusModeratorNeedsChanges,
	StatusPublished,
	StatusRejected,
	StatusWithdrawn,
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// Reviewable reports whether an automated review result may still be applied.
// A review only ever lands on a contribution that is still pending; anything
// later means the owner revised or a moderator acted while the review was in
// flight, and the late result must be dropped.
func (s Status) Reviewable() bool {
	return s == StatusPending
}

// Editable reports whether the owner may replace the payload via a revision.
func (s Status) Editable() bool {
	switch s {
	case StatusPending, StatusAutomatedNeedsChanges, StatusModeratorNeedsChanges:
		return true
	default:
		return false
	}
}

// Moderatable reports whether a moderator may act on s. Approve and reject
// are valid from every non-terminal state; request-changes additionally
// excludes moderator_needs_changes since it would be a self-loop with no new
// information.
func (s Status) Moderatable() bool {
	return !s.Terminal()
}

// transitions is the closed lifecycle graph. A transition absent from this
// table is illegal regardless of actor.
var transitions = map[Status][]Status{
	StatusPending: {
		StatusAutomatedPass,
		StatusAutomatedNeedsChanges,
		StatusAutomatedReject,
		StatusModeratorNeedsChanges,
		StatusPublished,
		StatusRejected,
		StatusWithdrawn,
		StatusPending, // revision resets review state in place
	},
	StatusAutomatedPass: {
		StatusModeratorNeedsChanges,
		StatusPublished,
		StatusRejected,
		StatusWithdrawn,
	},
	StatusAutomatedNeedsChanges: {
		StatusPending, // owner revises
		StatusModeratorNeedsChanges,
		StatusPublished,
		StatusRejected,
		StatusWithdrawn,
	},
	StatusAutomatedReject: {
		StatusModeratorNeedsChanges,
		StatusPublished,
		StatusRejected,
		StatusWithdrawn,
	},
	StatusModeratorNeedsChanges: {
		StatusPending, // owner revises
		StatusRejected,
		StatusWithdrawn,
	},
	StatusPublished: nil,
	StatusRejected:  nil,
	StatusWithdrawn: nil,
}

// CanTransition reports whether the lifecycle graph defines an edge from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReviewDecision is the reviewer's three-way verdict.
type ReviewDecision string

const (
	ReviewApprove      ReviewDecision = "approve"
	ReviewNeedsChanges ReviewDecision = "needs_changes"
	ReviewReject       ReviewDecision = "reject"
)

// StatusFor maps the reviewer verdict onto the automated_* states.
func (d ReviewDecision) StatusFor() (Status, bool) {
	switch d {
	case ReviewApprove:
		return StatusAutomatedPass, true
	case ReviewNeedsChanges:
		return StatusAutomatedNeedsChanges, true
	case ReviewReject:
		return StatusAutomatedReject, true
	default:
		return "", false
	}
}
