package models

import "time"

// Phase is the conversation phase of a chat session.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseGreeted
	PhaseOutOfHoursNotified
	PhaseActive
	PhaseAwaitingClaim
	PhaseClaimed
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseGreeted:
		return "greeted"
	case PhaseOutOfHoursNotified:
		return "out_of_hours_notified"
	case PhaseActive:
		return "active"
	case PhaseAwaitingClaim:
		return "awaiting_claim"
	case PhaseClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// TimeSlot is the coarse out-of-hours slot used to vary the notice tone.
type TimeSlot int

const (
	SlotNone TimeSlot = iota
	SlotEarlyEvening
	SlotLateEvening
	SlotOther
)

// SlotStamp identifies one concrete occurrence of a slot. Day is the civil
// date in the office timezone, so the same slot on the next day counts as a
// new slot and re-arms the full notice.
type SlotStamp struct {
	Day  string
	Slot TimeSlot
}

// Zero reports whether no notification has been recorded yet.
func (s SlotStamp) Zero() bool { return s.Day == "" && s.Slot == SlotNone }

// Session is the per-chat conversation state. Mutated only through the
// session store so that all transitions for one chat are serialized.
//
// Invariant: ClaimedBy is non-nil if and only if Phase == PhaseClaimed.
type Session struct {
	Chat           ChatID
	Phase          Phase
	LastActivity   time.Time
	ClaimedBy      *UserID
	ClaimedByName  string
	NotifiedSlot   SlotStamp
	ClaimMessageID int // platform id of the outstanding claim prompt, 0 if none
}

// Touch bumps LastActivity, keeping it monotonically non-decreasing.
func (s *Session) Touch(t time.Time) {
	if t.After(s.LastActivity) {
		s.LastActivity = t
	}
}
