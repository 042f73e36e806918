// Package policy implements the office-hours clock: a pure classification of
// wall-clock time into in-hours/out-of-hours and the coarse evening slots
// used to vary the out-of-hours notice.
package policy

import (
	"fmt"
	"time"

	"github.com/cvt-care/support-bot/internal/models"
)

// Hours is the business-hours policy, evaluated in a single fixed civil
// timezone regardless of the host timezone.
type Hours struct {
	loc       *time.Location
	openMins  int // minutes from midnight, inclusive
	closeMins int // minutes from midnight, exclusive
	workdays  map[time.Weekday]bool
}

// NewHours builds the policy. open and closing are "HH:MM" strings in zone.
func NewHours(zone, open, closing string, workdays []time.Weekday) (*Hours, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", zone, err)
	}
	openMins, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("parsing open time: %w", err)
	}
	closeMins, err := parseClock(closing)
	if err != nil {
		return nil, fmt.Errorf("parsing close time: %w", err)
	}
	days := make(map[time.Weekday]bool, len(workdays))
	for _, d := range workdays {
		days[d] = true
	}
	return &Hours{loc: loc, openMins: openMins, closeMins: closeMins, workdays: days}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// InHours reports whether t falls inside the office window. The opening
// boundary is inclusive, the closing boundary exclusive: at exactly 08:30 the
// office is open, at exactly 17:00 it is closed.
func (h *Hours) InHours(t time.Time) bool {
	local := t.In(h.loc)
	if !h.workdays[local.Weekday()] {
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= h.openMins && mins < h.closeMins
}

// Slot classifies t into the out-of-hours tone slots, anchored to the
// configured closing time: early evening covers the two hours after closing,
// late evening the rest of the night until midnight. Everything else,
// including the pre-opening window, is SlotOther and messaged like late
// evening.
func (h *Hours) Slot(t time.Time) models.TimeSlot {
	local := t.In(h.loc)
	mins := local.Hour()*60 + local.Minute()
	earlyEnd := h.closeMins + 2*60
	switch {
	case mins >= h.closeMins && mins < earlyEnd:
		return models.SlotEarlyEvening
	case mins >= earlyEnd:
		return models.SlotLateEvening
	default:
		return models.SlotOther
	}
}

// SlotStamp identifies the concrete slot occurrence containing t. The civil
// date is part of the stamp so a notice sent yesterday evening does not
// suppress tonight's.
func (h *Hours) SlotStamp(t time.Time) models.SlotStamp {
	local := t.In(h.loc)
	return models.SlotStamp{
		Day:  local.Format("2006-01-02"),
		Slot: h.Slot(t),
	}
}
