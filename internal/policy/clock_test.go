package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvt-care/support-bot/internal/models"
)

func testHours(t *testing.T) *Hours {
	t.Helper()
	h, err := NewHours("Asia/Ho_Chi_Minh", "08:30", "17:00", []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
	})
	require.NoError(t, err)
	return h
}

func at(t *testing.T, h *Hours, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, h.loc)
}

func TestInHours(t *testing.T) {
	h := testHours(t)

	tests := []struct {
		name string
		when time.Time
		want bool
	}{
		{"monday mid-morning", at(t, h, 2024, time.June, 3, 10, 0), true},
		{"opening boundary is inclusive", at(t, h, 2024, time.June, 3, 8, 30), true},
		{"minute before opening", at(t, h, 2024, time.June, 3, 8, 29), false},
		{"closing boundary is exclusive", at(t, h, 2024, time.June, 3, 17, 0), false},
		{"minute before closing", at(t, h, 2024, time.June, 3, 16, 59), true},
		{"saturday is a workday", at(t, h, 2024, time.June, 8, 14, 0), true},
		{"sunday morning", at(t, h, 2024, time.June, 9, 10, 0), false},
		{"sunday during office window", at(t, h, 2024, time.June, 9, 12, 0), false},
		{"weekday deep night", at(t, h, 2024, time.June, 3, 3, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.InHours(tt.when))
		})
	}
}

func TestInHoursIgnoresHostTimezone(t *testing.T) {
	h := testHours(t)

	// 03:00 UTC on a Monday is 10:00 in Ho Chi Minh City.
	utc := time.Date(2024, time.June, 3, 3, 0, 0, 0, time.UTC)
	assert.True(t, h.InHours(utc))
}

func TestSlot(t *testing.T) {
	h := testHours(t)

	tests := []struct {
		name string
		when time.Time
		want models.TimeSlot
	}{
		{"early evening start", at(t, h, 2024, time.June, 3, 17, 0), models.SlotEarlyEvening},
		{"late early evening", at(t, h, 2024, time.June, 3, 18, 59), models.SlotEarlyEvening},
		{"late evening start", at(t, h, 2024, time.June, 3, 19, 0), models.SlotLateEvening},
		{"before midnight", at(t, h, 2024, time.June, 3, 23, 59), models.SlotLateEvening},
		{"deep night", at(t, h, 2024, time.June, 4, 2, 0), models.SlotOther},
		{"before opening", at(t, h, 2024, time.June, 4, 8, 0), models.SlotOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Slot(tt.when))
		})
	}
}

func TestSlotFollowsConfiguredClose(t *testing.T) {
	h, err := NewHours("Asia/Ho_Chi_Minh", "08:30", "16:00", []time.Weekday{time.Monday})
	require.NoError(t, err)

	assert.Equal(t, models.SlotEarlyEvening, h.Slot(at(t, h, 2024, time.June, 3, 16, 30)))
	assert.Equal(t, models.SlotEarlyEvening, h.Slot(at(t, h, 2024, time.June, 3, 17, 59)))
	assert.Equal(t, models.SlotLateEvening, h.Slot(at(t, h, 2024, time.June, 3, 18, 0)))
	assert.Equal(t, models.SlotOther, h.Slot(at(t, h, 2024, time.June, 3, 15, 30)))
}

func TestSlotStampChangesAcrossDays(t *testing.T) {
	h := testHours(t)

	tonight := h.SlotStamp(at(t, h, 2024, time.June, 3, 20, 0))
	tomorrow := h.SlotStamp(at(t, h, 2024, time.June, 4, 20, 0))

	assert.Equal(t, tonight.Slot, tomorrow.Slot)
	assert.NotEqual(t, tonight, tomorrow, "same slot on a new day must be a new stamp")
}

func TestNewHoursRejectsBadConfig(t *testing.T) {
	_, err := NewHours("Not/AZone", "08:30", "17:00", nil)
	assert.Error(t, err)

	_, err = NewHours("Asia/Ho_Chi_Minh", "8h30", "17:00", nil)
	assert.Error(t, err)
}
