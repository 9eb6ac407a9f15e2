package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryWeekdayHasSlotsAndSuggestion(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.NotEmpty(t, SlotsFor(d), "day %s", d)
		assert.NotEmpty(t, Suggestion(d), "day %s", d)
	}
}

func TestNextSlotSameDay(t *testing.T) {
	// Monday 06:00 → Monday 07:00 slot.
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, now.Weekday())

	next := NextSlot(now)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 7, next.Hour())
	assert.True(t, next.After(now))
}

func TestNextSlotRollsToNextDay(t *testing.T) {
	// Monday 23:00 → Tuesday 07:00.
	now := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	next := NextSlot(now)
	assert.Equal(t, time.Tuesday, next.Weekday())
	assert.Equal(t, 7, next.Hour())
}

func TestNextSlotIsStrictlyAfterNow(t *testing.T) {
	// Exactly on a slot boundary must advance, not return itself.
	now := time.Date(2026, 8, 24, 7, 0, 0, 0, time.UTC)
	next := NextSlot(now)
	assert.True(t, next.After(now))
	assert.Equal(t, 17, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestShouldPostWithinWindow(t *testing.T) {
	t.Setenv("IGNORE_SCHEDULE", "")

	// Monday 07:30 is 30 min past the 07:00 slot — inside the window.
	assert.True(t, ShouldPost(time.Date(2026, 8, 24, 7, 30, 0, 0, time.UTC)))
	// Monday 10:00 is between slots — outside.
	assert.False(t, ShouldPost(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)))
	// 16:50 is 40 min before the 17:30 slot — inside.
	assert.True(t, ShouldPost(time.Date(2026, 8, 24, 16, 50, 0, 0, time.UTC)))
}

func TestShouldPostIgnoreScheduleBypass(t *testing.T) {
	t.Setenv("IGNORE_SCHEDULE", "true")
	assert.True(t, ShouldPost(time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)))
}

func TestAdvise(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC) // Saturday
	a := Advise(now)
	assert.Equal(t, "Saturday", a.DayName)
	assert.Len(t, a.Slots, 3)
	assert.Equal(t, 11, a.NextSlot.Hour())
	assert.Contains(t, a.Format(), "Saturday")
}
