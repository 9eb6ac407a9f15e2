// Package schedule recommends when to publish. Short-form gardening
// content peaks in the early morning and early evening, with weekend
// mornings strongest, so the advisor is a plain lookup table rather
// than an analytics integration.
package schedule

import (
	"fmt"
	"os"
	"time"
)

// Slot is one recommended posting time, in the channel's timezone.
type Slot struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"label"`
}

// Advice is the full recommendation for a point in time.
type Advice struct {
	Day        time.Weekday `json:"-"`
	DayName    string       `json:"day"`
	Slots      []Slot       `json:"slots"`
	NextSlot   time.Time    `json:"next_slot"`
	Suggestion string       `json:"content_suggestion"`
}

var weekdaySlots = map[time.Weekday][]Slot{
	time.Monday:    {{7, 0, "commute scroll"}, {17, 30, "after work"}},
	time.Tuesday:   {{7, 0, "commute scroll"}, {18, 0, "evening peak"}},
	time.Wednesday: {{12, 0, "lunch break"}, {18, 0, "evening peak"}},
	time.Thursday:  {{7, 0, "commute scroll"}, {19, 0, "evening peak"}},
	time.Friday:    {{12, 0, "lunch break"}, {17, 0, "weekend mode"}},
	time.Saturday:  {{8, 30, "weekend morning"}, {11, 0, "garden hours"}, {16, 0, "afternoon"}},
	time.Sunday:    {{8, 30, "weekend morning"}, {10, 30, "garden hours"}, {19, 30, "week prep"}},
}

var contentSuggestions = map[time.Weekday]string{
	time.Monday:    "quick win: one tip viewers can do on a lunch break",
	time.Tuesday:   "myth-busting: a common gardening mistake",
	time.Wednesday: "before/after transformation or time-lapse",
	time.Thursday:  "problem fix: diagnose a sick plant",
	time.Friday:    "weekend project: something that takes an hour",
	time.Saturday:  "hands-in-the-dirt tutorial, viewers have time today",
	time.Sunday:    "week-ahead prep: watering and feeding schedule",
}

// SlotsFor returns the recommended slots for a weekday.
func SlotsFor(day time.Weekday) []Slot {
	return weekdaySlots[day]
}

// Suggestion returns the content angle that performs best on the
// given weekday.
func Suggestion(day time.Weekday) string {
	return contentSuggestions[day]
}

// NextSlot returns the first recommended slot strictly after now,
// rolling into following days as needed.
func NextSlot(now time.Time) time.Time {
	for offset := 0; offset < 8; offset++ {
		day := now.AddDate(0, 0, offset)
		for _, s := range weekdaySlots[day.Weekday()] {
			candidate := time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, now.Location())
			if candidate.After(now) {
				return candidate
			}
		}
	}
	// Unreachable: every weekday has slots.
	return now.Add(24 * time.Hour)
}

// postWindow is how far from a recommended slot an upload still
// counts as on schedule.
const postWindow = 45 * time.Minute

// ShouldPost reports whether now falls within the posting window of
// any of today's slots. Setting IGNORE_SCHEDULE=true bypasses the
// check entirely, which manual runs use.
func ShouldPost(now time.Time) bool {
	if os.Getenv("IGNORE_SCHEDULE") == "true" {
		return true
	}
	for _, s := range weekdaySlots[now.Weekday()] {
		slot := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
		diff := now.Sub(slot)
		if diff < 0 {
			diff = -diff
		}
		if diff <= postWindow {
			return true
		}
	}
	return false
}

// Advise bundles the lookup for one point in time.
func Advise(now time.Time) Advice {
	day := now.Weekday()
	return Advice{
		Day:        day,
		DayName:    day.String(),
		Slots:      SlotsFor(day),
		NextSlot:   NextSlot(now),
		Suggestion: Suggestion(day),
	}
}

// Format renders advice for the pipeline log.
func (a Advice) Format() string {
	return fmt.Sprintf("%s: next slot %s (%s)", a.DayName, a.NextSlot.Format("Mon 15:04"), a.Suggestion)
}
