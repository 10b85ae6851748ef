package domain

import (
	"fmt"
	"time"
)

// Slot is the booked time of a product item: a calendar date, an HH:MM start
// and a duration in minutes.
type Slot struct {
	Date      time.Time
	StartTime string
	Duration  int
}

// Complete reports whether every field needed to build a window is present.
func (s Slot) Complete() bool {
	return !s.Date.IsZero() && s.StartTime != "" && s.Duration > 0
}

// Window returns the half-open interval [start, end) covered by the slot.
// The date's calendar day is combined with the start time in UTC.
func (s Slot) Window() (start, end time.Time, err error) {
	if !s.Complete() {
		return time.Time{}, time.Time{}, fmt.Errorf("slot is incomplete")
	}
	var hh, mm int
	if _, err := fmt.Sscanf(s.StartTime, "%d:%d", &hh, &mm); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time %q", s.StartTime)
	}
	d := s.Date.UTC()
	start = time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
	end = start.Add(time.Duration(s.Duration) * time.Minute)
	return start, end, nil
}
