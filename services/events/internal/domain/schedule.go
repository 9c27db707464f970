package domain

import (
	"strconv"
	"strings"
	"time"
)

type TemporalStatus string

const (
	StatusUpcoming TemporalStatus = "Upcoming"
	StatusRunning  TemporalStatus = "Running"
	StatusPast     TemporalStatus = "Past"
)

// Schedule is the calendar part of an event. Dates are "YYYY-MM-DD" and
// times "HH:MM", interpreted as wall-clock values in a single location.
type Schedule struct {
	StartDate string
	EndDate   *string
	StartTime *string
	EndTime   *string
}

// StartInstant is the start date at the start time, or midnight.
func (s Schedule) StartInstant(loc *time.Location) time.Time {
	h, m, ok := parseClock(s.StartTime)
	if !ok {
		h, m = 0, 0
	}
	return atClock(parseDate(s.StartDate, loc), h, m, 0)
}

// EndInstant is the end date (or start date) at the end time, or at
// 23:59:59.999 when no end time is set.
func (s Schedule) EndInstant(loc *time.Location) time.Time {
	day := s.StartDate
	if s.EndDate != nil && *s.EndDate != "" {
		day = *s.EndDate
	}
	base := parseDate(day, loc)
	if h, m, ok := parseClock(s.EndTime); ok {
		return atClock(base, h, m, 0)
	}
	return atClock(base, 23, 59, 59).Add(999 * time.Millisecond)
}

func (s Schedule) IsPast(now time.Time, loc *time.Location) bool {
	return now.After(s.EndInstant(loc))
}

func (s Schedule) IsRunning(now time.Time, loc *time.Location) bool {
	return !now.Before(s.StartInstant(loc)) && !now.After(s.EndInstant(loc))
}

// Status evaluates Running first, then Past, else Upcoming.
func (s Schedule) Status(now time.Time, loc *time.Location) TemporalStatus {
	switch {
	case s.IsRunning(now, loc):
		return StatusRunning
	case s.IsPast(now, loc):
		return StatusPast
	default:
		return StatusUpcoming
	}
}

func parseDate(s string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseClock(s *string) (int, int, bool) {
	if s == nil || *s == "" {
		return 0, 0, false
	}
	hh, mm, found := strings.Cut(*s, ":")
	if !found {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func atClock(day time.Time, h, m, sec int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, 0, day.Location())
}
