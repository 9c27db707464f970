package service

import "time"

// EventListCacheKey holds the viewer-independent event list.
const EventListCacheKey = "events:list"

type settings struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*settings)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the zone event dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
