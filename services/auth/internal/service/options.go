package service

import "time"

type Option func(*authService)

// WithClock replaces time.Now for code expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *authService) {
		s.now = now
	}
}
