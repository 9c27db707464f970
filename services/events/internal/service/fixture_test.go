package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/cache"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
	"github.com/diagnosis/eventdesk/services/events/internal/service"
)

var (
	manager = &auth.Claims{UserID: "mgr-1", Email: "boss@example.com", Role: auth.RoleManager}
	userA   = &auth.Claims{UserID: "user-a", Email: "a@example.com", Role: auth.RoleRegular}
	userB   = &auth.Claims{UserID: "user-b", Email: "b@example.com", Role: auth.RoleRegular}
)

type fixture struct {
	store  *store
	bus    *fakeBus
	cache  cache.Cache
	now    time.Time
	events service.EventService
	regs   service.RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newStore(),
		bus:   &fakeBus{},
		cache: cache.NewMemory(),
		now:   time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	opts := []service.Option{
		service.WithClock(func() time.Time { return f.now }),
		service.WithLocation(time.UTC),
	}
	events, regs := eventRepo{f.store}, regRepo{f.store}
	f.events = service.NewEventService(events, regs, f.cache, time.Minute, f.bus, opts...)
	f.regs = service.NewRegistrationService(events, regs, f.cache, f.bus, opts...)
	return f
}

func (f *fixture) createEvent(t *testing.T, in domain.EventInput) *domain.Event {
	t.Helper()
	e, err := f.events.CreateEvent(context.Background(), &in, manager)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func signup(first string) *domain.RegisterInput {
	return &domain.RegisterInput{Attendee: domain.Attendee{
		FirstName: first,
		LastName:  "Tester",
		Email:     strings.ToLower(first) + "@example.com",
	}}
}

func capacity(n int) *int { return &n }

func str(s string) *string { return &s }

func fieldID(t *testing.T, e *domain.Event, label string) string {
	t.Helper()
	for _, f := range e.CustomFields {
		if f.Label == label {
			return f.ID
		}
	}
	t.Fatalf("no field %q on event", label)
	return ""
}
