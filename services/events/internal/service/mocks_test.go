package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

// store backs both repository mocks so counts and cascades stay consistent.
type store struct {
	mu     sync.Mutex
	seq    int
	clock  time.Time
	events map[string]*domain.Event
	regs   map[string]*domain.Registration
	lists  int
}

func newStore() *store {
	return &store{
		clock:  time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		events: map[string]*domain.Event{},
		regs:   map[string]*domain.Registration{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// tick advances the stored registration clock so ordering by time is stable.
func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *store) activeCount(eventID string) int {
	n := 0
	for _, r := range s.regs {
		if r.EventID == eventID && r.IsActive() {
			n++
		}
	}
	return n
}

func (s *store) snapshot(e *domain.Event) *domain.Event {
	cp := *e
	cp.CustomFields = append([]domain.CustomField{}, e.CustomFields...)
	cp.RegistrationCount = s.activeCount(e.ID)
	return &cp
}

func copyReg(r *domain.Registration) *domain.Registration {
	cp := *r
	cp.Responses = append([]domain.FieldResponse{}, r.Responses...)
	return &cp
}

type eventRepo struct{ *store }

func (r eventRepo) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	cp.ID = r.nextID("evt")
	cp.CustomFields = nil
	for _, f := range e.CustomFields {
		f.ID = r.nextID("fld")
		f.EventID = cp.ID
		cp.CustomFields = append(cp.CustomFields, f)
	}
	r.events[cp.ID] = &cp
	return r.snapshot(&cp), nil
}

func (r eventRepo) Update(ctx context.Context, e *domain.Event, plan domain.FieldPlan) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.events[e.ID]
	if !ok {
		return nil, nil
	}
	deleted := map[string]bool{}
	for _, id := range plan.Delete {
		deleted[id] = true
	}
	updates := map[string]domain.CustomField{}
	for _, f := range plan.Update {
		updates[f.ID] = f
	}
	var fields []domain.CustomField
	for _, f := range cur.CustomFields {
		if deleted[f.ID] {
			continue
		}
		if u, ok := updates[f.ID]; ok {
			u.EventID = e.ID
			f = u
		}
		fields = append(fields, f)
	}
	for _, f := range plan.Create {
		f.ID = r.nextID("fld")
		f.EventID = e.ID
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })

	cp := *e
	cp.CreatedByID = cur.CreatedByID
	cp.CustomFields = fields
	r.events[e.ID] = &cp
	return r.snapshot(&cp), nil
}

func (r eventRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	for rid, reg := range r.regs {
		if reg.EventID == id {
			delete(r.regs, rid)
		}
	}
	return true, nil
}

func (r eventRepo) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return r.snapshot(e), nil
}

func (r eventRepo) List(ctx context.Context) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	out := []domain.Event{}
	for _, e := range r.events {
		out = append(out, *r.snapshot(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (r eventRepo) ViewerStatuses(ctx context.Context, userID string) (map[string]domain.RegistrationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]domain.RegistrationStatus{}
	for _, reg := range r.regs {
		if reg.UserID != nil && *reg.UserID == userID && reg.IsActive() {
			out[reg.EventID] = reg.Status
		}
	}
	return out, nil
}

func (r eventRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), nil
}

type regRepo struct{ *store }

func (r regRepo) Create(ctx context.Context, eventID string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &domain.Registration{
		ID:           r.nextID("reg"),
		EventID:      eventID,
		UserID:       a.UserID,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		Phone:        a.Phone,
		Status:       domain.RegistrationConfirmed,
		RegisteredAt: r.tick(),
		Responses:    r.stamp(responses),
	}
	r.regs[reg.ID] = reg
	return copyReg(reg), nil
}

func (r regRepo) Reactivate(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, nil
	}
	reg.FirstName, reg.LastName, reg.Email, reg.Phone = a.FirstName, a.LastName, a.Email, a.Phone
	reg.Status = domain.RegistrationConfirmed
	reg.RegisteredAt = r.tick()
	reg.Responses = r.stamp(responses)
	return copyReg(reg), nil
}

func (r regRepo) Update(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, nil
	}
	reg.FirstName, reg.LastName, reg.Email, reg.Phone = a.FirstName, a.LastName, a.Email, a.Phone
	if responses != nil {
		reg.Responses = r.stamp(responses)
	}
	return copyReg(reg), nil
}

func (r regRepo) SetStatus(ctx context.Context, eventID, id string, status domain.RegistrationStatus) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.EventID != eventID {
		return nil, nil
	}
	reg.Status = status
	return copyReg(reg), nil
}

func (r regRepo) FindByID(ctx context.Context, eventID, id string) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.EventID != eventID {
		return nil, nil
	}
	return copyReg(reg), nil
}

func (r regRepo) FindLatestForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	return r.latest(eventID, userID, false), nil
}

func (r regRepo) FindActiveForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	return r.latest(eventID, userID, true), nil
}

func (r regRepo) latest(eventID, userID string, activeOnly bool) *domain.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Registration
	for _, reg := range r.regs {
		if reg.EventID != eventID || reg.UserID == nil || *reg.UserID != userID {
			continue
		}
		if activeOnly && !reg.IsActive() {
			continue
		}
		if best == nil || reg.RegisteredAt.After(best.RegisteredAt) {
			best = reg
		}
	}
	if best == nil {
		return nil
	}
	return copyReg(best)
}

func (r regRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Registration{}
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, *copyReg(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, nil
}

func (r regRepo) stamp(responses []domain.FieldResponse) []domain.FieldResponse {
	out := make([]domain.FieldResponse, 0, len(responses))
	for _, fr := range responses {
		fr.ID = r.nextID("resp")
		out = append(out, fr)
	}
	return out
}

type published struct {
	subject string
	data    any
}

type fakeBus struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (b *fakeBus) Publish(ctx context.Context, subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, published{subject: subject, data: data})
	return b.err
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) subjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sent))
	for i, p := range b.sent {
		out[i] = p.subject
	}
	return out
}
