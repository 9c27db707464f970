package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/cache"
	"github.com/diagnosis/eventdesk/pkg/events"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
	"github.com/diagnosis/eventdesk/services/events/internal/repository"
)

type RegistrationService interface {
	Register(ctx context.Context, eventID string, in *domain.RegisterInput, actor *auth.Claims) (*domain.Registration, error)
	Unregister(ctx context.Context, eventID, userID string, actor *auth.Claims) error
	GetRegistration(ctx context.Context, eventID, userID string, actor *auth.Claims) (*domain.RegistrationState, error)
	UpdateRegistration(ctx context.Context, eventID, userID string, patch *domain.RegistrationPatch, actor *auth.Claims) (*domain.Registration, error)
	SetRegistrationStatus(ctx context.Context, eventID, registrationID, status string, actor *auth.Claims) (*domain.Registration, error)
	ListRegistrations(ctx context.Context, eventID string, actor *auth.Claims) ([]domain.Registration, error)
}

type registrationService struct {
	eventRepo repository.EventRepository
	regRepo   repository.RegistrationRepository
	cache     cache.Cache
	eventBus  events.Publisher
	settings
}

func NewRegistrationService(
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	store cache.Cache,
	eventBus events.Publisher,
	opts ...Option,
) RegistrationService {
	return &registrationService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		cache:     store,
		eventBus:  eventBus,
		settings:  newSettings(opts),
	}
}

// Register confirms a seat for the attendee. Checks run in a fixed order:
// attendee details, event existence, active flag, end of event, capacity,
// then custom field answers. A cancelled registration by the same user is
// reactivated in place.
func (s *registrationService) Register(ctx context.Context, eventID string, in *domain.RegisterInput, actor *auth.Claims) (*domain.Registration, error) {
	attendee := in.Attendee
	attendee.Normalize()
	attendee.UserID = s.registrantID(actor, attendee.UserID)
	if err := attendee.Validate(ctx); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	switch {
	case event == nil:
		return nil, domain.ErrEventNotFound
	case !event.IsActive:
		return nil, domain.ErrEventInactive
	case event.Schedule().IsPast(s.now(), s.loc):
		return nil, domain.ErrEventPast
	case event.IsFull():
		return nil, domain.ErrEventFull
	}

	if err := domain.ValidateResponses(event.CustomFields, in.Responses); err != nil {
		return nil, err
	}
	responses := domain.EncodeResponses(event.CustomFields, in.Responses)

	var (
		reg         *domain.Registration
		reactivated bool
	)
	if attendee.UserID != nil {
		latest, err := s.regRepo.FindLatestForUser(ctx, eventID, *attendee.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check registration: %w", err)
		}
		if latest != nil && latest.IsActive() {
			return nil, domain.ErrAlreadyRegistered
		}
		if latest != nil {
			reg, err = s.regRepo.Reactivate(ctx, latest.ID, attendee, responses)
			if err != nil {
				return nil, fmt.Errorf("failed to reactivate registration: %w", err)
			}
			reactivated = true
		}
	}
	if reg == nil {
		reg, err = s.regRepo.Create(ctx, eventID, attendee, responses)
		if err != nil {
			return nil, fmt.Errorf("failed to create registration: %w", err)
		}
	}

	reg.Responses = domain.Describe(event.CustomFields, reg.Responses)
	s.invalidateList(ctx)
	s.publish(ctx, events.RegistrationConfirmed, event, reg, reactivated)
	return reg, nil
}

// registrantID decides whose registration this is: the caller's, unless a
// manager registers someone else explicitly.
func (s *registrationService) registrantID(actor *auth.Claims, requested *string) *string {
	if actor == nil {
		return nil
	}
	if requested != nil && actor.Role == auth.RoleManager {
		return requested
	}
	id := actor.UserID
	return &id
}

func (s *registrationService) Unregister(ctx context.Context, eventID, userID string, actor *auth.Claims) error {
	if err := auth.Authorize(actor, auth.ActionRegistrationCancel, userID); err != nil {
		return err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return domain.ErrEventNotFound
	}
	if event.Schedule().IsPast(s.now(), s.loc) {
		return domain.ErrEventPast
	}

	active, err := s.regRepo.FindActiveForUser(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to get registration: %w", err)
	}
	if active == nil {
		return domain.ErrRegistrationNotFound
	}

	cancelled, err := s.regRepo.SetStatus(ctx, eventID, active.ID, domain.RegistrationCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	if cancelled == nil {
		return domain.ErrRegistrationNotFound
	}

	s.invalidateList(ctx)
	s.publish(ctx, events.RegistrationCancelled, event, cancelled, false)
	return nil
}

func (s *registrationService) GetRegistration(ctx context.Context, eventID, userID string, actor *auth.Claims) (*domain.RegistrationState, error) {
	if err := auth.Authorize(actor, auth.ActionRegistrationRead, userID); err != nil {
		return nil, err
	}

	var (
		event *domain.Event
		reg   *domain.Registration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.eventRepo.FindByID(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		reg, err = s.regRepo.FindActiveForUser(gctx, eventID, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	if reg == nil {
		return &domain.RegistrationState{IsRegistered: false}, nil
	}
	var fields []domain.CustomField
	if event != nil {
		fields = event.CustomFields
	}
	reg.Responses = domain.Describe(fields, reg.Responses)
	return &domain.RegistrationState{IsRegistered: true, Registration: reg}, nil
}

// UpdateRegistration edits an active registration until the event ends.
// Supplied answers replace the stored ones wholesale.
func (s *registrationService) UpdateRegistration(ctx context.Context, eventID, userID string, patch *domain.RegistrationPatch, actor *auth.Claims) (*domain.Registration, error) {
	if err := auth.Authorize(actor, auth.ActionRegistrationUpdate, userID); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if event.Schedule().IsPast(s.now(), s.loc) {
		return nil, domain.ErrEventPast
	}

	existing, err := s.regRepo.FindActiveForUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrRegistrationNotFound
	}

	attendee := patch.Apply(existing)
	if err := attendee.Validate(ctx); err != nil {
		return nil, err
	}

	var responses []domain.FieldResponse
	if patch.Responses != nil {
		if err := domain.ValidateResponses(event.CustomFields, patch.Responses); err != nil {
			return nil, err
		}
		responses = domain.EncodeResponses(event.CustomFields, patch.Responses)
	}

	updated, err := s.regRepo.Update(ctx, existing.ID, attendee, responses)
	if err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrRegistrationNotFound
	}

	updated.Responses = domain.Describe(event.CustomFields, updated.Responses)
	s.invalidateList(ctx)
	s.publish(ctx, events.RegistrationUpdated, event, updated, false)
	return updated, nil
}

// SetRegistrationStatus lets a manager confirm or cancel any registration of
// an event. Capacity is not re-checked.
func (s *registrationService) SetRegistrationStatus(ctx context.Context, eventID, registrationID, status string, actor *auth.Claims) (*domain.Registration, error) {
	if err := auth.Authorize(actor, auth.ActionRegistrationManage, ""); err != nil {
		return nil, err
	}
	st, ok := domain.ParseRegistrationStatus(status)
	if !ok {
		return nil, domain.NewValidationError("Invalid status. Must be CONFIRMED or CANCELLED", map[string]string{"status": "Must be CONFIRMED or CANCELLED"})
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	reg, err := s.regRepo.SetStatus(ctx, eventID, registrationID, st)
	if err != nil {
		return nil, fmt.Errorf("failed to update registration status: %w", err)
	}
	if reg == nil {
		return nil, domain.ErrRegistrationNotFound
	}

	reg.Responses = domain.Describe(event.CustomFields, reg.Responses)
	s.invalidateList(ctx)
	subject := events.RegistrationConfirmed
	if st == domain.RegistrationCancelled {
		subject = events.RegistrationCancelled
	}
	s.publish(ctx, subject, event, reg, false)
	return reg, nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, eventID string, actor *auth.Claims) ([]domain.Registration, error) {
	if err := auth.Authorize(actor, auth.ActionRegistrationRoster, ""); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	regs, err := s.regRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	for i := range regs {
		regs[i].Responses = domain.Describe(event.CustomFields, regs[i].Responses)
	}
	return regs, nil
}

func (s *registrationService) invalidateList(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, EventListCacheKey); err != nil {
		logger.WarnContext(ctx, "Event list cache invalidation failed", "error", err)
	}
}

func (s *registrationService) publish(ctx context.Context, subject string, event *domain.Event, reg *domain.Registration, reactivated bool) {
	msg := events.RegistrationEvent{
		RegistrationID: reg.ID,
		EventID:        event.ID,
		EventLabel:     event.Label,
		EventStartDate: event.StartDate,
		Email:          reg.Email,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Status:         string(reg.Status),
		Reactivated:    reactivated,
		OccurredAt:     s.now(),
	}
	if reg.UserID != nil {
		msg.UserID = *reg.UserID
	}
	if err := s.eventBus.Publish(ctx, subject, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish registration event", "error", err, "subject", subject, "registration_id", reg.ID)
	}
}
