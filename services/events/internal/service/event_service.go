package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/cache"
	"github.com/diagnosis/eventdesk/pkg/events"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
	"github.com/diagnosis/eventdesk/services/events/internal/repository"
)

type EventService interface {
	CreateEvent(ctx context.Context, in *domain.EventInput, actor *auth.Claims) (*domain.Event, error)
	UpdateEvent(ctx context.Context, id string, in *domain.EventInput, actor *auth.Claims) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string, actor *auth.Claims) error
	GetEvent(ctx context.Context, id string, viewer *auth.Claims) (*domain.EventView, error)
	ListEvents(ctx context.Context, viewer *auth.Claims) ([]domain.EventView, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	regRepo   repository.RegistrationRepository
	cache     cache.Cache
	cacheTTL  time.Duration
	eventBus  events.Publisher
	settings
}

func NewEventService(
	eventRepo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	store cache.Cache,
	cacheTTL time.Duration,
	eventBus events.Publisher,
	opts ...Option,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		cache:     store,
		cacheTTL:  cacheTTL,
		eventBus:  eventBus,
		settings:  newSettings(opts),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, in *domain.EventInput, actor *auth.Claims) (*domain.Event, error) {
	if err := auth.Authorize(actor, auth.ActionEventCreate, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	e := eventFromInput(in)
	e.IsActive = in.IsActive == nil || *in.IsActive
	e.CreatedByID = &actor.UserID
	e.CustomFields = domain.NewFields(in.CustomFields)

	created, err := s.eventRepo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidateList(ctx)
	s.publish(ctx, events.EventCreated, created, actor)
	return created, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, in *domain.EventInput, actor *auth.Claims) (*domain.Event, error) {
	if err := auth.Authorize(actor, auth.ActionEventUpdate, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	existing, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrEventNotFound
	}

	e := eventFromInput(in)
	e.ID = id
	e.IsActive = existing.IsActive
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	// Omitted customFields leave stored fields alone; an explicit [] clears them.
	var plan domain.FieldPlan
	if in.CustomFields != nil {
		plan = domain.ReconcileFields(existing.CustomFields, in.CustomFields)
	}

	updated, err := s.eventRepo.Update(ctx, e, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrEventNotFound
	}

	s.invalidateList(ctx)
	s.publish(ctx, events.EventUpdated, updated, actor)
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string, actor *auth.Claims) error {
	if err := auth.Authorize(actor, auth.ActionEventDelete, ""); err != nil {
		return err
	}

	existing, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if existing == nil {
		return domain.ErrEventNotFound
	}

	deleted, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !deleted {
		return domain.ErrEventNotFound
	}

	s.invalidateList(ctx)
	s.publish(ctx, events.EventDeleted, existing, actor)
	return nil
}

// GetEvent loads an event and, for an authenticated viewer, their active
// registration in parallel.
func (s *eventService) GetEvent(ctx context.Context, id string, viewer *auth.Claims) (*domain.EventView, error) {
	var (
		e   *domain.Event
		reg *domain.Registration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e, err = s.eventRepo.FindByID(gctx, id)
		return err
	})
	if viewer != nil {
		g.Go(func() error {
			var err error
			reg, err = s.regRepo.FindActiveForUser(gctx, id, viewer.UserID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if e == nil {
		return nil, domain.ErrEventNotFound
	}

	view := s.view(*e)
	if reg != nil {
		status := reg.Status
		view.IsUserRegistered = true
		view.UserRegistrationStatus = &status
	}
	return &view, nil
}

func (s *eventService) ListEvents(ctx context.Context, viewer *auth.Claims) ([]domain.EventView, error) {
	list, err := s.cachedList(ctx)
	if err != nil {
		return nil, err
	}

	var statuses map[string]domain.RegistrationStatus
	if viewer != nil {
		statuses, err = s.eventRepo.ViewerStatuses(ctx, viewer.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load registration status: %w", err)
		}
	}

	views := make([]domain.EventView, 0, len(list))
	for _, e := range list {
		view := s.view(e)
		if status, ok := statuses[e.ID]; ok {
			view.IsUserRegistered = true
			view.UserRegistrationStatus = &status
		}
		views = append(views, view)
	}
	return views, nil
}

// cachedList reads through the list cache. A non-positive ttl turns the
// cache off.
func (s *eventService) cachedList(ctx context.Context) ([]domain.Event, error) {
	if s.cacheTTL <= 0 {
		list, err := s.eventRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		return list, nil
	}

	if raw, ok, err := s.cache.Get(ctx, EventListCacheKey); err != nil {
		logger.WarnContext(ctx, "Event list cache read failed", "error", err)
	} else if ok {
		var list []domain.Event
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
	}

	list, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if raw, err := json.Marshal(list); err == nil {
		if err := s.cache.Set(ctx, EventListCacheKey, raw, s.cacheTTL); err != nil {
			logger.WarnContext(ctx, "Event list cache write failed", "error", err)
		}
	}
	return list, nil
}

func (s *eventService) view(e domain.Event) domain.EventView {
	return domain.EventView{
		Event:  e,
		Status: e.Schedule().Status(s.now(), s.loc),
	}
}

func (s *eventService) invalidateList(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, EventListCacheKey); err != nil {
		logger.WarnContext(ctx, "Event list cache invalidation failed", "error", err)
	}
}

func (s *eventService) publish(ctx context.Context, subject string, e *domain.Event, actor *auth.Claims) {
	msg := events.EventChangedEvent{
		EventID:   e.ID,
		Label:     e.Label,
		StartDate: e.StartDate,
		ActorID:   actor.UserID,
		ChangedAt: s.now(),
	}
	if err := s.eventBus.Publish(ctx, subject, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event change", "error", err, "subject", subject, "event_id", e.ID)
	}
}

func eventFromInput(in *domain.EventInput) *domain.Event {
	return &domain.Event{
		Label:            in.Label,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		AvatarURL:        in.AvatarURL,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		Location:         in.Location,
		MaxCapacity:      in.MaxCapacity,
	}
}
