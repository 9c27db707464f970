package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diagnosis/eventdesk/pkg/validation"
)

type Event struct {
	ID                string        `json:"id"`
	Label             string        `json:"label"`
	Description       string        `json:"description"`
	ShortDescription  string        `json:"shortDescription"`
	AvatarURL         string        `json:"avatarUrl"`
	StartDate         string        `json:"startDate"`
	EndDate           *string       `json:"endDate"`
	StartTime         *string       `json:"startTime"`
	EndTime           *string       `json:"endTime"`
	Location          string        `json:"location"`
	MaxCapacity       *int          `json:"maxCapacity"`
	IsActive          bool          `json:"isActive"`
	CreatedByID       *string       `json:"createdById"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	CustomFields      []CustomField `json:"customFields"`
	RegistrationCount int           `json:"registrationCount"`
}

func (e *Event) Schedule() Schedule {
	return Schedule{
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
	}
}

// IsFull reports whether active registrations have reached capacity.
// Events without a capacity are never full.
func (e *Event) IsFull() bool {
	return e.MaxCapacity != nil && e.RegistrationCount >= *e.MaxCapacity
}

// EventView is an event as shown to a particular viewer.
type EventView struct {
	Event
	Status                 TemporalStatus      `json:"status"`
	IsUserRegistered       bool                `json:"isUserRegistered"`
	UserRegistrationStatus *RegistrationStatus `json:"userRegistrationStatus"`
}

type EventInput struct {
	Label            string       `json:"label" validate:"required"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"shortDescription"`
	AvatarURL        string       `json:"avatarUrl"`
	StartDate        string       `json:"startDate" validate:"required,ymd"`
	EndDate          *string      `json:"endDate" validate:"omitempty,ymd"`
	StartTime        *string      `json:"startTime" validate:"omitempty,hhmm"`
	EndTime          *string      `json:"endTime" validate:"omitempty,hhmm"`
	Location         string       `json:"location"`
	MaxCapacity      *int         `json:"maxCapacity" validate:"omitempty,gt=0"`
	IsActive         *bool        `json:"isActive"`
	CustomFields     []FieldInput `json:"customFields"`
}

// Normalize trims text fields and turns empty optional strings into nil.
func (in *EventInput) Normalize() {
	in.Label = strings.TrimSpace(in.Label)
	in.Description = strings.TrimSpace(in.Description)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	in.Location = strings.TrimSpace(in.Location)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = blankToNil(in.EndDate)
	in.StartTime = blankToNil(in.StartTime)
	in.EndTime = blankToNil(in.EndTime)
	if in.StartDate != "" && len(in.StartDate) > len(time.DateOnly) {
		in.StartDate = in.StartDate[:len(time.DateOnly)]
	}
	if in.EndDate != nil && len(*in.EndDate) > len(time.DateOnly) {
		d := (*in.EndDate)[:len(time.DateOnly)]
		in.EndDate = &d
	}
}

func (in *EventInput) Validate(ctx context.Context) error {
	fields := map[string]string{}
	if err := validation.Struct(ctx, in); err != nil {
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			return err
		}
		for k, v := range fe {
			fields[k] = v
		}
	}
	if _, bad := fields["endDate"]; !bad && in.EndDate != nil && in.StartDate != "" && *in.EndDate < in.StartDate {
		fields["endDate"] = "End date cannot be before start date"
	}
	if len(fields) > 0 {
		return NewValidationError("Invalid event", fields)
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
