package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diagnosis/eventdesk/pkg/validation"
)

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

func ParseRegistrationStatus(s string) (RegistrationStatus, bool) {
	switch st := RegistrationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RegistrationConfirmed, RegistrationCancelled:
		return st, true
	default:
		return "", false
	}
}

type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"eventId"`
	UserID       *string            `json:"userId"`
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	Email        string             `json:"email"`
	Phone        *string            `json:"phone"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registeredAt"`
	Responses    []FieldResponse    `json:"customFieldResponses"`
}

func (r *Registration) IsActive() bool {
	return r.Status != RegistrationCancelled
}

// FieldResponse is one stored answer. Label, ControlType and Display are
// filled in for roster views.
type FieldResponse struct {
	ID          string      `json:"id,omitempty"`
	FieldID     string      `json:"customFieldId"`
	Value       string      `json:"value"`
	Decoded     *FieldValue `json:"decodedValue,omitempty"`
	FieldLabel  string      `json:"fieldLabel,omitempty"`
	ControlType ControlType `json:"controlType,omitempty"`
	Display     string      `json:"displayValue,omitempty"`
}

// Attendee is the person details captured on a registration.
type Attendee struct {
	UserID    *string `json:"userId"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     string  `json:"email" validate:"required,strictemail"`
	Phone     *string `json:"phone"`
}

func (a *Attendee) Normalize() {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Phone = blankToNil(a.Phone)
	a.UserID = blankToNil(a.UserID)
}

func (a *Attendee) Validate(ctx context.Context) error {
	err := validation.Struct(ctx, a)
	if err == nil {
		return nil
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return NewValidationError("First name, last name, and email are required", fe)
	}
	return err
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Attendee
	Responses map[string]FieldValue `json:"customFieldResponses"`
}

// RegistrationPatch updates an existing registration. Nil fields keep their
// stored value; a nil Responses map leaves answers untouched.
type RegistrationPatch struct {
	FirstName *string               `json:"firstName"`
	LastName  *string               `json:"lastName"`
	Email     *string               `json:"email"`
	Phone     *string               `json:"phone"`
	Responses map[string]FieldValue `json:"customFieldResponses"`
}

// Apply merges the patch over reg and returns the resulting attendee.
func (p *RegistrationPatch) Apply(reg *Registration) Attendee {
	a := Attendee{
		UserID:    reg.UserID,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Phone:     reg.Phone,
	}
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		a.LastName = *p.LastName
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) != "" {
		a.Email = *p.Email
	}
	if p.Phone != nil {
		a.Phone = p.Phone
	}
	a.Normalize()
	return a
}

// RegistrationState is the answer to "is this user registered?".
type RegistrationState struct {
	IsRegistered bool          `json:"isRegistered"`
	Registration *Registration `json:"registration"`
}

// ValidateResponses checks captured answers against an event's fields:
// every required field needs a non-empty answer and every answered id must
// belong to the event. Errors are keyed by field id.
func ValidateResponses(fields []CustomField, responses map[string]FieldValue) error {
	known := make(map[string]bool, len(fields))
	errs := map[string]string{}

	for _, f := range fields {
		known[f.ID] = true
		if !f.IsRequired {
			continue
		}
		v, ok := responses[f.ID]
		if !ok || v.IsEmpty() {
			errs[f.ID] = f.Label + " is required"
		}
	}
	for id := range responses {
		if !known[id] {
			errs[id] = "Unknown field"
		}
	}

	if len(errs) > 0 {
		return NewValidationError("Invalid custom field responses", errs)
	}
	return nil
}

// EncodeResponses renders answers for storage, ordered by the event's
// field order so inserts are deterministic.
func EncodeResponses(fields []CustomField, responses map[string]FieldValue) []FieldResponse {
	out := make([]FieldResponse, 0, len(responses))
	for _, f := range fields {
		v, ok := responses[f.ID]
		if !ok {
			continue
		}
		out = append(out, FieldResponse{FieldID: f.ID, Value: v.Encode()})
	}
	return out
}

// Describe fills decoded and display values for each response using the
// matching field definitions.
func Describe(fields []CustomField, responses []FieldResponse) []FieldResponse {
	byID := make(map[string]*CustomField, len(fields))
	for i := range fields {
		byID[fields[i].ID] = &fields[i]
	}
	out := make([]FieldResponse, len(responses))
	for i, r := range responses {
		decoded := DecodeStoredValue(r.Value)
		r.Decoded = &decoded
		if f, ok := byID[r.FieldID]; ok {
			r.FieldLabel = f.Label
			r.ControlType = f.ControlType
			r.Display = DisplayValue(f, r.Value)
		} else {
			r.Display = DisplayValue(nil, r.Value)
		}
		out[i] = r
	}
	return out
}
