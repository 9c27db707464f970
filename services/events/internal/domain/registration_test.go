package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

func TestValidateResponses(t *testing.T) {
	fields := []domain.CustomField{
		{ID: "diet", Label: "Diet", ControlType: domain.ControlMultiselect, IsRequired: true},
		{ID: "guest", Label: "Guest", ControlType: domain.ControlToggle, IsRequired: true},
		{ID: "notes", Label: "Notes", ControlType: domain.ControlTextarea},
	}

	ok := map[string]domain.FieldValue{
		"diet":  domain.ListValue("Vegan"),
		"guest": domain.BoolValue(false),
	}
	if err := domain.ValidateResponses(fields, ok); err != nil {
		t.Fatalf("valid responses rejected: %v", err)
	}

	bad := map[string]domain.FieldValue{
		"diet":    domain.ListValue(),
		"unknown": domain.TextValue("x"),
	}
	err := domain.ValidateResponses(fields, bad)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, id := range []string{"diet", "guest", "unknown"} {
		if _, ok := ve.Fields[id]; !ok {
			t.Fatalf("missing error for %s: %v", id, ve.Fields)
		}
	}
	if _, ok := ve.Fields["notes"]; ok {
		t.Fatal("optional field reported")
	}
}

func TestEncodeResponsesFollowsFieldOrder(t *testing.T) {
	fields := []domain.CustomField{{ID: "b"}, {ID: "a"}}
	out := domain.EncodeResponses(fields, map[string]domain.FieldValue{
		"a": domain.TextValue("first"),
		"b": domain.BoolValue(true),
	})
	if len(out) != 2 || out[0].FieldID != "b" || out[0].Value != "true" || out[1].Value != "first" {
		t.Fatalf("out = %+v", out)
	}
}

func TestAttendeeValidate(t *testing.T) {
	a := domain.Attendee{FirstName: " Ann ", LastName: "Lee", Email: " ANN@Example.com "}
	a.Normalize()
	if err := a.Validate(context.Background()); err != nil {
		t.Fatalf("valid attendee rejected: %v", err)
	}
	if a.Email != "ann@example.com" || a.FirstName != "Ann" {
		t.Fatalf("normalize = %+v", a)
	}

	missing := domain.Attendee{FirstName: "Ann"}
	err := missing.Validate(context.Background())
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["lastName"] == "" || ve.Fields["email"] == "" {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistrationPatchFallsBack(t *testing.T) {
	uid := "u1"
	reg := &domain.Registration{UserID: &uid, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}
	newLast := "Kim"
	blank := "  "
	p := domain.RegistrationPatch{LastName: &newLast, FirstName: &blank}

	a := p.Apply(reg)
	if a.FirstName != "Ann" || a.LastName != "Kim" || a.Email != "ann@example.com" || a.UserID == nil || *a.UserID != "u1" {
		t.Fatalf("applied = %+v", a)
	}
}

func TestEventInputValidate(t *testing.T) {
	end := "2026-05-31"
	in := domain.EventInput{Label: " Picnic ", StartDate: "2026-06-01T00:00:00.000Z", EndDate: &end}
	in.Normalize()
	if in.StartDate != "2026-06-01" {
		t.Fatalf("start date = %q", in.StartDate)
	}
	err := in.Validate(context.Background())
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["endDate"] == "" {
		t.Fatalf("err = %v, want endDate error", err)
	}

	missing := domain.EventInput{}
	err = missing.Validate(context.Background())
	if !errors.As(err, &ve) || ve.Fields["label"] == "" || ve.Fields["startDate"] == "" {
		t.Fatalf("err = %v, want label/startDate errors", err)
	}
}

func TestEventIsFull(t *testing.T) {
	capacity := 2
	e := domain.Event{MaxCapacity: &capacity, RegistrationCount: 1}
	if e.IsFull() {
		t.Fatal("full below capacity")
	}
	e.RegistrationCount = 2
	if !e.IsFull() {
		t.Fatal("not full at capacity")
	}
	e.MaxCapacity = nil
	if e.IsFull() {
		t.Fatal("uncapped event reported full")
	}
}
