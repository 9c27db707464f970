package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diagnosis/eventdesk/pkg/validation"
)

type createUser struct {
	FirstName string  `json:"firstName" validate:"required"`
	Email     string  `json:"email" validate:"required,strictemail"`
	Role      string  `json:"role" validate:"required,role"`
	StartDate string  `json:"startDate" validate:"omitempty,ymd"`
	StartTime *string `json:"startTime" validate:"omitempty,hhmm"`
	Capacity  *int    `json:"maxCapacity" validate:"omitempty,gt=0"`
}

func TestStructCollectsFieldErrors(t *testing.T) {
	bad := "25:00"
	zero := 0
	err := validation.Struct(context.Background(), createUser{
		Email:     "not-an-email",
		Role:      "ADMIN",
		StartDate: "2026-13-01",
		StartTime: &bad,
		Capacity:  &zero,
	})

	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	want := map[string]string{
		"firstName":   validation.ErrFieldRequired,
		"email":       validation.ErrInvalidEmail,
		"role":        validation.ErrInvalidRole,
		"startDate":   validation.ErrInvalidDate,
		"startTime":   validation.ErrInvalidClock,
		"maxCapacity": validation.ErrFieldBelowMinVal,
	}
	for k, v := range want {
		if fe[k] != v {
			t.Fatalf("%s = %q, want %q (all: %v)", k, fe[k], v, fe)
		}
	}
}

func TestStructValid(t *testing.T) {
	clock := "09:30"
	capacity := 10
	err := validation.Struct(context.Background(), createUser{
		FirstName: "Ann",
		Email:     "ann@example.com",
		Role:      "MANAGER",
		StartDate: "2026-06-01",
		StartTime: &clock,
		Capacity:  &capacity,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if !validation.IsEmail("a@b.co") || validation.IsEmail("a@b") || validation.IsEmail("a b@c.de") {
		t.Fatal("IsEmail mismatch")
	}
	if !validation.IsClock("23:59") || validation.IsClock("9:30") || validation.IsClock("24:00") {
		t.Fatal("IsClock mismatch")
	}
	if !validation.IsDate("2024-02-29") || validation.IsDate("2023-02-29") {
		t.Fatal("IsDate mismatch")
	}
}
