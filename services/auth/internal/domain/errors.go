package domain

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/diagnosis/eventdesk/pkg/validation"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrLastManager        = errors.New("cannot delete the last manager account")
)

// ValidationError carries a summary plus per-field messages keyed by JSON
// field name.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Message + ": " + strings.Join(keys, ", ")
}

func validate(ctx context.Context, message string, v any) error {
	err := validation.Struct(ctx, v)
	if err == nil {
		return nil
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return &ValidationError{Message: message, Fields: fe}
	}
	return err
}
