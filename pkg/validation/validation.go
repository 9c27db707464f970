package validation

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	global     *validator.Validate
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	ErrFieldRequired      = "This field is required"
	ErrInvalidEmail       = "Invalid email format"
	ErrInvalidRole        = "Role must be MANAGER or REGULAR"
	ErrInvalidDate        = "Date must be formatted YYYY-MM-DD"
	ErrInvalidClock       = "Time must be formatted HH:MM"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinVal   = "Value must be positive"
	ErrInvalidValue       = "Invalid value"
)

func init() {
	global = New()
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strictemail", validateEmail)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("ymd", validateDate)
	_ = v.RegisterValidation("hhmm", validateClock)
	return v
}

// FieldErrors maps a JSON field name to a short message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + f[k]
	}
	return strings.Join(parts, "; ")
}

// Struct validates s using its `validate` tags. It returns FieldErrors or nil.
func Struct(ctx context.Context, s any) error {
	err := global.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	out := make(FieldErrors, len(vErrs))
	for _, fe := range vErrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

// IsEmail reports whether s looks like an address: something@domain.tld.
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsClock reports whether s is a 24h "HH:MM" time of day.
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// IsDate reports whether s is a calendar date "YYYY-MM-DD".
func IsDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return ErrFieldRequired
	case "strictemail", "email":
		return ErrInvalidEmail
	case "role":
		return ErrInvalidRole
	case "ymd":
		return ErrInvalidDate
	case "hhmm":
		return ErrInvalidClock
	case "min":
		if fe.Kind() == reflect.String {
			return ErrFieldBelowMinLen
		}
		return ErrFieldBelowMinVal
	case "gt", "gte":
		return ErrFieldBelowMinVal
	case "max":
		return ErrFieldExceedsMaxLen
	default:
		return ErrInvalidValue
	}
}

func validateEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "MANAGER" || s == "REGULAR"
}

func validateDate(fl validator.FieldLevel) bool {
	return IsDate(fl.Field().String())
}

func validateClock(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}
