package domain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	CodeExpiration          = 15 * time.Minute
	MaxVerificationAttempts = 5
)

type VerificationCode struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsValidAt reports whether the code can still be redeemed at now.
func (c *VerificationCode) IsValidAt(now time.Time) bool {
	return !c.Used && c.Attempts < MaxVerificationAttempts && now.Before(c.ExpiresAt)
}

// Matches compares code against the stored hash.
func (c *VerificationCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) == nil
}

func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateCode returns a random six-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,strictemail"`
}

func (r *SendCodeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *SendCodeRequest) Validate(ctx context.Context) error {
	return validate(ctx, "Valid email is required", r)
}

// CodeDelivery reports a sent code. Code is only filled in dev mode.
type CodeDelivery struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

func (r *VerifyCodeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyCodeRequest) Validate(ctx context.Context) error {
	return validate(ctx, "Email and code are required", r)
}
