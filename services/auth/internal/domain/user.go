package domain

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/eventdesk/pkg/auth"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash *string    `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

// UserInfo is the public view of a user; it never carries the password hash.
type UserInfo struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func (u *User) IsManager() bool {
	return u.Role == auth.RoleManager
}

// Session is returned by every successful sign-in.
type Session struct {
	User  *UserInfo `json:"user"`
	Token string    `json:"token"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,strictemail"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,role"`
}

func (r *CreateUserRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
}

func (r *CreateUserRequest) Validate(ctx context.Context) error {
	return validate(ctx, "All fields are required", r)
}

// UpdateUserRequest is a manager edit. Role and IsActive keep their stored
// values when omitted.
type UpdateUserRequest struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     string  `json:"email" validate:"required,strictemail"`
	Role      *string `json:"role" validate:"omitempty,role"`
	IsActive  *bool   `json:"isActive"`
}

func (r *UpdateUserRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	if r.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*r.Role))
		r.Role = &role
	}
}

func (r *UpdateUserRequest) Validate(ctx context.Context) error {
	return validate(ctx, "First name, last name, and email are required", r)
}

// Apply copies the request onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	u.FirstName = r.FirstName
	u.LastName = r.LastName
	u.Email = r.Email
	if r.Role != nil {
		u.Role = *r.Role
	}
	if r.IsActive != nil {
		u.IsActive = *r.IsActive
	}
}

// ProfileRequest edits a user's own name and e-mail. UserID defaults to the
// caller.
type ProfileRequest struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,strictemail"`
}

func (r *ProfileRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
}

func (r *ProfileRequest) Validate(ctx context.Context) error {
	return validate(ctx, "First name, last name, and email are required", r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate(ctx context.Context) error {
	return validate(ctx, "Email and password are required", r)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
