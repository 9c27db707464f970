package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

type userRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
	now   func() time.Time
}

func newUserRepo(now func() time.Time) *userRepo {
	return &userRepo{users: map[string]*domain.User{}, now: now}
}

func (r *userRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	c := *u
	c.ID = fmt.Sprintf("u-%d", r.seq)
	// Distinct creation times keep List ordering deterministic.
	c.CreatedAt = r.now().Add(time.Duration(r.seq) * time.Second)
	c.UpdatedAt = c.CreatedAt
	r.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return nil, nil
	}
	if r.emailTaken(u.Email, u.ID) {
		return nil, domain.ErrEmailTaken
	}
	stored.Email = u.Email
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Role = u.Role
	stored.IsActive = u.IsActive
	stored.UpdatedAt = r.now()
	c := *stored
	return &c, nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	now := r.now()
	stored.LastLoginAt = &now
	c := *stored
	return &c, nil
}

func (r *userRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) CountManagers(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Role == "MANAGER" {
			n++
		}
	}
	return n, nil
}

func (r *userRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type codeRepo struct {
	mu    sync.Mutex
	codes []domain.VerificationCode
}

func (r *codeRepo) Replace(_ context.Context, email, codeHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if !strings.EqualFold(c.Email, email) {
			kept = append(kept, c)
		}
	}
	r.codes = append(kept, domain.VerificationCode{
		ID:        fmt.Sprintf("c-%d", len(kept)+1),
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	})
	return nil
}

func (r *codeRepo) Consume(_ context.Context, email, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := &r.codes[i]
		if !strings.EqualFold(c.Email, email) {
			continue
		}
		if !c.IsValidAt(now) {
			return false, nil
		}
		if !c.Matches(code) {
			c.Attempts++
			return false, nil
		}
		c.Used = true
		return true, nil
	}
	return false, nil
}

func (r *codeRepo) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

func (r *codeRepo) latest(email string) *domain.VerificationCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		if strings.EqualFold(r.codes[i].Email, email) {
			c := r.codes[i]
			return &c
		}
	}
	return nil
}

func (r *codeRepo) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.codes {
		if strings.EqualFold(c.Email, email) {
			n++
		}
	}
	return n
}
