package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
	"github.com/diagnosis/eventdesk/services/auth/internal/repository"
)

type UserService interface {
	ListUsers(ctx context.Context, actor *auth.Claims) ([]domain.User, error)
	GetUser(ctx context.Context, id string, actor *auth.Claims) (*domain.User, error)
	CreateUser(ctx context.Context, req *domain.CreateUserRequest, actor *auth.Claims) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest, actor *auth.Claims) (*domain.User, error)
	DeleteUser(ctx context.Context, id string, actor *auth.Claims) error
	UpdateProfile(ctx context.Context, req *domain.ProfileRequest, actor *auth.Claims) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(ctx context.Context, actor *auth.Claims) ([]domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionUserManage, ""); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id string, actor *auth.Claims) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionUserManage, ""); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *userService) CreateUser(ctx context.Context, req *domain.CreateUserRequest, actor *auth.Claims) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionUserManage, ""); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:        req.Email,
		PasswordHash: &hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoContext(ctx, "User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest, actor *auth.Claims) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionUserManage, ""); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(user)

	return s.save(ctx, user)
}

// DeleteUser refuses to remove the only remaining manager account.
func (s *userService) DeleteUser(ctx context.Context, id string, actor *auth.Claims) error {
	if err := auth.Authorize(actor, auth.ActionUserManage, ""); err != nil {
		return err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if user.IsManager() {
		managers, err := s.userRepo.CountManagers(ctx)
		if err != nil {
			return fmt.Errorf("failed to count managers: %w", err)
		}
		if managers <= 1 {
			return domain.ErrLastManager
		}
	}

	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return domain.ErrUserNotFound
	}

	logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

func (s *userService) UpdateProfile(ctx context.Context, req *domain.ProfileRequest, actor *auth.Claims) (*domain.User, error) {
	if actor == nil {
		return nil, auth.ErrUnauthorized
	}
	req.Normalize()
	if req.UserID == "" {
		req.UserID = actor.UserID
	}
	if err := auth.Authorize(actor, auth.ActionProfileUpdate, req.UserID); err != nil {
		return nil, err
	}
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email

	return s.save(ctx, user)
}

func (s *userService) find(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrUserNotFound
	}
	return updated, nil
}
