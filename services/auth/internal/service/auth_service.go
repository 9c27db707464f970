package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/pkg/config"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/mailer"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
	"github.com/diagnosis/eventdesk/services/auth/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error)
	SendCode(ctx context.Context, req *domain.SendCodeRequest) (*domain.CodeDelivery, error)
	VerifyCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.Session, error)
	Validate(ctx context.Context, claims *auth.Claims) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	codeRepo repository.CodeRepository
	mailer   mailer.Service
	config   *config.Config
	now      func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.CodeRepository,
	mailer mailer.Service,
	config *config.Config,
	opts ...Option,
) AuthService {
	s := &authService{
		userRepo: userRepo,
		codeRepo: codeRepo,
		mailer:   mailer,
		config:   config,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	req.Normalize()
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !auth.CheckPassword(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// SendCode issues a fresh sign-in code, creating a REGULAR account for
// unknown addresses. Earlier codes for the address stop working.
func (s *authService) SendCode(ctx context.Context, req *domain.SendCodeRequest) (*domain.CodeDelivery, error) {
	req.Normalize()
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		user, err = s.userRepo.Create(ctx, &domain.User{
			Email:    req.Email,
			Role:     auth.RoleRegular,
			IsActive: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		logger.InfoContext(ctx, "Created user from sign-in code request", "user_id", user.ID)
	}

	code, err := domain.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	codeHash, err := domain.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification code: %w", err)
	}
	ttl := s.codeTTL()
	if err := s.codeRepo.Replace(ctx, req.Email, codeHash, s.now().Add(ttl)); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	signInURL, err := mailer.SignInURL(s.config.Email.AppBaseURL, req.Email, code)
	if err != nil {
		return nil, fmt.Errorf("failed to build sign-in link: %w", err)
	}
	msg := mailer.VerificationCode(req.Email, code, signInURL, int(ttl.Minutes()))
	if err := s.mailer.Send(ctx, msg); err != nil {
		// The code is stored; the user can ask again.
		logger.ErrorContext(ctx, "Failed to send verification code", "error", err, "user_id", user.ID)
	}

	delivery := &domain.CodeDelivery{Message: "Verification code sent successfully"}
	if s.config.Email.DevMode {
		delivery.Code = code
	}
	return delivery, nil
}

func (s *authService) VerifyCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.Session, error) {
	req.Normalize()
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	ok, err := s.codeRepo.Consume(ctx, req.Email, req.Code, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCode
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	return s.startSession(ctx, user)
}

// Validate returns the current record of the token's user.
func (s *authService) Validate(ctx context.Context, claims *auth.Claims) (*domain.User, error) {
	if claims == nil {
		return nil, auth.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	touched, err := s.userRepo.TouchLastLogin(ctx, user.ID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to record last login", "error", err, "user_id", user.ID)
	} else if touched != nil {
		user = touched
	}

	return &domain.Session{User: user.ToUserInfo(), Token: token}, nil
}

func (s *authService) codeTTL() time.Duration {
	if s.config.Auth.VerifyCodeTTL > 0 {
		return s.config.Auth.VerifyCodeTTL
	}
	return domain.CodeExpiration
}
