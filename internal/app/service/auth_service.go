package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"normal_oj/internal/app/mailer"
	"normal_oj/internal/common"
	"normal_oj/internal/common/security"
	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
)

// AuthService owns the credential lifecycle: registration, login, one-shot
// verification and reset tokens, and session token issuance.
type AuthService struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	jwtExp   time.Duration
}

func NewAuthService(userRepo repository.UserRepository, m mailer.Mailer, jwtExp time.Duration) *AuthService {
	return &AuthService{userRepo: userRepo, mailer: m, jwtExp: jwtExp}
}

// TokenTTL is the lifetime applied to issued session tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtExp
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	// Username doubles as the login identity: matched against username or
	// email.
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func validateRegister(req RegisterRequest) error {
	fields := map[string]string{}
	if len(req.Username) < 2 {
		fields["username"] = "must be at least 2 characters long"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters long"
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// Register creates an unverified account, rotates its verification token
// and queues the welcome mail. A username/email collision is collapsed into
// outward success so the endpoint cannot be used to probe accounts.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	if err := validateRegister(req); err != nil {
		return err
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Pid:            uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		APIKey:         "noj-" + uuid.NewString(),
		Role:           model.RoleStudent,
	}

	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			slog.Info("could not register user", "email", req.Email, "reason", "already exists")
			return nil
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.userRepo.SetEmailVerification(ctx, user, uuid.NewString(), time.Now()); err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		// the account and token are already durable; surface a generic error
		slog.Error("failed to queue welcome mail", "user", user.Username, "err", err)
		return fmt.Errorf("failed to send welcome mail: %w", common.ErrInternalServer)
	}
	return nil
}

// Login authenticates by username or email and issues a session token keyed
// by the user's pid. Every failure mode collapses to ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, req.Username)
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, nil, req.Username)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.Pid, s.jwtExp)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// Verify consumes an email-verification token. Verifying an already
// verified account is a no-op success.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user.Verified() {
		slog.Info("user already verified", "pid", user.Pid)
		return nil
	}
	if err := s.userRepo.MarkVerified(ctx, nil, user, time.Now()); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	slog.Info("user verified", "pid", user.Pid)
	return nil
}

// Forgot rotates the reset token and queues the reset mail. An unknown
// email still reports success so account existence is not disclosed.
func (s *AuthService) Forgot(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.SetResetToken(ctx, user, uuid.NewString(), time.Now()); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	if err := s.mailer.SendForgotPassword(ctx, user); err != nil {
		slog.Error("failed to queue reset mail", "user", user.Username, "err", err)
		return fmt.Errorf("failed to send reset mail: %w", common.ErrInternalServer)
	}
	return nil
}

// Reset consumes a reset token and stores the new password hash. An unknown
// token still reports success.
func (s *AuthService) Reset(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			slog.Info("reset token not found")
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error {
	if !security.CheckPasswordHash(oldPassword, user.HashedPassword) {
		return common.ErrUnauthorized
	}
	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CheckTaken reports whether a username or email is already registered.
func (s *AuthService) CheckTaken(ctx context.Context, item, value string) (bool, error) {
	var err error
	switch item {
	case "username":
		_, err = s.userRepo.FindByUsername(ctx, nil, value)
	case "email":
		_, err = s.userRepo.FindByEmail(ctx, nil, value)
	default:
		return false, fmt.Errorf("invalid checking type %q: %w", item, common.ErrBadRequest)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", item, err)
	}
	return true, nil
}

// FindByClaimsKey resolves the user a verified session token refers to.
func (s *AuthService) FindByClaimsKey(ctx context.Context, claimsKey string) (*model.User, error) {
	return s.userRepo.FindByPid(ctx, claimsKey)
}

// FindByAPIKey resolves a user from an opaque API key.
func (s *AuthService) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return s.userRepo.FindByAPIKey(ctx, apiKey)
}
