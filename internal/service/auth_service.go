package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gsharma/indiainfo/internal/config"
	"github.com/gsharma/indiainfo/internal/models"
	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
	"github.com/gsharma/indiainfo/internal/pkg/ulid"
	"github.com/gsharma/indiainfo/internal/repository"
)

// AuthService bridges credential checks and OAuth linkups to sessions.
type AuthService interface {
	// Register creates a local account and logs it in (signup implies login).
	Register(ctx context.Context, username, email, password string) (*models.User, string, error)

	// Login verifies a local credential pair and returns a session token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)

	// Logout destroys the session. Idempotent.
	Logout(ctx context.Context, token string) error

	// CurrentUser resolves a session token to its user. An unresolvable
	// token yields (nil, nil): an unauthenticated request, not an error.
	CurrentUser(ctx context.Context, token string) (*models.User, error)

	// CreateSession issues a session token for an already-verified identity.
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)

	// RequestPasswordReset generates, stores, and emails a reset token.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword redeems a reset token and replaces the password hash.
	ResetPassword(ctx context.Context, token, password string) error

	// SweepExpiredResetTokens purges expired reset tokens on the given
	// interval until the context ends.
	SweepExpiredResetTokens(ctx context.Context, interval time.Duration)
}

type authService struct {
	users         repository.UserRepository
	sessions      repository.SessionRepository
	resets        repository.ResetTokenRepository
	mailer        Mailer
	bcryptCost    int
	sessionExpiry time.Duration
	resetExpiry   time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(
	cfg *config.AuthConfig,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	resets repository.ResetTokenRepository,
	mailer Mailer,
) AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	sessionExpiry := cfg.SessionExpiry
	if sessionExpiry == 0 {
		sessionExpiry = 7 * 24 * time.Hour
	}

	resetExpiry := cfg.ResetTokenExpiry
	if resetExpiry == 0 {
		resetExpiry = time.Hour
	}

	return &authService{
		users:         users,
		sessions:      sessions,
		resets:        resets,
		mailer:        mailer,
		bcryptCost:    cost,
		sessionExpiry: sessionExpiry,
		resetExpiry:   resetExpiry,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hash)
	user := &models.User{
		Username:     &username,
		Email:        email,
		PasswordHash: &hashStr,
		AuthProvider: models.ProviderLocal,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, "", apierrors.ErrDuplicateUser
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, "", apierrors.ErrUserNotFound
	}

	// OAuth accounts have no local password; never reach the hash compare.
	if user.AuthProvider != models.ProviderLocal {
		return nil, "", apierrors.NewWrongProviderError(user.AuthProvider)
	}

	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, "", apierrors.ErrIncorrectPassword
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.sessions.Get(ctx, token)
	if err == repository.ErrSessionNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	// A session whose user no longer resolves is an unauthenticated request.
	return user, nil
}

// CreateSession generates a cryptographically random opaque token referencing
// the user id only, never the password hash.
func (s *authService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(b)

	if err := s.sessions.Create(ctx, token, userID, s.sessionExpiry); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return apierrors.ErrNotRegistered
	}
	// Only local accounts have a password to reset.
	if user.AuthProvider != models.ProviderLocal {
		return apierrors.NewWrongProviderError(user.AuthProvider)
	}

	reset := &models.PasswordReset{
		Token:     ulid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.resetExpiry),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	body := fmt.Sprintf("You requested to reset your password. Use this token: %s", reset.Token)
	if err := s.mailer.Send(ctx, email, "Password Reset Request", body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	reset, err := s.resets.Get(ctx, token)
	if err != nil {
		return fmt.Errorf("reset token lookup failed: %w", err)
	}
	if reset == nil || reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return apierrors.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resets.MarkUsed(ctx, token); err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}

// SweepExpiredResetTokens keeps the password_resets table from accumulating
// dead rows. Redeemed tokens stay until their expiry passes.
func (s *authService) SweepExpiredResetTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.resets.DeleteExpired(ctx); err != nil {
				slog.Error("reset token sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Compile-time check to ensure authService implements AuthService.
var _ AuthService = (*authService)(nil)
