package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"admincore/internal/apperr"
	"admincore/internal/models"
)

// DefaultRole is granted to self-registered accounts.
const DefaultRole = "User"

// Mailer delivers password-reset links out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// TokenPair is an access/refresh credential pair for one principal.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RegisterInput is the payload for account self-registration.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
}

// Service issues, refreshes and revokes session credentials.
type Service struct {
	repo       Repository
	signer     *Signer
	mailer     Mailer
	lg         *zap.SugaredLogger
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewService(repo Repository, signer *Signer, mailer Mailer, lg *zap.SugaredLogger, refreshTTL, resetTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		signer:     signer,
		mailer:     mailer,
		lg:         lg,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// Login verifies the credential and issues a fresh token pair. Every failure
// mode (unknown email, wrong password, inactive account) collapses into
// ErrAuthFailure.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, apperr.ErrAuthFailure
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperr.ErrAuthFailure
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperr.ErrAuthFailure
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Register creates an account with the default role and logs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*TokenPair, *models.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, nil, apperr.NewValidation("email", "required")
	}
	if len(in.Password) < MinPasswordLen {
		return nil, nil, apperr.NewValidation("password", "must be at least 8 characters")
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, nil, apperr.NewValidation("email", "already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, apperr.ErrInternal
	}
	roles, err := s.repo.FindRolesByName(ctx, []string{DefaultRole})
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PasswordHash: hash,
		IsActive:     true,
		Roles:        roles,
	}
	user.StampCreated(nil, s.now())
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token is atomically revoked
// and a new pair is issued. Among concurrent calls with the same token exactly
// one succeeds; the rest observe ErrAuthFailure and nothing changes for them.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claimed, err := s.repo.ClaimRefreshToken(ctx, refreshToken, s.now())
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindUserByID(ctx, claimed.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrAuthFailure
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrAuthFailure
	}
	return s.issuePair(ctx, user)
}

// Revoke marks a refresh token revoked. Idempotent: revoking an unknown or
// already-revoked token returns false, never an error.
func (s *Service) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

// ValidateAccessToken verifies the signed access credential without touching
// storage.
func (s *Service) ValidateAccessToken(token string) (Claims, error) {
	return s.signer.Verify(token)
}

// SendResetLink issues a single-use reset token and hands it to the mailer.
// Unknown emails succeed silently so account existence is not disclosed.
func (s *Service) SendResetLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	token := &models.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.resetTTL).UTC(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateResetToken(ctx, token); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token.Token); err != nil {
		s.lg.Errorw("send reset mail", "error", err)
		return apperr.ErrInternal
	}
	return nil
}

// ResetPassword consumes a reset token exactly once and replaces the password
// hash. All of the user's refresh tokens are revoked as well.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return apperr.NewValidation("password", "must be at least 8 characters")
	}
	consumed, err := s.repo.ConsumeResetToken(ctx, token, s.now())
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.ErrInternal
	}
	if err := s.repo.UpdatePasswordHash(ctx, consumed.UserID, hash); err != nil {
		return err
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, consumed.UserID); err != nil {
		s.lg.Warnw("revoke refresh tokens after reset", "user_id", consumed.UserID, "error", err)
	}
	return nil
}

func (s *Service) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	access, err := s.signer.Sign(user.ID, user.Email, roles)
	if err != nil {
		return nil, apperr.ErrInternal
	}
	now := s.now().UTC()
	refresh := &models.RefreshToken{
		Token:     newOpaqueToken(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    now.Add(s.signer.ttl),
	}, nil
}

func newOpaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
