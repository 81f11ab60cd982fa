// Package auth implements login and the password-reset token flow on top of
// the persistence façade. Every failure is terminal for the request; there
// are no retries.
package auth

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/backoffice-kit/backoffice/internal/apperrors"
	"github.com/backoffice-kit/backoffice/internal/models"
	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/security"
)

// TokenConfig carries the two secret/expiry pairs the service signs with.
// The session and reset secrets are distinct so a leaked reset token can
// never be replayed as a session token.
type TokenConfig struct {
	SessionSecret string
	SessionExpiry time.Duration
	ResetSecret   string
	ResetExpiry   time.Duration
}

// Service authenticates administrators and issues bearer tokens.
type Service struct {
	store  *persistence.Facade
	tokens TokenConfig
}

// NewService constructs a Service.
func NewService(store *persistence.Facade, tokens TokenConfig) *Service {
	return &Service{store: store, tokens: tokens}
}

// Login verifies an email/password pair and returns a session token keyed to
// the account id. It fails user_does_not_exist when no account matches the
// email and invalid_credentials when the password does not verify.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	record, err := s.store.Get(ctx, "admin", account.ID, persistence.WithCredential())
	if err != nil {
		return "", err
	}
	holder, ok := record.(persistence.CredentialHolder)
	if !ok {
		return "", apperrors.UnknownError()
	}
	if !security.CheckPassword(holder.CredentialHash(), password) {
		return "", apperrors.InvalidCredentials()
	}

	log.WithField("id", account.ID).Info("auth: login")
	token, errSign := security.SignToken(s.tokens.SessionSecret, account.ID, s.tokens.SessionExpiry)
	if errSign != nil {
		return "", errSign
	}
	return token, nil
}

// GenerateResetToken issues a short-lived password-reset token for the
// account matching email.
func (s *Service) GenerateResetToken(ctx context.Context, email string) (string, error) {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	log.WithField("id", account.ID).Info("auth: reset token issued")
	token, errSign := security.SignToken(s.tokens.ResetSecret, account.ID, s.tokens.ResetExpiry)
	if errSign != nil {
		return "", errSign
	}
	return token, nil
}

// VerifyResetToken validates a reset token and returns its claims. It fails
// expired_token past the expiry window and unauthorized for any other
// integrity failure.
func (s *Service) VerifyResetToken(token string) (*security.Claims, error) {
	claims, err := security.ParseToken(s.tokens.ResetSecret, token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, apperrors.ExpiredToken()
		}
		return nil, apperrors.Unauthorized()
	}
	return claims, nil
}

// VerifySessionToken validates a session token and returns its claims. Used
// by the HTTP auth middleware.
func (s *Service) VerifySessionToken(token string) (*security.Claims, error) {
	claims, err := security.ParseToken(s.tokens.SessionSecret, token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, apperrors.ExpiredToken()
		}
		return nil, apperrors.Unauthorized()
	}
	return claims, nil
}

// findByEmail locates the admin account for email through the façade's
// listing, failing user_does_not_exist when nothing matches.
func (s *Service) findByEmail(ctx context.Context, email string) (*models.Admin, error) {
	result, err := s.store.List(ctx, "admin", persistence.ListQuery{
		Filters: map[string]string{"email": email},
	})
	if err != nil {
		return nil, err
	}
	rows, ok := result.Results.([]models.Admin)
	if !ok || result.Pagination.Count < 1 || len(rows) == 0 {
		return nil, apperrors.UserDoesNotExist()
	}
	return &rows[0], nil
}
