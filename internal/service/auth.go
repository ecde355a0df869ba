// Package service holds the business logic, between the HTTP handlers and
// the repositories / provider clients.
//
//	handlers (HTTP) → services (rules) → repository + auth + calendar
//
// Services never read requests or write responses; handlers never touch
// storage or provider SDKs. That keeps every rule in exactly one place and
// testable with fakes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/rahat/quickcal/internal/auth"
	"github.com/rahat/quickcal/internal/model"
	"github.com/rahat/quickcal/internal/repository"
)

// TokenRevoker is the slice of the Google provider the auth service needs
// for logout. Satisfied by *auth.GoogleProvider.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthService orchestrates the OAuth callback and logout.
type AuthService struct {
	creds    repository.CredentialRepository
	tokens   *auth.TokenService
	provider TokenRevoker
	logger   *slog.Logger
}

func NewAuthService(
	creds repository.CredentialRepository,
	tokens *auth.TokenService,
	provider TokenRevoker,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		creds:    creds,
		tokens:   tokens,
		provider: provider,
		logger:   logger,
	}
}

// CompleteSignIn finishes the OAuth callback after the handler has exchanged
// the code: it persists the Google credential keyed by the user's stable sub
// (overwriting any previous blob) and issues the 24-hour session bearer
// token the client will present on subsequent requests.
func (s *AuthService) CompleteSignIn(ctx context.Context, identity auth.Identity, token *oauth2.Token) (string, error) {
	blob, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("service/auth: serializing credential: %w", err)
	}

	cred := &model.Credential{
		Sub:       identity.Sub,
		Email:     identity.Email,
		TokenJSON: string(blob),
	}
	if err := s.creds.Save(ctx, cred); err != nil {
		return "", fmt.Errorf("service/auth: storing credential for sub %s: %w", identity.Sub, err)
	}

	s.logger.Info("user authenticated with Google",
		slog.String("sub", identity.Sub),
		slog.String("email", identity.Email),
	)

	session, err := s.tokens.Generate(identity)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing session token for sub %s: %w", identity.Sub, err)
	}

	return session, nil
}

// Logout best-effort revokes the user's Google access token.
//
// Revocation failure is logged and ignored — the client is logging out
// either way. Note the deliberate asymmetry: the stored credential row is
// NOT deleted, so a bearer token issued before logout (still within its 24h
// window) can keep creating events. Whether that is desirable is an open
// product question; we preserve the original behaviour rather than silently
// changing it.
func (s *AuthService) Logout(ctx context.Context, identity auth.Identity) {
	cred, err := s.creds.Get(ctx, identity.Sub)
	if err != nil {
		s.logger.Info("logout: no stored credential to revoke",
			slog.String("sub", identity.Sub))
		return
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(cred.TokenJSON), &token); err != nil {
		s.logger.Warn("logout: stored credential blob is not valid JSON",
			slog.String("sub", identity.Sub),
			slog.String("error", err.Error()))
		return
	}

	if err := s.provider.Revoke(ctx, token.AccessToken); err != nil {
		s.logger.Warn("logout: revoking Google token failed",
			slog.String("sub", identity.Sub),
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("revoked Google token", slog.String("sub", identity.Sub))
}

// Profile is what /api/me returns: who the session belongs to and whether a
// Google credential is on file for them.
type Profile struct {
	Sub    string `json:"sub"`
	Email  string `json:"email"`
	Linked bool   `json:"linked"`
}

// GetProfile reports the session identity plus linked state. The extension
// popup uses Linked to decide between "add event" and "authenticate" modes.
func (s *AuthService) GetProfile(ctx context.Context, identity auth.Identity) (*Profile, error) {
	linked, err := s.creds.Exists(ctx, identity.Sub)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking credential for sub %s: %w", identity.Sub, err)
	}
	return &Profile{Sub: identity.Sub, Email: identity.Email, Linked: linked}, nil
}
