// Package auth provides the Google OAuth flow, session bearer tokens, and
// the middleware that guards protected routes.
//
// TWO KINDS OF TOKEN LIVE IN THIS BACKEND — don't confuse them:
//
//   - The Google credential (oauth2.Token): lets US call the Calendar API on
//     the user's behalf. Stored server-side, never shown to the client.
//   - The session bearer token (JWT, this file): lets the CLIENT call us.
//     Self-contained and signed; the client holds it, we store nothing.
//
// WHY A SIGNED, STATELESS SESSION TOKEN?
// The client is a browser extension on a different origin — cookies don't
// travel, so it sends "Authorization: Bearer <jwt>" instead. A signed JWT
// means validation needs no database lookup: the signature proves we issued
// it and the exp claim bounds its life. The flip side: there is no
// revocation list, so a leaked token stays valid until it expires. We keep
// the window at 24 hours.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rahat/quickcal/internal/apperror"
)

// TokenLifetime is how long an issued session token stays valid.
// After expiry the client must re-run the OAuth flow; there is no refresh.
const TokenLifetime = 24 * time.Hour

const issuer = "quickcal"

// TokenService signs and validates session bearer tokens.
// The HMAC secret is fixed at process start; the same secret verifies what
// it signed, so rotating it invalidates all outstanding sessions.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of randomness in production:
// JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// sessionClaims is the JWT payload. The user's stable Google sub goes in the
// standard "sub" claim; email rides along as a private claim so /api/me and
// log lines don't need a database round-trip.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a 24-hour session token for the given identity.
func (s *TokenService) Generate(identity Identity) (string, error) {
	return s.GenerateWithDuration(identity, TokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Exists so tests
// can mint already-expired tokens; production code uses Generate.
func (s *TokenService) GenerateWithDuration(identity Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := sessionClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token string, returning the
// identity it was issued for.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (token wasn't tampered with, secret matches)
//   - Token is not expired
//   - Issuer matches ours (rejects tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm-confusion attacks where an
//     attacker re-signs the token with "none" or a public key)
//
// All failures are reported as apperror.ErrInvalidToken — the middleware
// maps every one of them to 401 without distinguishing, so callers can't
// probe which check failed.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperror.InvalidToken("session token expired")
		}
		return Identity{}, apperror.InvalidToken("invalid session token")
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Identity{}, apperror.InvalidToken("invalid session token claims")
	}
	if c.Subject == "" {
		return Identity{}, apperror.InvalidToken("session token has no subject")
	}

	return Identity{Sub: c.Subject, Email: c.Email}, nil
}
