package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rahat/quickcal/internal/apperror"
)

// googleRevokeURL is Google's token revocation endpoint (RFC 7009).
const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// Identity is the authenticated Google user, resolved from the ID token
// returned alongside the OAuth credential.
type Identity struct {
	Sub   string // Google's stable user ID ("sub" claim) — never changes
	Email string // best-effort; Google may omit it
}

// GoogleProvider wraps golang.org/x/oauth2 for Google's Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Our server redirects the user to Google's consent screen,
//    with our ClientID and the requested scopes.
// 2. The user approves (or denies) the request on Google.
// 3. Google redirects back to our RedirectURL with a short-lived "code".
// 4. Our server exchanges the code for tokens (server-to-server call).
// 5. The token response carries an ID token identifying the user.
//
// SCOPES AND OFFLINE ACCESS:
// We request the calendar.events scope (insert events on the user's behalf)
// plus openid/email (so the token response includes an ID token). We also
// ask for offline access with forced consent — without prompt=consent Google
// only returns a refresh token on the very first approval, and we need one
// every time because a new completion overwrites the stored blob.
type GoogleProvider struct {
	config    *oauth2.Config
	revokeURL string
	client    *http.Client // used for the revoke call; defaults to http.DefaultClient
}

// NewGoogleProvider creates a GoogleProvider with the given client credentials.
//
// redirectURL must exactly match an authorized redirect URI registered in the
// Google Cloud console, e.g. "https://api.example.com/oauth2callback".
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.events",
				"openid",
				"email",
			},
			Endpoint: google.Endpoint,
		},
		revokeURL: googleRevokeURL,
		client:    http.DefaultClient,
	}
}

// AuthURL returns the consent-screen URL to redirect the user to.
//
// The state is a random value we store in a cookie before redirecting; the
// callback verifies Google echoed it back unchanged. This prevents CSRF
// attacks where an attacker completes an OAuth flow for their own account
// inside the victim's browser session.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for an OAuth token and resolves the
// user's identity from the ID token that rides along with it.
//
// WHY PARSE THE ID TOKEN WITHOUT VERIFYING ITS SIGNATURE?
// The ID token arrives in the same TLS response as the access token, directly
// from Google's token endpoint — it cannot have been substituted in transit.
// Signature verification matters when an ID token is presented BY a client;
// here we fetched it ourselves, so an unverified claims parse is sufficient
// and avoids a JWKS round-trip.
//
// A token response with no usable ID token is rejected rather than mapped to
// a sentinel "unknown" user: distinct real users collapsing onto one stored
// credential row is strictly worse than asking the user to authenticate again.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, *oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperror.ErrAuthExchange, err)
	}

	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		return nil, nil, apperror.AuthExchange("token response contained no id_token")
	}

	identity, err := parseIdentity(rawID)
	if err != nil {
		return nil, nil, apperror.AuthExchange("could not resolve identity from id_token")
	}

	return identity, token, nil
}

// idClaims is the slice of Google's ID token payload we care about.
type idClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func parseIdentity(rawIDToken string) (*Identity, error) {
	var claims idClaims
	// ParseUnverified decodes header and claims without checking the
	// signature — see the Exchange doc comment for why that is acceptable.
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, &claims); err != nil {
		return nil, fmt.Errorf("auth: parsing id_token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth: id_token has no sub claim")
	}
	return &Identity{Sub: claims.Subject, Email: claims.Email}, nil
}

// TokenSource returns a refreshing token source for a previously stored
// token. The calendar layer uses this so expired access tokens are renewed
// transparently with the stored refresh token.
func (p *GoogleProvider) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return p.config.TokenSource(ctx, token)
}

// Configured reports whether the provider has a usable client configuration.
func (p *GoogleProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != "" && p.config.RedirectURL != ""
}

// Revoke tells Google to invalidate the given token (access or refresh).
// Revoking either member of a token pair revokes the whole grant.
//
// Callers treat failure as non-fatal: logout is best-effort and the stored
// credential row is left intact either way.
func (p *GoogleProvider) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: revoke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: revoke endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
