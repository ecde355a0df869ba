package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/auth"
	"github.com/rahat/quickcal/internal/service"
)

// tokenPage is rendered on the callback when no frontend URL is configured —
// the extension-popup flow, where the user copies the token manually.
var tokenPage = template.Must(template.New("token").Parse(`<!doctype html>
<html>
<head><title>Signed in</title></head>
<body>
<h2>Signed in with Google</h2>
<p>Copy this token into the extension popup. It is valid for 24 hours.</p>
<pre style="word-break: break-all; white-space: pre-wrap;">{{.Token}}</pre>
</body>
</html>
`))

// AuthHandler drives the Google OAuth login flow.
//
//   - HandleAuthenticate → redirect the browser to Google's consent screen
//   - HandleCallback     → receive the code, exchange it, store the
//     credential, hand the client a session bearer token
//   - HandleLogout       → best-effort revoke of the Google token
//   - HandleMe           → session identity + linked state
type AuthHandler struct {
	google      *auth.GoogleProvider
	authSvc     *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(
	google *auth.GoogleProvider,
	authSvc *service.AuthService,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google:      google,
		authSvc:     authSvc,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// HandleAuthenticate redirects the user to Google's consent screen.
//
// HTTP: GET /api/authenticate
//
// The random state value goes into a short-lived HttpOnly cookie; the
// callback verifies Google echoed it back, which proves the flow started
// here and not on an attacker's page.
func (h *AuthHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	if !h.google.Configured() {
		h.logger.Error("authenticate: Google client configuration missing")
		writeError(w, apperror.Configuration("Google OAuth client is not configured"))
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /oauth2callback?code=xxx&state=yyy
//
// FLOW:
//  1. Verify the state parameter against the cookie (CSRF check)
//  2. Exchange the code for a Google credential + identity
//  3. Store the credential, issue the 24h session bearer token
//  4. Redirect to the frontend with the token, or render it for manual copy
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("callback: missing state cookie")
		writeError(w, apperror.AuthExchange("invalid OAuth state"))
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("callback: state mismatch")
		writeError(w, apperror.AuthExchange("invalid OAuth state"))
		return
	}

	// State is single-use
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	// Google reports user denial via the error query parameter
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("callback: user denied authorization", slog.String("error", errParam))
		h.redirectOrRender(w, r, "", false)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.AuthExchange("missing OAuth code"))
		return
	}

	identity, token, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("callback: code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.AuthExchange("authentication with Google failed"))
		return
	}

	session, err := h.authSvc.CompleteSignIn(r.Context(), *identity, token)
	if err != nil {
		h.logger.Error("callback: completing sign-in failed", slog.String("error", err.Error()))
		writeError(w, fmt.Errorf("completing sign-in: %w", err))
		return
	}

	h.redirectOrRender(w, r, session, true)
}

// redirectOrRender finishes the callback: redirect to the configured
// frontend with the outcome in the query string, or render the token page
// when no frontend exists (extension flow).
func (h *AuthHandler) redirectOrRender(w http.ResponseWriter, r *http.Request, session string, ok bool) {
	if h.frontendURL != "" {
		q := url.Values{}
		q.Set("authenticated", fmt.Sprintf("%t", ok))
		if ok {
			q.Set("token", session)
		}
		http.Redirect(w, r, h.frontendURL+"?"+q.Encode(), http.StatusSeeOther)
		return
	}

	if !ok {
		writeError(w, apperror.AuthExchange("authorization was denied"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tokenPage.Execute(w, struct{ Token string }{Token: session}); err != nil {
		h.logger.Error("callback: rendering token page", slog.String("error", err.Error()))
	}
}

// HandleLogout best-effort revokes the user's Google token.
//
// HTTP: POST /api/logout (OptionalAuth — works with or without a bearer token)
//
// With a valid bearer token we revoke the stored Google credential's access
// token at the provider; without one there is nothing to revoke server-side
// and the client just clears its own state. Either way the stored credential
// row survives (see service.AuthService.Logout).
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		h.authSvc.Logout(r.Context(), identity)
	}

	// A consent flow abandoned mid-way leaves a state cookie behind.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated session's identity and linked state.
//
// HTTP: GET /api/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't crash if miswired.
		writeError(w, apperror.InvalidToken("authentication required"))
		return
	}

	profile, err := h.authSvc.GetProfile(r.Context(), identity)
	if err != nil {
		h.logger.Error("me: loading profile failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
