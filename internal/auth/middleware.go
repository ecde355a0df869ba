package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rahat/quickcal/internal/apperror"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write the
// identity value — no other package can collide with or shadow it.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces bearer authentication on protected routes.
//
// It reads the "Authorization: Bearer <jwt>" header, validates the token,
// and stores the resolved identity in the request context. Missing header,
// malformed token, bad signature, expired — all get the same 401 and the
// handler chain stops.
//
// WHY A HEADER AND NOT A COOKIE?
// The clients are a browser extension and a frontend on a different origin.
// Cookies are scoped to our origin and wouldn't be sent cross-origin without
// wide-open CORS credentials; an explicit header is simpler and matches how
// the extension stores the token.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_token","message":"valid bearer token required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the identity if a valid bearer token is present but
// never blocks the request. Used on logout, which works best-effort: with a
// token we can revoke the user's Google credential, without one we just
// redirect.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by the
// middleware. Returns (zero, false) on anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Sub != ""
}

func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Identity{}, apperror.InvalidToken("missing bearer token")
	}
	return tokens.Validate(strings.TrimSpace(raw))
}
