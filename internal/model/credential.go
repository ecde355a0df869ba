// Package model defines the data structures used throughout the application.
package model

import "time"

// Credential is one user's stored Google OAuth token material.
//
// We key on Google's stable subject identifier (the "sub" claim of the ID
// token) rather than minting our own IDs: this backend never shows users to
// each other, so there is no reason to hide the provider's numbering, and a
// single natural key gives us the at-most-one-row-per-user invariant for
// free via the primary key.
//
// TokenJSON is an opaque serialized oauth2.Token (access token, refresh
// token, expiry, token type). The repository never looks inside it; only
// the calendar layer deserializes it. A new OAuth completion for the same
// sub overwrites the previous blob — no history is kept.
type Credential struct {
	Sub       string    `json:"sub"       db:"sub"`        // Google's stable user ID
	Email     string    `json:"email"     db:"email"`      // best-effort, may be empty
	TokenJSON string    `json:"-"         db:"creds_json"` // serialized oauth2.Token, never sent to clients
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
