package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/model"
	"github.com/rahat/quickcal/internal/repository"
)

// compile-time check that *DB implements repository.CredentialRepository
var _ repository.CredentialRepository = (*DB)(nil)

// Save inserts or overwrites the credential row for cred.Sub.
//
// ON CONFLICT DO UPDATE (not INSERT OR REPLACE): REPLACE deletes the old row
// and inserts a new one, which resets the rowid and would fire any ON DELETE
// triggers. The upsert form updates in place and is the documented SQLite
// idiom for "last write wins" — which is exactly the semantics we want when
// two OAuth completions for the same user race.
func (db *DB) Save(ctx context.Context, cred *model.Credential) error {
	cred.UpdatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_creds (sub, email, creds_json, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(sub) DO UPDATE SET
		   email      = excluded.email,
		   creds_json = excluded.creds_json,
		   updated_at = excluded.updated_at`,
		cred.Sub,
		cred.Email,
		cred.TokenJSON,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving credential for sub %s: %w", cred.Sub, err)
	}

	return nil
}

// Get returns the stored credential for sub.
// Returns apperror.ErrNotLinked if the user has never completed the OAuth
// flow — callers surface that as 401, not as a storage failure.
func (db *DB) Get(ctx context.Context, sub string) (*model.Credential, error) {
	var c model.Credential

	err := db.conn.QueryRowContext(ctx,
		`SELECT sub, email, creds_json, updated_at FROM user_creds WHERE sub = ?`,
		sub,
	).Scan(
		&c.Sub,
		&c.Email,
		&c.TokenJSON,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotLinked(sub)
		}
		return nil, fmt.Errorf("sqlite: getting credential for sub %s: %w", sub, err)
	}

	return &c, nil
}

// Exists reports whether a credential row exists for sub without loading the
// token blob. Used by /api/me so the frontend can show "linked" state.
func (db *DB) Exists(ctx context.Context, sub string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_creds WHERE sub = ?`, sub,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking credential for sub %s: %w", sub, err)
	}
	return n > 0, nil
}
