// Package repository declares the storage interfaces the services depend on.
//
// Services receive these interfaces, never the concrete sqlite types —
// tests substitute in-memory fakes without touching a database.
package repository

import (
	"context"

	"github.com/rahat/quickcal/internal/model"
)

// CredentialRepository persists one OAuth credential blob per user.
//
// Save has upsert semantics: completing the OAuth flow twice for the same
// sub overwrites the stored blob (last write wins, no history). Concurrent
// saves for the same sub are resolved by the database, not by locking here.
type CredentialRepository interface {
	Save(ctx context.Context, cred *model.Credential) error
	Get(ctx context.Context, sub string) (*model.Credential, error)
	Exists(ctx context.Context, sub string) (bool, error)
}
