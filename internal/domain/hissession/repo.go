package hissession

import (
	"context"
)

type SessionRepository interface {
	Create(ctx context.Context, s *ExternalSession) error
	// GetActiveByUsername returns the newest non-deleted session for the
	// user, or pgx.ErrNoRows when none exists.
	GetActiveByUsername(ctx context.Context, username string) (*ExternalSession, error)
	GetActiveByCode(ctx context.Context, sessionCode string) (*ExternalSession, error)
	// GetNewestActive returns the most recently created non-deleted session
	// regardless of user, or pgx.ErrNoRows when none exists.
	GetNewestActive(ctx context.Context) (*ExternalSession, error)
	// Update persists refreshed credentials for an existing session row.
	Update(ctx context.Context, s *ExternalSession) error
	// DeactivateByUsername soft-deletes every active session for the user
	// and returns the number of rows affected.
	DeactivateByUsername(ctx context.Context, username string) (int64, error)
}
