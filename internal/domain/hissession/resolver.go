package hissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lis/lis/internal/platform/auth"
)

// DirectoryUser is the slice of a local account the resolver needs.
type DirectoryUser struct {
	ID       uuid.UUID
	Username string
	Email    string
	Role     string
}

// UserDirectory finds the local account tied to an upstream username,
// matching the local username first and the stored HIS username second.
type UserDirectory interface {
	LookupByExternalUsername(ctx context.Context, username string) (*DirectoryUser, error)
}

// PrincipalResolver turns an opaque session code into an authenticated
// principal. It satisfies auth.ExternalValidator.
type PrincipalResolver struct {
	repo  SessionRepository
	users UserDirectory
	now   func() time.Time
}

func NewPrincipalResolver(repo SessionRepository, users UserDirectory) *PrincipalResolver {
	return &PrincipalResolver{repo: repo, users: users, now: time.Now}
}

func (r *PrincipalResolver) ValidateSessionCode(ctx context.Context, code string) (*auth.Principal, error) {
	sess, err := r.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	if !sess.ExpiresAt.After(r.now()) {
		return nil, fmt.Errorf("%w for %s", ErrSessionExpired, sess.Username)
	}

	p := &auth.Principal{
		Role:             "user",
		ExternalUsername: sess.Username,
		Session: &auth.ExternalSession{
			ID:          sess.ID.String(),
			Username:    sess.Username,
			SessionCode: sess.SessionCode,
			ExpiresAt:   sess.ExpiresAt,
		},
	}

	// A matching local account enriches the principal; its absence does
	// not block the session, the upstream already vouched for the user.
	if u, err := r.users.LookupByExternalUsername(ctx, sess.Username); err == nil {
		p.UserID = u.ID.String()
		p.Username = u.Username
		p.Email = u.Email
		if u.Role != "" {
			p.Role = u.Role
		}
	}
	return p, nil
}
