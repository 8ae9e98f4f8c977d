package hissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/platform/his"
)

var (
	// ErrExternalAuth means the upstream system rejected the credentials.
	ErrExternalAuth = errors.New("hissession: external authentication failed")
	// ErrNoActiveSession means the user has never logged in upstream or
	// released their session.
	ErrNoActiveSession = errors.New("hissession: no active session")
	// ErrSessionExpired means the stored session has passed its expiry.
	ErrSessionExpired = errors.New("hissession: session expired")
	// ErrRefreshFailed means the upstream rejected the renewal and the
	// session was deactivated.
	ErrRefreshFailed = errors.New("hissession: session refresh failed")
)

// DefaultRefreshThreshold is how close to expiry a session may get before
// GetValid renews it inline.
const DefaultRefreshThreshold = 5 * time.Minute

// Manager owns the lifecycle of upstream sessions: acquire on login, renew
// near expiry, release on logout. Refresh is synchronous on the calling
// request; concurrent callers near the threshold may each trigger a renewal,
// which the upstream tolerates (the last stored credential wins).
type Manager struct {
	repo      SessionRepository
	gw        his.Gateway
	threshold time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewManager(repo SessionRepository, gw his.Gateway, threshold time.Duration, log zerolog.Logger) *Manager {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return &Manager{
		repo:      repo,
		gw:        gw,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Acquire logs in upstream and stores the resulting session, deactivating
// any previous session the user held.
func (m *Manager) Acquire(ctx context.Context, username, password string) (*ExternalSession, error) {
	upstream, err := m.gw.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, his.ErrAuthRejected) {
			return nil, fmt.Errorf("%w: %v", ErrExternalAuth, err)
		}
		return nil, err
	}

	if _, err := m.repo.DeactivateByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("deactivating prior sessions: %w", err)
	}

	sess := &ExternalSession{
		Username:    username,
		SessionCode: upstream.SessionCode,
		RenewCode:   upstream.RenewCode,
		ExpiresAt:   upstream.ExpiresAt,
	}
	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	m.log.Info().Str("username", username).Time("expires_at", sess.ExpiresAt).
		Msg("external session acquired")
	return sess, nil
}

// GetValid returns a session guaranteed usable for an upstream call. With an
// empty username the newest active session of any user is taken, for flows
// that only need some system credential. A session past its expiry is
// reported expired but kept stored, so repeated calls stay distinguishable
// from never having logged in; it is deactivated only when a renewal fails
// or a new acquire supersedes it. One inside the refresh threshold is
// renewed inline before being returned.
func (m *Manager) GetValid(ctx context.Context, username string) (*ExternalSession, error) {
	var sess *ExternalSession
	var err error
	if username == "" {
		sess, err = m.repo.GetNewestActive(ctx)
	} else {
		sess, err = m.repo.GetActiveByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if username == "" {
				return nil, ErrNoActiveSession
			}
			return nil, fmt.Errorf("%w for %s", ErrNoActiveSession, username)
		}
		return nil, err
	}

	now := m.now()
	if !sess.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w for %s", ErrSessionExpired, sess.Username)
	}

	if sess.ExpiresWithin(now, m.threshold) {
		return m.Refresh(ctx, sess)
	}
	return sess, nil
}

// Refresh renews the session upstream and updates the stored row in place.
// On upstream rejection the session is deactivated so later calls report
// ErrNoActiveSession rather than retrying a dead renew code.
func (m *Manager) Refresh(ctx context.Context, sess *ExternalSession) (*ExternalSession, error) {
	renewed, err := m.gw.Renew(ctx, sess.RenewCode)
	if err != nil {
		m.log.Warn().Str("username", sess.Username).Err(err).
			Msg("session renewal rejected, deactivating")
		if _, derr := m.repo.DeactivateByUsername(ctx, sess.Username); derr != nil {
			return nil, derr
		}
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	sess.SessionCode = renewed.SessionCode
	sess.RenewCode = renewed.RenewCode
	sess.ExpiresAt = renewed.ExpiresAt
	if err := m.repo.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing refreshed session: %w", err)
	}

	m.log.Info().Str("username", sess.Username).Time("expires_at", sess.ExpiresAt).
		Msg("external session refreshed")
	return sess, nil
}

// Release deactivates the user's sessions. Releasing when none is active is
// not an error.
func (m *Manager) Release(ctx context.Context, username string) error {
	n, err := m.repo.DeactivateByUsername(ctx, username)
	if err != nil {
		return err
	}
	if n > 0 {
		m.log.Info().Str("username", username).Int64("sessions", n).
			Msg("external sessions released")
	}
	return nil
}
