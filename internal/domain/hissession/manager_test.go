package hissession

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/platform/his"
)

type mockSessionRepo struct {
	sessions map[uuid.UUID]*ExternalSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[uuid.UUID]*ExternalSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *ExternalSession) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) GetActiveByUsername(_ context.Context, username string) (*ExternalSession, error) {
	var newest *ExternalSession
	for _, s := range m.sessions {
		if s.Username == username && s.DeletedAt == nil {
			if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
				newest = s
			}
		}
	}
	if newest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *newest
	return &cp, nil
}

func (m *mockSessionRepo) GetActiveByCode(_ context.Context, code string) (*ExternalSession, error) {
	for _, s := range m.sessions {
		if s.SessionCode == code && s.DeletedAt == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSessionRepo) GetNewestActive(_ context.Context) (*ExternalSession, error) {
	var newest *ExternalSession
	for _, s := range m.sessions {
		if s.DeletedAt == nil {
			if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
				newest = s
			}
		}
	}
	if newest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *newest
	return &cp, nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *ExternalSession) error {
	stored, ok := m.sessions[s.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.SessionCode = s.SessionCode
	stored.RenewCode = s.RenewCode
	stored.ExpiresAt = s.ExpiresAt
	return nil
}

func (m *mockSessionRepo) DeactivateByUsername(_ context.Context, username string) (int64, error) {
	var n int64
	now := time.Now()
	for _, s := range m.sessions {
		if s.Username == username && s.DeletedAt == nil {
			s.DeletedAt = &now
			n++
		}
	}
	return n, nil
}

type stubGateway struct {
	loginResult *his.Session
	loginErr    error
	renewResult *his.Session
	renewErr    error
	renewCalls  int
}

func (g *stubGateway) Login(_ context.Context, username, _ string) (*his.Session, error) {
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	r := *g.loginResult
	r.Username = username
	return &r, nil
}

func (g *stubGateway) Renew(_ context.Context, _ string) (*his.Session, error) {
	g.renewCalls++
	if g.renewErr != nil {
		return nil, g.renewErr
	}
	r := *g.renewResult
	return &r, nil
}

func (g *stubGateway) GetOrder(_ context.Context, _, _ string) (*his.OrderSnapshot, error) {
	return nil, his.ErrOrderNotFound
}

func (g *stubGateway) CallAPI(_ context.Context, _ string, _ interface{}, _ string) (json.RawMessage, error) {
	return nil, nil
}

func newTestManager(repo SessionRepository, gw his.Gateway, now time.Time) *Manager {
	m := NewManager(repo, gw, DefaultRefreshThreshold, zerolog.Nop())
	m.now = func() time.Time { return now }
	return m
}

func TestAcquire_DeactivatesPriorSession(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	gw := &stubGateway{loginResult: &his.Session{
		SessionCode: "new-code", RenewCode: "new-renew", ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(repo, gw, now)

	old := &ExternalSession{Username: "alice", SessionCode: "old-code", ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(context.Background(), old); err != nil {
		t.Fatal(err)
	}

	sess, err := m.Acquire(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if sess.SessionCode != "new-code" {
		t.Errorf("sessionCode = %q", sess.SessionCode)
	}

	active, err := repo.GetActiveByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.SessionCode != "new-code" {
		t.Errorf("active session = %q, old session was not deactivated", active.SessionCode)
	}
}

func TestAcquire_UpstreamRejection(t *testing.T) {
	repo := newMockSessionRepo()
	gw := &stubGateway{loginErr: his.ErrAuthRejected}
	m := newTestManager(repo, gw, time.Now())

	if _, err := m.Acquire(context.Background(), "alice", "wrong"); !errors.Is(err, ErrExternalAuth) {
		t.Errorf("error = %v, want ErrExternalAuth", err)
	}
	if len(repo.sessions) != 0 {
		t.Error("rejected login stored a session")
	}
}

func TestGetValid_NoSession(t *testing.T) {
	m := newTestManager(newMockSessionRepo(), &stubGateway{}, time.Now())
	if _, err := m.GetValid(context.Background(), "nobody"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("error = %v, want ErrNoActiveSession", err)
	}
}

func TestGetValid_FreshSessionReturnedAsIs(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	gw := &stubGateway{}
	m := newTestManager(repo, gw, now)

	sess := &ExternalSession{Username: "alice", SessionCode: "code-1", ExpiresAt: now.Add(time.Hour)}
	repo.Create(context.Background(), sess)

	got, err := m.GetValid(context.Background(), "alice")
	if err != nil {
		t.Fatalf("getValid: %v", err)
	}
	if got.SessionCode != "code-1" {
		t.Errorf("sessionCode = %q", got.SessionCode)
	}
	if gw.renewCalls != 0 {
		t.Errorf("fresh session triggered %d renewals", gw.renewCalls)
	}
}

func TestGetValid_ExpiredSessionKeepsReporting(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	m := newTestManager(repo, &stubGateway{}, now)

	sess := &ExternalSession{Username: "alice", SessionCode: "code-1", ExpiresAt: now.Add(-time.Second)}
	repo.Create(context.Background(), sess)

	if _, err := m.GetValid(context.Background(), "alice"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error = %v, want ErrSessionExpired", err)
	}
	// The row survives: a second call still says expired, not missing.
	if _, err := m.GetValid(context.Background(), "alice"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("second call error = %v, want ErrSessionExpired", err)
	}
}

func TestGetValid_AnyUserSession(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	m := newTestManager(repo, &stubGateway{}, now)

	older := &ExternalSession{Username: "alice", SessionCode: "code-a", ExpiresAt: now.Add(time.Hour)}
	repo.Create(context.Background(), older)
	older.CreatedAt = now.Add(-time.Minute)
	repo.sessions[older.ID].CreatedAt = older.CreatedAt
	newer := &ExternalSession{Username: "bob", SessionCode: "code-b", ExpiresAt: now.Add(time.Hour)}
	repo.Create(context.Background(), newer)
	repo.sessions[newer.ID].CreatedAt = now

	got, err := m.GetValid(context.Background(), "")
	if err != nil {
		t.Fatalf("getValid: %v", err)
	}
	if got.SessionCode != "code-b" {
		t.Errorf("sessionCode = %q, want newest active code-b", got.SessionCode)
	}
}

func TestGetValid_AnyUserNoSession(t *testing.T) {
	m := newTestManager(newMockSessionRepo(), &stubGateway{}, time.Now())
	if _, err := m.GetValid(context.Background(), ""); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("error = %v, want ErrNoActiveSession", err)
	}
}

func TestGetValid_WithinThresholdTriggersRefresh(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	gw := &stubGateway{renewResult: &his.Session{
		SessionCode: "refreshed", RenewCode: "renew-2", ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(repo, gw, now)

	// One second inside the threshold.
	sess := &ExternalSession{
		Username: "alice", SessionCode: "code-1", RenewCode: "renew-1",
		ExpiresAt: now.Add(DefaultRefreshThreshold - time.Second),
	}
	repo.Create(context.Background(), sess)

	got, err := m.GetValid(context.Background(), "alice")
	if err != nil {
		t.Fatalf("getValid: %v", err)
	}
	if gw.renewCalls != 1 {
		t.Errorf("renewCalls = %d, want 1", gw.renewCalls)
	}
	if got.SessionCode != "refreshed" {
		t.Errorf("sessionCode = %q, want refreshed", got.SessionCode)
	}

	stored, err := repo.GetActiveByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if stored.SessionCode != "refreshed" || stored.RenewCode != "renew-2" {
		t.Errorf("refresh not persisted: %+v", stored)
	}
}

func TestGetValid_RefreshFailureDeactivates(t *testing.T) {
	repo := newMockSessionRepo()
	now := time.Now()
	gw := &stubGateway{renewErr: his.ErrRenewRejected}
	m := newTestManager(repo, gw, now)

	sess := &ExternalSession{
		Username: "alice", SessionCode: "code-1", RenewCode: "renew-1",
		ExpiresAt: now.Add(time.Minute),
	}
	repo.Create(context.Background(), sess)

	if _, err := m.GetValid(context.Background(), "alice"); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("error = %v, want ErrRefreshFailed", err)
	}
	if _, err := m.GetValid(context.Background(), "alice"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("after failed refresh error = %v, want ErrNoActiveSession", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	repo := newMockSessionRepo()
	m := newTestManager(repo, &stubGateway{}, time.Now())

	sess := &ExternalSession{Username: "alice", SessionCode: "code-1", ExpiresAt: time.Now().Add(time.Hour)}
	repo.Create(context.Background(), sess)

	if err := m.Release(context.Background(), "alice"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := m.Release(context.Background(), "alice"); err != nil {
		t.Errorf("second release: %v", err)
	}
	if err := m.Release(context.Background(), "nobody"); err != nil {
		t.Errorf("release with no session: %v", err)
	}
}
