package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByHISUsername(_ context.Context, hisUsername string) (*User, error) {
	for _, u := range m.users {
		if u.HISUsername != nil && *u.HISUsername == hisUsername && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]*User, int, error) {
	var items []*User
	for _, u := range m.users {
		cp := *u
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func TestCreateUser_HashesPassword(t *testing.T) {
	svc := NewService(newMockUserRepo())
	u := &User{Username: "alice", Email: "alice@example.com"}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Error("password was not hashed")
	}
	if u.Role != "user" {
		t.Errorf("role = %q, want default user", u.Role)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc := NewService(newMockUserRepo())
	cases := []struct {
		name string
		u    User
		pw   string
	}{
		{"missing username", User{Email: "a@b.c"}, "pw"},
		{"missing email", User{Username: "alice"}, "pw"},
		{"missing password", User{Username: "alice", Email: "a@b.c"}, ""},
		{"bad role", User{Username: "alice", Email: "a@b.c", Role: "superuser"}, "pw"},
	}
	for _, tc := range cases {
		u := tc.u
		if err := svc.CreateUser(context.Background(), &u, tc.pw); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockUserRepo())
	u := &User{Username: "alice", Email: "alice@example.com"}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q", got.Username)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)
	u := &User{Username: "alice", Email: "alice@example.com"}
	if err := svc.CreateUser(context.Background(), u, "secret123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.users[u.ID].Active = false

	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLookupByExternalUsername(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	his := "his.bob"
	direct := &User{Username: "alice", Email: "alice@example.com"}
	linked := &User{Username: "bob", Email: "bob@example.com", HISUsername: &his, Role: "tech"}
	if err := svc.CreateUser(context.Background(), direct, "pw"); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateUser(context.Background(), linked, "pw"); err != nil {
		t.Fatal(err)
	}

	// Direct username match.
	got, err := svc.LookupByExternalUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("lookup alice: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q", got.Username)
	}

	// Falls back to the stored HIS username.
	got, err = svc.LookupByExternalUsername(context.Background(), "his.bob")
	if err != nil {
		t.Fatalf("lookup his.bob: %v", err)
	}
	if got.Username != "bob" || got.Role != "tech" {
		t.Errorf("unexpected user: %+v", got)
	}

	if _, err := svc.LookupByExternalUsername(context.Background(), "ghost"); err == nil {
		t.Error("expected error for unknown external username")
	}
}
