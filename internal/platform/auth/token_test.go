package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret-key")

func newTestIssuer(ttl time.Duration) *TokenIssuer {
	return NewTokenIssuer(testSecret, "lis-test", ttl)
}

func TestIssueAndVerify(t *testing.T) {
	ti := newTestIssuer(time.Hour)
	tok, err := ti.Issue("u-1", "alice", "alice@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u-1" || claims.Username != "alice" || claims.Role != "user" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	ti := newTestIssuer(-time.Minute)
	tok, err := ti.Issue("u-1", "alice", "", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.Verify(tok); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	ti := newTestIssuer(time.Hour)
	if _, err := ti.Verify("not.a.jwt"); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("error = %v, want ErrTokenMalformed", err)
	}
}

func TestVerify_Missing(t *testing.T) {
	ti := newTestIssuer(time.Hour)
	if _, err := ti.Verify(""); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("error = %v, want ErrTokenMissing", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ti := newTestIssuer(time.Hour)
	tok, err := ti.Issue("u-1", "alice", "", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenIssuer([]byte("different-secret"), "lis-test", time.Hour)
	if _, err := other.Verify(tok); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("error = %v, want ErrTokenMalformed", err)
	}
}
