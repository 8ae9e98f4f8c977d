package hissession

import (
	"time"

	"github.com/google/uuid"
)

// ExternalSession maps to the external_session table. One row per login
// against the hospital information system. Sessions are soft-deleted on
// release or replacement so past credentials remain auditable.
type ExternalSession struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Username    string     `db:"username" json:"username"`
	SessionCode string     `db:"session_code" json:"session_code"`
	RenewCode   string     `db:"renew_code" json:"-"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the session has not been released or replaced.
// Expiry is a separate concern checked against a clock by the manager.
func (s *ExternalSession) Active() bool {
	return s.DeletedAt == nil
}

// ExpiresWithin reports whether the session expires before now+window.
func (s *ExternalSession) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !s.ExpiresAt.After(now.Add(window))
}
