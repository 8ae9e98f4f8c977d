package identity

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the lis_user table. HISUsername ties the local account to the
// hospital information system login when the two differ.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FullName     *string    `db:"full_name" json:"full_name,omitempty"`
	Role         string     `db:"role" json:"role"`
	HISUsername  *string    `db:"his_username" json:"his_username,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
