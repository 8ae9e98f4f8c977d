package hissession

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lis/lis/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepoPG{pool: pool}
}

func (r *sessionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sessionCols = `id, username, session_code, renew_code, expires_at, deleted_at, created_at, updated_at`

func (r *sessionRepoPG) scanRow(row pgx.Row) (*ExternalSession, error) {
	var s ExternalSession
	err := row.Scan(&s.ID, &s.Username, &s.SessionCode, &s.RenewCode,
		&s.ExpiresAt, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sessionRepoPG) Create(ctx context.Context, s *ExternalSession) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO external_session (id, username, session_code, renew_code, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.Username, s.SessionCode, s.RenewCode, s.ExpiresAt)
	return err
}

func (r *sessionRepoPG) GetActiveByUsername(ctx context.Context, username string) (*ExternalSession, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+sessionCols+` FROM external_session
		WHERE username = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC LIMIT 1`, username))
}

func (r *sessionRepoPG) GetActiveByCode(ctx context.Context, sessionCode string) (*ExternalSession, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+sessionCols+` FROM external_session
		WHERE session_code = $1 AND deleted_at IS NULL`, sessionCode))
}

func (r *sessionRepoPG) GetNewestActive(ctx context.Context) (*ExternalSession, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+sessionCols+` FROM external_session
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT 1`))
}

func (r *sessionRepoPG) Update(ctx context.Context, s *ExternalSession) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE external_session
		SET session_code = $2, renew_code = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.SessionCode, s.RenewCode, s.ExpiresAt)
	return err
}

func (r *sessionRepoPG) DeactivateByUsername(ctx context.Context, username string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE external_session SET deleted_at = NOW(), updated_at = NOW()
		WHERE username = $1 AND deleted_at IS NULL`, username)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
