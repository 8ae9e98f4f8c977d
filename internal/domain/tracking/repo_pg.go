package tracking

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

type trackingRepoPG struct{ pool *pgxpool.Pool }

func NewTrackingRepoPG(pool *pgxpool.Pool) TrackingRepository {
	return &trackingRepoPG{pool: pool}
}

func (r *trackingRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const trackingCols = `id, service_request_id, started_by, room_code, sample_code,
	checked_out_at, checked_out_by, created_at, updated_at`

func (r *trackingRepoPG) scanRow(row pgx.Row) (*TrackingRecord, error) {
	var t TrackingRecord
	err := row.Scan(&t.ID, &t.ServiceRequestID, &t.StartedBy, &t.RoomCode, &t.SampleCode,
		&t.CheckedOutAt, &t.CheckedOutBy, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *trackingRepoPG) Create(ctx context.Context, t *TrackingRecord) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tracking_record (id, service_request_id, started_by, room_code, sample_code)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.ServiceRequestID, t.StartedBy, t.RoomCode, t.SampleCode)
	return err
}

func (r *trackingRepoPG) GetOpenByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (*TrackingRecord, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+trackingCols+` FROM tracking_record
		WHERE service_request_id = $1 AND checked_out_at IS NULL`, serviceRequestID))
}

func (r *trackingRepoPG) Update(ctx context.Context, t *TrackingRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE tracking_record
		SET checked_out_at = $2, checked_out_by = $3, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.CheckedOutAt, t.CheckedOutBy)
	return err
}

func (r *trackingRepoPG) ListByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]*TrackingRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+trackingCols+` FROM tracking_record
		WHERE service_request_id = $1 ORDER BY created_at DESC`, serviceRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TrackingRecord
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}
