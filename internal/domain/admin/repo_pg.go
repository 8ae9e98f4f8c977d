package admin

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Rooms --

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository {
	return &roomRepoPG{pool: pool}
}

const roomCols = `id, code, name, department_code, department_name, deleted_at, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.DepartmentCode, &r.DepartmentName,
		&r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (rp *roomRepoPG) Create(ctx context.Context, r *Room) error {
	r.ID = uuid.New()
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		INSERT INTO room (id, code, name, department_code, department_name)
		VALUES ($1,$2,$3,$4,$5)`,
		r.ID, r.Code, r.Name, r.DepartmentCode, r.DepartmentName)
	return err
}

func (rp *roomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT `+roomCols+` FROM room WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (rp *roomRepoPG) GetByCode(ctx context.Context, code string) (*Room, error) {
	return scanRoom(conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT `+roomCols+` FROM room WHERE code = $1 AND deleted_at IS NULL`, code))
}

func (rp *roomRepoPG) Update(ctx context.Context, r *Room) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE room SET name = $2, department_code = $3, department_name = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		r.ID, r.Name, r.DepartmentCode, r.DepartmentName)
	return err
}

func (rp *roomRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE room SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (rp *roomRepoPG) List(ctx context.Context, limit, offset int) ([]*Room, int, error) {
	var total int
	if err := conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM room WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, rp.pool).Query(ctx, `
		SELECT `+roomCols+` FROM room WHERE deleted_at IS NULL
		ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, nil
}

// -- Result statuses --

type resultStatusRepoPG struct{ pool *pgxpool.Pool }

func NewResultStatusRepoPG(pool *pgxpool.Pool) ResultStatusRepository {
	return &resultStatusRepoPG{pool: pool}
}

const resultStatusCols = `id, code, name, sort_order, deleted_at, created_at, updated_at`

func scanResultStatus(row pgx.Row) (*ResultStatus, error) {
	var rs ResultStatus
	err := row.Scan(&rs.ID, &rs.Code, &rs.Name, &rs.SortOrder,
		&rs.DeletedAt, &rs.CreatedAt, &rs.UpdatedAt)
	return &rs, err
}

func (rp *resultStatusRepoPG) Create(ctx context.Context, rs *ResultStatus) error {
	rs.ID = uuid.New()
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		INSERT INTO result_status (id, code, name, sort_order)
		VALUES ($1,$2,$3,$4)`,
		rs.ID, rs.Code, rs.Name, rs.SortOrder)
	return err
}

func (rp *resultStatusRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ResultStatus, error) {
	return scanResultStatus(conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT `+resultStatusCols+` FROM result_status WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (rp *resultStatusRepoPG) Update(ctx context.Context, rs *ResultStatus) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE result_status SET name = $2, sort_order = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		rs.ID, rs.Name, rs.SortOrder)
	return err
}

func (rp *resultStatusRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE result_status SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (rp *resultStatusRepoPG) List(ctx context.Context, limit, offset int) ([]*ResultStatus, int, error) {
	var total int
	if err := conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM result_status WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, rp.pool).Query(ctx, `
		SELECT `+resultStatusCols+` FROM result_status WHERE deleted_at IS NULL
		ORDER BY sort_order LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ResultStatus
	for rows.Next() {
		rs, err := scanResultStatus(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rs)
	}
	return items, total, nil
}

// -- Lab services --

type labServiceRepoPG struct{ pool *pgxpool.Pool }

func NewLabServiceRepoPG(pool *pgxpool.Pool) LabServiceRepository {
	return &labServiceRepoPG{pool: pool}
}

const labServiceCols = `id, code, name, short_name, unit_price, deleted_at, created_at, updated_at`

func scanLabService(row pgx.Row) (*LabService, error) {
	var ls LabService
	err := row.Scan(&ls.ID, &ls.Code, &ls.Name, &ls.ShortName, &ls.UnitPrice,
		&ls.DeletedAt, &ls.CreatedAt, &ls.UpdatedAt)
	return &ls, err
}

func (rp *labServiceRepoPG) Create(ctx context.Context, ls *LabService) error {
	ls.ID = uuid.New()
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		INSERT INTO lab_service (id, code, name, short_name, unit_price)
		VALUES ($1,$2,$3,$4,$5)`,
		ls.ID, ls.Code, ls.Name, ls.ShortName, ls.UnitPrice)
	return err
}

func (rp *labServiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabService, error) {
	return scanLabService(conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT `+labServiceCols+` FROM lab_service WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (rp *labServiceRepoPG) GetByCode(ctx context.Context, code string) (*LabService, error) {
	return scanLabService(conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT `+labServiceCols+` FROM lab_service WHERE code = $1 AND deleted_at IS NULL`, code))
}

func (rp *labServiceRepoPG) Update(ctx context.Context, ls *LabService) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE lab_service SET name = $2, short_name = $3, unit_price = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		ls.ID, ls.Name, ls.ShortName, ls.UnitPrice)
	return err
}

func (rp *labServiceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, rp.pool).Exec(ctx, `
		UPDATE lab_service SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (rp *labServiceRepoPG) List(ctx context.Context, limit, offset int) ([]*LabService, int, error) {
	var total int
	if err := conn(ctx, rp.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM lab_service WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, rp.pool).Query(ctx, `
		SELECT `+labServiceCols+` FROM lab_service WHERE deleted_at IS NULL
		ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabService
	for rows.Next() {
		ls, err := scanLabService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ls)
	}
	return items, total, nil
}
