package order

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

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

func (r *orderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const srCols = `id, service_req_code, status, external_order_id, patient_id, patient_code,
	patient_name, instruction_time, icd_code, icd_name, icd_text, note, room_code, room_name,
	department_code, department_name, total_amount, created_at, updated_at`

func (r *orderRepoPG) scanRow(row pgx.Row) (*ServiceRequest, error) {
	var sr ServiceRequest
	err := row.Scan(&sr.ID, &sr.ServiceReqCode, &sr.Status, &sr.ExternalOrderID, &sr.PatientID,
		&sr.PatientCode, &sr.PatientName,
		&sr.InstructionTime, &sr.ICDCode, &sr.ICDName, &sr.ICDText, &sr.Note,
		&sr.RoomCode, &sr.RoomName, &sr.DepartmentCode, &sr.DepartmentName,
		&sr.TotalAmount, &sr.CreatedAt, &sr.UpdatedAt)
	return &sr, err
}

func (r *orderRepoPG) Create(ctx context.Context, sr *ServiceRequest) error {
	sr.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_request (id, service_req_code, status, external_order_id, patient_id,
			patient_code, patient_name, instruction_time, icd_code, icd_name, icd_text, note,
			room_code, room_name, department_code, department_name, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		sr.ID, sr.ServiceReqCode, sr.Status, sr.ExternalOrderID, sr.PatientID,
		sr.PatientCode, sr.PatientName,
		sr.InstructionTime, sr.ICDCode, sr.ICDName, sr.ICDText, sr.Note,
		sr.RoomCode, sr.RoomName, sr.DepartmentCode, sr.DepartmentName, sr.TotalAmount)
	return err
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+srCols+` FROM service_request WHERE id = $1`, id))
}

func (r *orderRepoPG) GetByCode(ctx context.Context, serviceReqCode string) (*ServiceRequest, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+srCols+` FROM service_request WHERE service_req_code = $1`, serviceReqCode))
}

// UpdateHeader rewrites the mutable header fields. Identity fields, the
// service request code and the original patient linkage, are never touched.
func (r *orderRepoPG) UpdateHeader(ctx context.Context, sr *ServiceRequest) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE service_request
		SET status = $2, external_order_id = $3, patient_code = $4, patient_name = $5,
			instruction_time = $6, icd_code = $7, icd_name = $8, icd_text = $9, note = $10,
			room_code = $11, room_name = $12, department_code = $13, department_name = $14,
			total_amount = $15, updated_at = NOW()
		WHERE id = $1`,
		sr.ID, sr.Status, sr.ExternalOrderID, sr.PatientCode, sr.PatientName,
		sr.InstructionTime, sr.ICDCode, sr.ICDName, sr.ICDText, sr.Note,
		sr.RoomCode, sr.RoomName, sr.DepartmentCode, sr.DepartmentName, sr.TotalAmount)
	return err
}

func (r *orderRepoPG) List(ctx context.Context, limit, offset int) ([]*ServiceRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service_request`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+srCols+` FROM service_request
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ServiceRequest
	for rows.Next() {
		sr, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sr)
	}
	return items, total, nil
}

const itemCols = `id, service_request_id, service_code, service_name, unit_price, quantity,
	total_price, status, item_order, created_at`

func (r *orderRepoPG) CreateItem(ctx context.Context, item *ServiceRequestItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_request_item (id, service_request_id, service_code, service_name,
			unit_price, quantity, total_price, status, item_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		item.ID, item.ServiceRequestID, item.ServiceCode, item.ServiceName,
		item.UnitPrice, item.Quantity, item.TotalPrice, item.Status, item.ItemOrder)
	return err
}

func (r *orderRepoPG) CreateItemTest(ctx context.Context, test *ServiceRequestItemTest) error {
	test.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_request_item_test (id, item_id, test_code, test_name, short_name, test_order)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		test.ID, test.ItemID, test.TestCode, test.TestName, test.ShortName, test.TestOrder)
	return err
}

func (r *orderRepoPG) DeleteItems(ctx context.Context, serviceRequestID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM service_request_item WHERE service_request_id = $1`, serviceRequestID)
	return err
}

func (r *orderRepoPG) ListItems(ctx context.Context, serviceRequestID uuid.UUID) ([]*ServiceRequestItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+itemCols+` FROM service_request_item
		WHERE service_request_id = $1 ORDER BY item_order`, serviceRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ServiceRequestItem
	for rows.Next() {
		var it ServiceRequestItem
		if err := rows.Scan(&it.ID, &it.ServiceRequestID, &it.ServiceCode, &it.ServiceName,
			&it.UnitPrice, &it.Quantity, &it.TotalPrice, &it.Status, &it.ItemOrder,
			&it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}

func (r *orderRepoPG) ListItemTests(ctx context.Context, itemID uuid.UUID) ([]*ServiceRequestItemTest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, item_id, test_code, test_name, short_name, test_order, created_at
		FROM service_request_item_test WHERE item_id = $1 ORDER BY test_order`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []*ServiceRequestItemTest
	for rows.Next() {
		var t ServiceRequestItemTest
		if err := rows.Scan(&t.ID, &t.ItemID, &t.TestCode, &t.TestName,
			&t.ShortName, &t.TestOrder, &t.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, &t)
	}
	return tests, nil
}
