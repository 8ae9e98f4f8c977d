package patient

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

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, patient_code, name, date_of_birth, national_id, national_id_issue_date,
	national_id_issue_place, address, gender_id, gender_name, external_id,
	deleted_at, created_at, updated_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientCode, &p.Name, &p.DateOfBirth, &p.NationalID,
		&p.NationalIDIssueDate, &p.NationalIDIssuePlace, &p.Address,
		&p.GenderID, &p.GenderName, &p.ExternalID,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lis_patient (id, patient_code, name, date_of_birth, national_id,
			national_id_issue_date, national_id_issue_place, address,
			gender_id, gender_name, external_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.PatientCode, p.Name, p.DateOfBirth, p.NationalID,
		p.NationalIDIssueDate, p.NationalIDIssuePlace, p.Address,
		p.GenderID, p.GenderName, p.ExternalID)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+` FROM lis_patient WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *patientRepoPG) GetByCode(ctx context.Context, patientCode string) (*Patient, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+` FROM lis_patient
		WHERE patient_code = $1 AND deleted_at IS NULL`, patientCode))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lis_patient
		SET name = $2, date_of_birth = $3, national_id = $4, national_id_issue_date = $5,
			national_id_issue_place = $6, address = $7, gender_id = $8, gender_name = $9,
			external_id = $10, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.DateOfBirth, p.NationalID, p.NationalIDIssueDate,
		p.NationalIDIssuePlace, p.Address, p.GenderID, p.GenderName, p.ExternalID)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lis_patient SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM lis_patient WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM lis_patient WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
