package admin

import (
	"time"

	"github.com/google/uuid"
)

// Room maps to the room table. Rooms mirror HIS department locations so
// synced orders can reference where the sample was collected.
type Room struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Name           string     `db:"name" json:"name"`
	DepartmentCode *string    `db:"department_code" json:"department_code,omitempty"`
	DepartmentName *string    `db:"department_name" json:"department_name,omitempty"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ResultStatus maps to the result_status table, the workflow states a test
// result moves through.
type ResultStatus struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	Name      string     `db:"name" json:"name"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// LabService maps to the lab_service table, the local catalog of orderable
// services with their list price.
type LabService struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	Name      string     `db:"name" json:"name"`
	ShortName *string    `db:"short_name" json:"short_name,omitempty"`
	UnitPrice float64    `db:"unit_price" json:"unit_price"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
