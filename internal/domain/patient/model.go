package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the lis_patient table. PatientCode is the upstream
// identifier orders refer to and is unique among non-deleted rows.
type Patient struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	PatientCode          string     `db:"patient_code" json:"patient_code"`
	Name                 string     `db:"name" json:"name"`
	DateOfBirth          time.Time  `db:"date_of_birth" json:"date_of_birth"`
	NationalID           *string    `db:"national_id" json:"national_id,omitempty"`
	NationalIDIssueDate  *time.Time `db:"national_id_issue_date" json:"national_id_issue_date,omitempty"`
	NationalIDIssuePlace *string    `db:"national_id_issue_place" json:"national_id_issue_place,omitempty"`
	Address              *string    `db:"address" json:"address,omitempty"`
	GenderID             *int       `db:"gender_id" json:"gender_id,omitempty"`
	GenderName           *string    `db:"gender_name" json:"gender_name,omitempty"`
	ExternalID           *string    `db:"external_id" json:"external_id,omitempty"`
	DeletedAt            *time.Time `db:"deleted_at" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}
