package tracking

import (
	"time"

	"github.com/google/uuid"
)

// TrackingRecord maps to the tracking_record table. An open record (no
// checkout time) means the order is in the lab workflow; at most one open
// record exists per order.
type TrackingRecord struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ServiceRequestID uuid.UUID  `db:"service_request_id" json:"service_request_id"`
	StartedBy        *string    `db:"started_by" json:"started_by,omitempty"`
	RoomCode         *string    `db:"room_code" json:"room_code,omitempty"`
	SampleCode       *string    `db:"sample_code" json:"sample_code,omitempty"`
	CheckedOutAt     *time.Time `db:"checked_out_at" json:"checked_out_at,omitempty"`
	CheckedOutBy     *string    `db:"checked_out_by" json:"checked_out_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (t *TrackingRecord) Open() bool {
	return t.CheckedOutAt == nil
}
