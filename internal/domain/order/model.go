package order

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest maps to the service_request table, the header of a synced
// lab order. ServiceReqCode is the upstream identifier and the idempotency
// key for synchronization.
type ServiceRequest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ServiceReqCode  string     `db:"service_req_code" json:"service_req_code"`
	Status          string     `db:"status" json:"status"`
	ExternalOrderID *string    `db:"external_order_id" json:"external_order_id,omitempty"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientCode     *string    `db:"patient_code" json:"patient_code,omitempty"`
	PatientName     *string    `db:"patient_name" json:"patient_name,omitempty"`
	InstructionTime *time.Time `db:"instruction_time" json:"instruction_time,omitempty"`
	ICDCode         *string    `db:"icd_code" json:"icd_code,omitempty"`
	ICDName         *string    `db:"icd_name" json:"icd_name,omitempty"`
	ICDText         *string    `db:"icd_text" json:"icd_text,omitempty"`
	Note            *string    `db:"note" json:"note,omitempty"`
	RoomCode        *string    `db:"room_code" json:"room_code,omitempty"`
	RoomName        *string    `db:"room_name" json:"room_name,omitempty"`
	DepartmentCode  *string    `db:"department_code" json:"department_code,omitempty"`
	DepartmentName  *string    `db:"department_name" json:"department_name,omitempty"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	Items []*ServiceRequestItem `db:"-" json:"items,omitempty"`
}

// ServiceRequestItem maps to the service_request_item table, one ordered
// service line. ItemOrder preserves the upstream position, 1-based.
type ServiceRequestItem struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ServiceRequestID uuid.UUID `db:"service_request_id" json:"service_request_id"`
	ServiceCode      string    `db:"service_code" json:"service_code"`
	ServiceName      string    `db:"service_name" json:"service_name"`
	UnitPrice        float64   `db:"unit_price" json:"unit_price"`
	Quantity         int       `db:"quantity" json:"quantity"`
	TotalPrice       float64   `db:"total_price" json:"total_price"`
	Status           *string   `db:"status" json:"status,omitempty"`
	ItemOrder        int       `db:"item_order" json:"item_order"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	Tests []*ServiceRequestItemTest `db:"-" json:"tests,omitempty"`
}

// ServiceRequestItemTest maps to the service_request_item_test table, one
// concrete analyte under an ordered service.
type ServiceRequestItemTest struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	TestCode  string    `db:"test_code" json:"test_code"`
	TestName  string    `db:"test_name" json:"test_name"`
	ShortName *string   `db:"short_name" json:"short_name,omitempty"`
	TestOrder int       `db:"test_order" json:"test_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
