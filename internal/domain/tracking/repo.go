package tracking

import (
	"context"

	"github.com/google/uuid"
)

type TrackingRepository interface {
	Create(ctx context.Context, t *TrackingRecord) error
	// GetOpenByServiceRequest returns the open record for the order, or
	// pgx.ErrNoRows when the order is not being tracked.
	GetOpenByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (*TrackingRecord, error)
	Update(ctx context.Context, t *TrackingRecord) error
	ListByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]*TrackingRecord, error)
}
