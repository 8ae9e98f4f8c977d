package order

import (
	"context"

	"github.com/google/uuid"
)

type OrderRepository interface {
	Create(ctx context.Context, sr *ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)
	GetByCode(ctx context.Context, serviceReqCode string) (*ServiceRequest, error)
	// UpdateHeader rewrites the order header without touching items.
	UpdateHeader(ctx context.Context, sr *ServiceRequest) error
	List(ctx context.Context, limit, offset int) ([]*ServiceRequest, int, error)

	CreateItem(ctx context.Context, item *ServiceRequestItem) error
	CreateItemTest(ctx context.Context, test *ServiceRequestItemTest) error
	// DeleteItems removes every item of the request; tests cascade.
	DeleteItems(ctx context.Context, serviceRequestID uuid.UUID) error
	ListItems(ctx context.Context, serviceRequestID uuid.UUID) ([]*ServiceRequestItem, error)
	ListItemTests(ctx context.Context, itemID uuid.UUID) ([]*ServiceRequestItemTest, error)
}
