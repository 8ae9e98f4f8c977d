package admin

import (
	"context"

	"github.com/google/uuid"
)

type RoomRepository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	GetByCode(ctx context.Context, code string) (*Room, error)
	Update(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Room, int, error)
}

type ResultStatusRepository interface {
	Create(ctx context.Context, rs *ResultStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*ResultStatus, error)
	Update(ctx context.Context, rs *ResultStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*ResultStatus, int, error)
}

type LabServiceRepository interface {
	Create(ctx context.Context, ls *LabService) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabService, error)
	GetByCode(ctx context.Context, code string) (*LabService, error)
	Update(ctx context.Context, ls *LabService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*LabService, int, error)
}
