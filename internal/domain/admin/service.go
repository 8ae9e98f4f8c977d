package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	rooms    RoomRepository
	statuses ResultStatusRepository
	services LabServiceRepository
}

func NewService(rooms RoomRepository, statuses ResultStatusRepository, services LabServiceRepository) *Service {
	return &Service{rooms: rooms, statuses: statuses, services: services}
}

func (s *Service) CreateRoom(ctx context.Context, r *Room) error {
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.rooms.Create(ctx, r)
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) UpdateRoom(ctx context.Context, r *Room) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.rooms.Update(ctx, r)
}

func (s *Service) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	return s.rooms.Delete(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context, limit, offset int) ([]*Room, int, error) {
	return s.rooms.List(ctx, limit, offset)
}

func (s *Service) CreateResultStatus(ctx context.Context, rs *ResultStatus) error {
	if rs.Code == "" {
		return fmt.Errorf("code is required")
	}
	if rs.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.statuses.Create(ctx, rs)
}

func (s *Service) GetResultStatus(ctx context.Context, id uuid.UUID) (*ResultStatus, error) {
	return s.statuses.GetByID(ctx, id)
}

func (s *Service) UpdateResultStatus(ctx context.Context, rs *ResultStatus) error {
	if rs.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.statuses.Update(ctx, rs)
}

func (s *Service) DeleteResultStatus(ctx context.Context, id uuid.UUID) error {
	return s.statuses.Delete(ctx, id)
}

func (s *Service) ListResultStatuses(ctx context.Context, limit, offset int) ([]*ResultStatus, int, error) {
	return s.statuses.List(ctx, limit, offset)
}

func (s *Service) CreateLabService(ctx context.Context, ls *LabService) error {
	if ls.Code == "" {
		return fmt.Errorf("code is required")
	}
	if ls.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ls.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}
	return s.services.Create(ctx, ls)
}

func (s *Service) GetLabService(ctx context.Context, id uuid.UUID) (*LabService, error) {
	return s.services.GetByID(ctx, id)
}

// GetLabServiceByCode serves price lookups during order synchronization.
func (s *Service) GetLabServiceByCode(ctx context.Context, code string) (*LabService, error) {
	return s.services.GetByCode(ctx, code)
}

func (s *Service) UpdateLabService(ctx context.Context, ls *LabService) error {
	if ls.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ls.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}
	return s.services.Update(ctx, ls)
}

func (s *Service) DeleteLabService(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListLabServices(ctx context.Context, limit, offset int) ([]*LabService, int, error) {
	return s.services.List(ctx, limit, offset)
}
