package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyTracked means the order already has an open tracking
	// record.
	ErrAlreadyTracked = errors.New("tracking: order already tracked")
	// ErrNotTracked means a checkout was requested for an order with no
	// open record.
	ErrNotTracked = errors.New("tracking: order not tracked")
)

type Service struct {
	repo TrackingRepository
	log  zerolog.Logger
}

func NewService(repo TrackingRepository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Hints are the caller-supplied workflow attributes recorded on the record
// at start time.
type Hints struct {
	RoomCode   string `json:"room_code"`
	SampleCode string `json:"sample_code"`
}

// Start opens a tracking record for the order. A second start while one is
// open is rejected; past, checked-out records do not block a new start.
func (s *Service) Start(ctx context.Context, serviceRequestID uuid.UUID, startedBy string, hints Hints) (*TrackingRecord, error) {
	_, err := s.repo.GetOpenByServiceRequest(ctx, serviceRequestID)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyTracked, serviceRequestID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	t := &TrackingRecord{ServiceRequestID: serviceRequestID}
	if startedBy != "" {
		t.StartedBy = &startedBy
	}
	if hints.RoomCode != "" {
		t.RoomCode = &hints.RoomCode
	}
	if hints.SampleCode != "" {
		t.SampleCode = &hints.SampleCode
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("starting tracking: %w", err)
	}
	s.log.Info().Str("service_request_id", serviceRequestID.String()).Msg("tracking started")
	return t, nil
}

// HasOpen reports whether the order is currently tracked.
func (s *Service) HasOpen(ctx context.Context, serviceRequestID uuid.UUID) (bool, error) {
	_, err := s.repo.GetOpenByServiceRequest(ctx, serviceRequestID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// CheckOut closes the open record for the order.
func (s *Service) CheckOut(ctx context.Context, serviceRequestID uuid.UUID, checkedOutBy string) (*TrackingRecord, error) {
	t, err := s.repo.GetOpenByServiceRequest(ctx, serviceRequestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotTracked, serviceRequestID)
		}
		return nil, err
	}

	now := time.Now()
	t.CheckedOutAt = &now
	if checkedOutBy != "" {
		t.CheckedOutBy = &checkedOutBy
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("checking out tracking: %w", err)
	}
	s.log.Info().Str("service_request_id", serviceRequestID.String()).Msg("tracking checked out")
	return t, nil
}

// History lists every tracking record of the order, newest first.
func (s *Service) History(ctx context.Context, serviceRequestID uuid.UUID) ([]*TrackingRecord, error) {
	return s.repo.ListByServiceRequest(ctx, serviceRequestID)
}
