package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type mockTrackingRepo struct {
	records map[uuid.UUID]*TrackingRecord
}

func newMockTrackingRepo() *mockTrackingRepo {
	return &mockTrackingRepo{records: make(map[uuid.UUID]*TrackingRecord)}
}

func (m *mockTrackingRepo) Create(_ context.Context, t *TrackingRecord) error {
	t.ID = uuid.New()
	cp := *t
	m.records[t.ID] = &cp
	return nil
}

func (m *mockTrackingRepo) GetOpenByServiceRequest(_ context.Context, srID uuid.UUID) (*TrackingRecord, error) {
	for _, t := range m.records {
		if t.ServiceRequestID == srID && t.CheckedOutAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTrackingRepo) Update(_ context.Context, t *TrackingRecord) error {
	if _, ok := m.records[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	m.records[t.ID] = &cp
	return nil
}

func (m *mockTrackingRepo) ListByServiceRequest(_ context.Context, srID uuid.UUID) ([]*TrackingRecord, error) {
	var items []*TrackingRecord
	for _, t := range m.records {
		if t.ServiceRequestID == srID {
			cp := *t
			items = append(items, &cp)
		}
	}
	return items, nil
}

func TestStart_RejectsSecondOpenRecord(t *testing.T) {
	svc := NewService(newMockTrackingRepo(), zerolog.Nop())
	orderID := uuid.New()

	if _, err := svc.Start(context.Background(), orderID, "alice", Hints{}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := svc.Start(context.Background(), orderID, "bob", Hints{}); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("second start error = %v, want ErrAlreadyTracked", err)
	}
}

func TestStart_AllowedAfterCheckout(t *testing.T) {
	svc := NewService(newMockTrackingRepo(), zerolog.Nop())
	orderID := uuid.New()

	if _, err := svc.Start(context.Background(), orderID, "alice", Hints{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.CheckOut(context.Background(), orderID, "alice"); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := svc.Start(context.Background(), orderID, "bob", Hints{}); err != nil {
		t.Errorf("restart after checkout: %v", err)
	}
}

func TestStart_StoresHints(t *testing.T) {
	repo := newMockTrackingRepo()
	svc := NewService(repo, zerolog.Nop())
	orderID := uuid.New()

	rec, err := svc.Start(context.Background(), orderID, "alice", Hints{RoomCode: "LAB-2", SampleCode: "SMP-9"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.RoomCode == nil || *rec.RoomCode != "LAB-2" {
		t.Errorf("room code = %v, want LAB-2", rec.RoomCode)
	}
	if rec.SampleCode == nil || *rec.SampleCode != "SMP-9" {
		t.Errorf("sample code = %v, want SMP-9", rec.SampleCode)
	}
	stored := repo.records[rec.ID]
	if stored.RoomCode == nil || stored.SampleCode == nil {
		t.Error("hints not persisted on the record")
	}
}

func TestCheckOut_NotTracked(t *testing.T) {
	svc := NewService(newMockTrackingRepo(), zerolog.Nop())
	if _, err := svc.CheckOut(context.Background(), uuid.New(), "alice"); !errors.Is(err, ErrNotTracked) {
		t.Errorf("error = %v, want ErrNotTracked", err)
	}
}

func TestHasOpen(t *testing.T) {
	svc := NewService(newMockTrackingRepo(), zerolog.Nop())
	orderID := uuid.New()

	open, err := svc.HasOpen(context.Background(), orderID)
	if err != nil || open {
		t.Errorf("before start: open = %v, err = %v", open, err)
	}

	if _, err := svc.Start(context.Background(), orderID, "", Hints{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	open, err = svc.HasOpen(context.Background(), orderID)
	if err != nil || !open {
		t.Errorf("after start: open = %v, err = %v", open, err)
	}
}
