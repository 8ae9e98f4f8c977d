package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/domain/hissession"
	"github.com/lis/lis/internal/domain/order"
	"github.com/lis/lis/internal/domain/tracking"
	"github.com/lis/lis/internal/platform/his"
)

type stubSessions struct {
	sess    *hissession.ExternalSession
	err     error
	gotUser string
}

func (s *stubSessions) GetValid(_ context.Context, username string) (*hissession.ExternalSession, error) {
	s.gotUser = username
	return s.sess, s.err
}

type stubFetcher struct {
	snap    *his.OrderSnapshot
	err     error
	gotCode string
	gotSess string
}

func (s *stubFetcher) GetOrder(_ context.Context, sessionCode, orderCode string) (*his.OrderSnapshot, error) {
	s.gotSess = sessionCode
	s.gotCode = orderCode
	return s.snap, s.err
}

type stubSynchronizer struct {
	result *order.SyncResult
	err    error
	calls  int
}

func (s *stubSynchronizer) Synchronize(_ context.Context, _ *his.OrderSnapshot) (*order.SyncResult, error) {
	s.calls++
	return s.result, s.err
}

type stubTracker struct {
	rec      *tracking.TrackingRecord
	err      error
	gotBy    string
	gotHints tracking.Hints
}

func (s *stubTracker) Start(_ context.Context, _ uuid.UUID, startedBy string, hints tracking.Hints) (*tracking.TrackingRecord, error) {
	s.gotBy = startedBy
	s.gotHints = hints
	return s.rec, s.err
}

func goodSnapshot() *his.OrderSnapshot {
	total := 100.0
	return &his.OrderSnapshot{
		ServiceReqCode: "SR-1",
		TotalAmount:    &total,
		Patient:        his.PatientSnapshot{PatientCode: "P-1", Name: "Jane", DateOfBirth: "19890104000000"},
	}
}

func newOrchestrator(sessions SessionProvider, fetcher OrderFetcher, orders OrderSynchronizer, tracker Tracker) *Orchestrator {
	return NewOrchestrator(sessions, fetcher, orders, tracker, zerolog.Nop())
}

func TestRun_HappyPath(t *testing.T) {
	orderID := uuid.New()
	sessions := &stubSessions{sess: &hissession.ExternalSession{
		Username: "alice", SessionCode: "sess-1", ExpiresAt: time.Now().Add(time.Hour),
	}}
	fetcher := &stubFetcher{snap: goodSnapshot()}
	syncer := &stubSynchronizer{result: &order.SyncResult{
		Order: &order.ServiceRequest{ID: orderID, ServiceReqCode: "SR-1", TotalAmount: 100},
		IsNew: true,
	}}
	tracker := &stubTracker{rec: &tracking.TrackingRecord{ServiceRequestID: orderID}}

	o := newOrchestrator(sessions, fetcher, syncer, tracker)
	hints := tracking.Hints{RoomCode: "LAB-1", SampleCode: "SMP-7"}
	result, err := o.Run(context.Background(), "SR-1", "alice", hints)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Step != StepTracked {
		t.Errorf("step = %q, want %q", result.Step, StepTracked)
	}
	if !result.IsNew || result.Order.TotalAmount != 100 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Tracking == nil {
		t.Error("tracking record missing from result")
	}
	if fetcher.gotSess != "sess-1" || fetcher.gotCode != "SR-1" {
		t.Errorf("fetch used session %q, code %q", fetcher.gotSess, fetcher.gotCode)
	}
	if tracker.gotBy != "alice" {
		t.Errorf("tracking startedBy = %q", tracker.gotBy)
	}
	if tracker.gotHints != hints {
		t.Errorf("tracking hints = %+v, want %+v", tracker.gotHints, hints)
	}
}

func TestRun_NoUsernameUsesSystemSession(t *testing.T) {
	orderID := uuid.New()
	sessions := &stubSessions{sess: &hissession.ExternalSession{
		Username: "system.bob", SessionCode: "sess-sys", ExpiresAt: time.Now().Add(time.Hour),
	}}
	fetcher := &stubFetcher{snap: goodSnapshot()}
	syncer := &stubSynchronizer{result: &order.SyncResult{
		Order: &order.ServiceRequest{ID: orderID, ServiceReqCode: "SR-1"},
	}}
	tracker := &stubTracker{rec: &tracking.TrackingRecord{ServiceRequestID: orderID}}

	o := newOrchestrator(sessions, fetcher, syncer, tracker)
	result, err := o.Run(context.Background(), "SR-1", "", tracking.Hints{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sessions.gotUser != "" {
		t.Errorf("session lookup used username %q, want system-wide", sessions.gotUser)
	}
	if fetcher.gotSess != "sess-sys" {
		t.Errorf("fetch used session %q", fetcher.gotSess)
	}
	if tracker.gotBy != "system.bob" {
		t.Errorf("tracking startedBy = %q, want session owner", tracker.gotBy)
	}
	if result.Step != StepTracked {
		t.Errorf("step = %q, want %q", result.Step, StepTracked)
	}
}

func TestRun_SessionFailureStopsBeforeFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	o := newOrchestrator(&stubSessions{err: hissession.ErrNoActiveSession}, fetcher,
		&stubSynchronizer{}, &stubTracker{})

	result, err := o.Run(context.Background(), "SR-1", "alice", tracking.Hints{})
	if !errors.Is(err, hissession.ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil before the first step", result)
	}
	if fetcher.gotCode != "" {
		t.Error("fetch ran without a session")
	}
}

func TestRun_OrderNotFoundUpstream(t *testing.T) {
	sessions := &stubSessions{sess: &hissession.ExternalSession{SessionCode: "sess-1"}}
	o := newOrchestrator(sessions, &stubFetcher{err: his.ErrOrderNotFound},
		&stubSynchronizer{}, &stubTracker{})

	if _, err := o.Run(context.Background(), "SR-404", "alice", tracking.Hints{}); !errors.Is(err, his.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestRun_SynchronizeFailureReportsFetchedStep(t *testing.T) {
	sessions := &stubSessions{sess: &hissession.ExternalSession{SessionCode: "sess-1"}}
	syncErr := errors.New("db down")
	o := newOrchestrator(sessions, &stubFetcher{snap: goodSnapshot()},
		&stubSynchronizer{err: syncErr}, &stubTracker{})

	result, err := o.Run(context.Background(), "SR-1", "alice", tracking.Hints{})
	if !errors.Is(err, syncErr) {
		t.Fatalf("error = %v", err)
	}
	if result == nil || result.Step != StepFetched {
		t.Errorf("result = %+v, want step %q", result, StepFetched)
	}
}

func TestRun_AlreadyTrackedReportsSynchronizedStep(t *testing.T) {
	orderID := uuid.New()
	sessions := &stubSessions{sess: &hissession.ExternalSession{SessionCode: "sess-1"}}
	syncer := &stubSynchronizer{result: &order.SyncResult{
		Order: &order.ServiceRequest{ID: orderID, ServiceReqCode: "SR-1"},
	}}
	o := newOrchestrator(sessions, &stubFetcher{snap: goodSnapshot()}, syncer,
		&stubTracker{err: tracking.ErrAlreadyTracked})

	result, err := o.Run(context.Background(), "SR-1", "alice", tracking.Hints{})
	if !errors.Is(err, tracking.ErrAlreadyTracked) {
		t.Fatalf("error = %v, want ErrAlreadyTracked", err)
	}
	if result == nil || result.Step != StepSynchronized {
		t.Errorf("result = %+v, want step %q", result, StepSynchronized)
	}
	// The local mirror survives the tracking conflict.
	if result.Order == nil || result.Order.ID != orderID {
		t.Error("synchronized order missing from partial result")
	}
}
