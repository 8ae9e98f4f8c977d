package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/domain/hissession"
	"github.com/lis/lis/internal/domain/order"
	"github.com/lis/lis/internal/domain/tracking"
	"github.com/lis/lis/internal/platform/his"
)

// Steps a save-to-local run moves through. The result carries the last step
// completed so a partial run is diagnosable; completed steps are never
// rolled back.
const (
	StepFetched      = "fetched"
	StepSynchronized = "synchronized"
	StepTracked      = "tracked"
)

type SessionProvider interface {
	GetValid(ctx context.Context, username string) (*hissession.ExternalSession, error)
}

type OrderFetcher interface {
	GetOrder(ctx context.Context, sessionCode, orderCode string) (*his.OrderSnapshot, error)
}

type OrderSynchronizer interface {
	Synchronize(ctx context.Context, snap *his.OrderSnapshot) (*order.SyncResult, error)
}

type Tracker interface {
	Start(ctx context.Context, serviceRequestID uuid.UUID, startedBy string, hints tracking.Hints) (*tracking.TrackingRecord, error)
}

// Result is the composed view of a completed (or partially completed)
// save-to-local run.
type Result struct {
	Step     string                   `json:"step"`
	Order    *order.ServiceRequest    `json:"order,omitempty"`
	IsNew    bool                     `json:"is_new"`
	Tracking *tracking.TrackingRecord `json:"tracking,omitempty"`
}

// Orchestrator pulls one order from the upstream system, mirrors it locally,
// and opens its lab tracking record.
type Orchestrator struct {
	sessions SessionProvider
	fetcher  OrderFetcher
	orders   OrderSynchronizer
	tracker  Tracker
	log      zerolog.Logger
}

func NewOrchestrator(sessions SessionProvider, fetcher OrderFetcher, orders OrderSynchronizer, tracker Tracker, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		fetcher:  fetcher,
		orders:   orders,
		tracker:  tracker,
		log:      log,
	}
}

// Run executes fetch, synchronize, track for one order code using the
// session of the given upstream username, or the newest system session when
// no username is supplied. Each step builds on the previous one and a
// failure stops the run where it is; the synchronize step is idempotent, so
// a rerun after a tracking failure converges.
func (o *Orchestrator) Run(ctx context.Context, orderCode, username string, hints tracking.Hints) (*Result, error) {
	if orderCode == "" {
		return nil, fmt.Errorf("order code is required")
	}

	sess, err := o.sessions.GetValid(ctx, username)
	if err != nil {
		return nil, err
	}
	if username == "" {
		username = sess.Username
	}

	snap, err := o.fetcher.GetOrder(ctx, sess.SessionCode, orderCode)
	if err != nil {
		return nil, err
	}
	result := &Result{Step: StepFetched}

	syncRes, err := o.orders.Synchronize(ctx, snap)
	if err != nil {
		return result, err
	}
	result.Step = StepSynchronized
	result.Order = syncRes.Order
	result.IsNew = syncRes.IsNew

	rec, err := o.tracker.Start(ctx, syncRes.Order.ID, username, hints)
	if err != nil {
		return result, err
	}
	result.Step = StepTracked
	result.Tracking = rec

	o.log.Info().Str("order_code", orderCode).Str("username", username).
		Bool("is_new", result.IsNew).Msg("order saved to local")
	return result, nil
}
