package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/domain/admin"
	"github.com/lis/lis/internal/domain/patient"
	"github.com/lis/lis/internal/platform/db"
	"github.com/lis/lis/internal/platform/his"
)

// ErrOrderExists is returned when a direct create collides with an already
// stored service request code.
var ErrOrderExists = errors.New("order: order already exists")

// PatientResolver maps an upstream patient snapshot to a local patient.
type PatientResolver interface {
	Resolve(ctx context.Context, snap his.PatientSnapshot) (*patient.Patient, error)
}

// ServiceCatalog prices order items whose snapshot carries no unit price.
type ServiceCatalog interface {
	GetLabServiceByCode(ctx context.Context, code string) (*admin.LabService, error)
}

// SyncResult reports what Synchronize did with a snapshot.
type SyncResult struct {
	Order *ServiceRequest `json:"order"`
	IsNew bool            `json:"is_new"`
}

// BulkResult aggregates a multi-order synchronization run. Failures are
// captured per order code; one bad order never aborts the rest.
type BulkResult struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Errors     map[string]string `json:"errors,omitempty"`
}

type Service struct {
	repo     OrderRepository
	patients PatientResolver
	catalog  ServiceCatalog
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(repo OrderRepository, patients PatientResolver, catalog ServiceCatalog, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, catalog: catalog, tx: tx, log: log}
}

// Synchronize upserts one upstream order. The patient is resolved, the
// header is created or rewritten, and the item tree is replaced wholesale,
// all inside a single transaction. Replaying the same snapshot converges on
// the same stored state.
func (s *Service) Synchronize(ctx context.Context, snap *his.OrderSnapshot) (*SyncResult, error) {
	if snap == nil || snap.ServiceReqCode == "" {
		return nil, fmt.Errorf("serviceReqCode is required")
	}

	var result SyncResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Resolve(ctx, snap.Patient)
		if err != nil {
			return err
		}

		sr, items, err := s.buildAggregate(ctx, snap)
		if err != nil {
			return err
		}
		sr.PatientID = p.ID
		setOpt(&sr.PatientCode, p.PatientCode)
		setOpt(&sr.PatientName, p.Name)

		existing, err := s.repo.GetByCode(ctx, snap.ServiceReqCode)
		switch {
		case err == nil:
			sr.ID = existing.ID
			sr.CreatedAt = existing.CreatedAt
			// Identity fields stay as first synchronized; the resolved
			// patient only refreshes the display fields.
			sr.PatientID = existing.PatientID
			if err := s.repo.UpdateHeader(ctx, sr); err != nil {
				return fmt.Errorf("updating order header: %w", err)
			}
			if err := s.repo.DeleteItems(ctx, sr.ID); err != nil {
				return fmt.Errorf("clearing order items: %w", err)
			}
		case errors.Is(err, pgx.ErrNoRows):
			if err := s.repo.Create(ctx, sr); err != nil {
				return fmt.Errorf("creating order: %w", err)
			}
			result.IsNew = true
		default:
			return err
		}

		for _, item := range items {
			item.ServiceRequestID = sr.ID
			if err := s.repo.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating item %s: %w", item.ServiceCode, err)
			}
			for _, test := range item.Tests {
				test.ItemID = item.ID
				if err := s.repo.CreateItemTest(ctx, test); err != nil {
					return fmt.Errorf("creating test %s: %w", test.TestCode, err)
				}
			}
		}

		sr.Items = items
		result.Order = sr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("service_req_code", result.Order.ServiceReqCode).
		Bool("is_new", result.IsNew).Int("items", len(result.Order.Items)).
		Msg("order synchronized")
	return &result, nil
}

// buildAggregate turns a snapshot into storable rows, filling the defaults
// the upstream leaves implicit: quantity 1, line total from quantity and
// unit price, order total from the line totals, 1-based positions.
func (s *Service) buildAggregate(ctx context.Context, snap *his.OrderSnapshot) (*ServiceRequest, []*ServiceRequestItem, error) {
	sr := &ServiceRequest{
		ServiceReqCode: snap.ServiceReqCode,
		Status:         snap.Status,
	}
	if sr.Status == "" {
		sr.Status = "active"
	}
	setOpt(&sr.ExternalOrderID, snap.ExternalOrderID)
	setOpt(&sr.ICDCode, snap.ICDCode)
	setOpt(&sr.ICDName, snap.ICDName)
	setOpt(&sr.ICDText, snap.ICDText)
	setOpt(&sr.Note, snap.Note)
	setOpt(&sr.RoomCode, snap.RoomCode)
	setOpt(&sr.RoomName, snap.RoomName)
	setOpt(&sr.DepartmentCode, snap.DepartmentCode)
	setOpt(&sr.DepartmentName, snap.DepartmentName)

	if snap.InstructionTime != nil {
		if ts, err := his.DecodeTimestamp(snap.InstructionTime); err == nil {
			sr.InstructionTime = &ts
		} else {
			s.log.Debug().Str("service_req_code", snap.ServiceReqCode).Err(err).
				Msg("dropping undecodable instruction time")
		}
	}

	var items []*ServiceRequestItem
	var computedTotal float64
	for i, is := range snap.Items {
		if is.ServiceCode == "" {
			return nil, nil, fmt.Errorf("item %d: service code is required", i+1)
		}

		item := &ServiceRequestItem{
			ServiceCode: is.ServiceCode,
			ServiceName: is.ServiceName,
			Quantity:    1,
			ItemOrder:   i + 1,
		}
		if is.Quantity != nil && *is.Quantity > 0 {
			item.Quantity = *is.Quantity
		}
		if is.ItemOrder != nil && *is.ItemOrder > 0 {
			item.ItemOrder = *is.ItemOrder
		}
		setOpt(&item.Status, is.Status)

		switch {
		case is.UnitPrice != nil:
			item.UnitPrice = *is.UnitPrice
		case s.catalog != nil:
			if ls, err := s.catalog.GetLabServiceByCode(ctx, is.ServiceCode); err == nil {
				item.UnitPrice = ls.UnitPrice
			}
		}
		if is.TotalPrice != nil {
			item.TotalPrice = *is.TotalPrice
		} else {
			item.TotalPrice = float64(item.Quantity) * item.UnitPrice
		}
		computedTotal += item.TotalPrice

		for j, ts := range is.Tests {
			test := &ServiceRequestItemTest{
				TestCode:  ts.TestCode,
				TestName:  ts.TestName,
				TestOrder: j + 1,
			}
			if ts.TestOrder != nil && *ts.TestOrder > 0 {
				test.TestOrder = *ts.TestOrder
			}
			setOpt(&test.ShortName, ts.ShortName)
			item.Tests = append(item.Tests, test)
		}
		items = append(items, item)
	}

	if snap.TotalAmount != nil {
		sr.TotalAmount = *snap.TotalAmount
	} else {
		sr.TotalAmount = computedTotal
	}
	return sr, items, nil
}

func setOpt(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}

// BulkSynchronize runs Synchronize per snapshot, each in its own
// transaction, and collects the failures keyed by order code.
func (s *Service) BulkSynchronize(ctx context.Context, snaps []*his.OrderSnapshot) *BulkResult {
	result := &BulkResult{Total: len(snaps), Errors: make(map[string]string)}
	for i, snap := range snaps {
		if _, err := s.Synchronize(ctx, snap); err != nil {
			result.Failed++
			key := fmt.Sprintf("#%d", i+1)
			if snap != nil && snap.ServiceReqCode != "" {
				key = snap.ServiceReqCode
			}
			result.Errors[key] = err.Error()
			continue
		}
		result.Successful++
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}

// Create stores an order authored locally rather than synced. A known
// service request code is a conflict, not an upsert.
func (s *Service) Create(ctx context.Context, snap *his.OrderSnapshot) (*ServiceRequest, error) {
	if snap == nil || snap.ServiceReqCode == "" {
		return nil, fmt.Errorf("serviceReqCode is required")
	}
	if _, err := s.repo.GetByCode(ctx, snap.ServiceReqCode); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderExists, snap.ServiceReqCode)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	result, err := s.Synchronize(ctx, snap)
	if err != nil {
		return nil, err
	}
	return result.Order, nil
}

// GetByCode returns the full aggregate: header, items, and tests.
func (s *Service) GetByCode(ctx context.Context, serviceReqCode string) (*ServiceRequest, error) {
	sr, err := s.repo.GetByCode(ctx, serviceReqCode)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, sr.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		tests, err := s.repo.ListItemTests(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		item.Tests = tests
	}
	sr.Items = items
	return sr, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ServiceRequest, int, error) {
	return s.repo.List(ctx, limit, offset)
}
