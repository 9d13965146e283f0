package requisition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/pkg/logger"
)

// Config holds workflow policy settings.
type Config struct {
	// AllowOverReceipt permits receiving more than a line requested.
	// Real-world deliveries include overages, so the default is true;
	// the overage is recorded as-is either way.
	AllowOverReceipt bool
}

// DefaultConfig returns the documented default policy.
func DefaultConfig() Config {
	return Config{AllowOverReceipt: true}
}

// Service drives the requisition workflow. Receipts create lots through the
// lot ledger; the workflow itself never touches quantities directly.
type Service struct {
	repo      Repository
	items     *storeitem.Service
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
	cfg       Config
}

// NewService creates a new requisition service.
func NewService(
	repo Repository,
	items *storeitem.Service,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	txManager tx.Manager,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		ledger:    ledgerSvc,
		numerator: gen,
		txManager: txManager,
		cfg:       cfg,
	}
}

// CreateInput describes a new requisition.
type CreateInput struct {
	StoreID      id.ID
	Requester    string
	Priority     Priority
	RequiredDate *time.Time
	Note         string
	Lines        []LineInput
}

// LineInput is one requested item.
type LineInput struct {
	MasterItemID      id.ID
	Quantity          types.Quantity
	EstimatedUnitCost types.Money
	Note              string
}

// Create persists a new requisition in created state with a date-scoped
// number. Fails with EmptyRequisition when no lines are given.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Requisition, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewEmptyRequisition()
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	now := time.Now().UTC()
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PR"), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate requisition number: %w", err)
	}

	req := &Requisition{
		ID:           id.New(),
		Number:       number,
		StoreID:      in.StoreID,
		Requester:    in.Requester,
		Priority:     priority,
		RequiredDate: in.RequiredDate,
		Status:       StatusCreated,
		Note:         in.Note,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, line := range in.Lines {
		req.Lines = append(req.Lines, Line{
			ID:                id.New(),
			RequisitionID:     req.ID,
			MasterItemID:      line.MasterItemID,
			RequestedQuantity: line.Quantity,
			EstimatedUnitCost: line.EstimatedUnitCost,
			Note:              line.Note,
		})
	}

	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("create requisition: %w", err)
	}

	logger.Info(ctx, "requisition created",
		"id", req.ID,
		"number", req.Number,
		"store_id", req.StoreID,
		"lines", len(req.Lines))
	return req, nil
}

// Submit moves a created requisition to ordered, making it eligible for
// receipts. The direct-to-supplier flow has no separate approval gate.
func (s *Service) Submit(ctx context.Context, reqID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, reqID)
		if err != nil {
			return err
		}
		if req.Status != StatusCreated {
			return apperror.NewInvalidRequisitionState(string(req.Status), "submit")
		}
		if err := s.repo.UpdateStatus(ctx, reqID, StatusOrdered); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		logger.Info(ctx, "requisition submitted", "id", reqID, "number", req.Number)
		return nil
	})
}

// ReceiveInput describes one supplier delivery against a requisition.
type ReceiveInput struct {
	RequisitionID id.ID

	// OrderReference is the supplier-side order number. Mandatory: it is
	// the sole link between the internal requisition and the external
	// purchase.
	OrderReference string

	Supplier     string
	ReceivedDate time.Time
	Lines        []ReceiptLine
}

// ReceiptLine is the received quantity and actual cost for one line.
type ReceiptLine struct {
	RequisitionLineID id.ID
	Quantity          types.Quantity
	UnitCost          types.Money
}

// ReceiptRecord reports one lot created by a receipt.
type ReceiptRecord struct {
	RequisitionLineID id.ID          `json:"requisitionLineId"`
	LotID             id.ID          `json:"lotId"`
	LotNumber         string         `json:"lotNumber"`
	Quantity          types.Quantity `json:"quantity"`
}

// ReceiveResult is the outcome of one receipt.
type ReceiveResult struct {
	Status         Status          `json:"status"`
	OrderReference string          `json:"orderReference"`
	Receipts       []ReceiptRecord `json:"receipts"`
}

// Receive processes a supplier delivery: resolves the order reference and
// destination store items, creates a lot per line through the ledger, bumps
// line received quantities, and recomputes the requisition status.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	orderRef := strings.TrimSpace(in.OrderReference)
	if orderRef == "" {
		return nil, apperror.NewMissingOrderReference()
	}
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("receipt must contain at least one line")
	}

	receivedDate := in.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = time.Now().UTC()
	}

	var result *ReceiveResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, in.RequisitionID)
		if err != nil {
			return err
		}
		if err := req.CanReceive(); err != nil {
			return err
		}

		// Validate every receipt line before any ledger write. Quantities
		// are accumulated per requisition line, so several entries citing
		// the same line are policed on their combined total.
		totals := make(map[id.ID]types.Quantity, len(in.Lines))
		for _, rl := range in.Lines {
			line := req.lineByID(rl.RequisitionLineID)
			if line == nil {
				return apperror.NewNotFound("requisition line", rl.RequisitionLineID)
			}
			if !rl.Quantity.IsPositive() {
				return apperror.NewInvalidQuantity("quantity", rl.Quantity.String())
			}
			totals[line.ID] += rl.Quantity
			if !s.cfg.AllowOverReceipt && totals[line.ID] > line.Outstanding() {
				return apperror.NewValidation("received quantity exceeds outstanding quantity").
					WithDetail("line_id", line.ID).
					WithDetail("outstanding", line.Outstanding().String()).
					WithDetail("received", totals[line.ID].String())
			}
		}

		if err := s.ensureOrderReference(ctx, req.ID, orderRef, in.Supplier); err != nil {
			return err
		}

		receipts := make([]ReceiptRecord, 0, len(in.Lines))
		for _, rl := range in.Lines {
			line := req.lineByID(rl.RequisitionLineID)

			item, err := s.items.Ensure(ctx, req.StoreID, line.MasterItemID)
			if err != nil {
				return err
			}

			cost := rl.UnitCost
			if cost.IsZero() {
				cost = line.EstimatedUnitCost
			}

			lot, err := s.ledger.CreateLot(ctx, ledger.CreateLotInput{
				StoreItemID:  item.ID,
				Quantity:     rl.Quantity,
				UnitCost:     cost,
				ReceivedDate: receivedDate,
				Provenance:   entity.RequisitionProvenance(req.ID, orderRef, in.Supplier),
			})
			if err != nil {
				return err
			}

			if err := s.repo.AddLineReceived(ctx, line.ID, rl.Quantity); err != nil {
				return fmt.Errorf("update line received: %w", err)
			}
			line.ReceivedQuantity += rl.Quantity

			receipts = append(receipts, ReceiptRecord{
				RequisitionLineID: line.ID,
				LotID:             lot.ID,
				LotNumber:         lot.LotNumber,
				Quantity:          rl.Quantity,
			})
		}

		status := req.RecomputeStatus()
		if err := s.repo.UpdateStatus(ctx, req.ID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		result = &ReceiveResult{
			Status:         status,
			OrderReference: orderRef,
			Receipts:       receipts,
		}

		logger.Info(ctx, "requisition receipt processed",
			"id", req.ID,
			"number", req.Number,
			"order_reference", orderRef,
			"lines", len(receipts),
			"status", status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureOrderReference resolves or lazily creates the order reference row
// for (requisition, supplier order number).
func (s *Service) ensureOrderReference(ctx context.Context, reqID id.ID, number, supplier string) error {
	_, err := s.repo.GetOrderReference(ctx, reqID, number)
	if err == nil {
		return nil
	}
	if !apperror.IsNotFound(err) {
		return fmt.Errorf("resolve order reference: %w", err)
	}

	ref := &OrderReference{
		ID:            id.New(),
		RequisitionID: reqID,
		Number:        number,
		Supplier:      supplier,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateOrderReference(ctx, ref); err != nil {
		return fmt.Errorf("create order reference: %w", err)
	}
	return nil
}

// Cancel marks the requisition cancelled. Legal from created, ordered and
// partially received states; lots created by earlier receipts stay.
func (s *Service) Cancel(ctx context.Context, reqID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, reqID)
		if err != nil {
			return err
		}
		if err := req.CanCancel(); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, reqID, StatusCancelled); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		logger.Info(ctx, "requisition cancelled", "id", reqID, "number", req.Number)
		return nil
	})
}

// GetByID retrieves a requisition with lines.
func (s *Service) GetByID(ctx context.Context, reqID id.ID) (*Requisition, error) {
	return s.repo.GetByID(ctx, reqID)
}

// List retrieves requisitions with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Requisition, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// OrderReferences lists the external purchase orders accumulated by a
// requisition's receipts.
func (s *Service) OrderReferences(ctx context.Context, reqID id.ID) ([]OrderReference, error) {
	return s.repo.ListOrderReferences(ctx, reqID)
}

// ListDue returns open requisitions due within the given number of days
// (negative horizon days list overdue ones). Consumed by delivery alerting.
func (s *Service) ListDue(ctx context.Context, storeID *id.ID, days int) ([]*Requisition, error) {
	horizon := time.Now().UTC().AddDate(0, 0, days)
	return s.repo.ListDue(ctx, storeID, horizon)
}

func (r *Requisition) lineByID(lineID id.ID) *Line {
	for i := range r.Lines {
		if r.Lines[i].ID == lineID {
			return &r.Lines[i]
		}
	}
	return nil
}
