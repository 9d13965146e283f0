package ledger

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/apperror"
	appctx "storeroom/internal/core/context"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/pkg/logger"
)

// Service provides the lot ledger operations. All mutations run inside a
// transaction with the owning store item's row locked, so concurrent
// read-check-write sequences on the same item serialize and the cached
// balance can never drift from the lots.
type Service struct {
	lots      Repository
	items     storeitem.Repository
	numerator numerator.Generator
	txManager tx.Manager
	events    EventPublisher
}

// NewService creates a new lot ledger service.
func NewService(
	lots Repository,
	items storeitem.Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	events EventPublisher,
) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		lots:      lots,
		items:     items,
		numerator: gen,
		txManager: txManager,
		events:    events,
	}
}

// CreateLotInput describes a stock receipt into one store item.
type CreateLotInput struct {
	StoreItemID  id.ID
	Quantity     types.Quantity
	UnitCost     types.Money
	ReceivedDate time.Time // zero value means now
	Provenance   entity.Provenance

	// Kind of the movement appended for the receipt. Zero value means
	// receive; transfers pass transfer_in.
	Kind entity.MovementKind

	// CounterpartStoreID is set on transfer receipts.
	CounterpartStoreID *id.ID
}

// CreateLot creates a lot with remaining quantity equal to the received
// quantity, increments the owning store item's cached balance, and appends
// the receipt movement - all in one atomic unit.
func (s *Service) CreateLot(ctx context.Context, in CreateLotInput) (*Lot, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewInvalidQuantity("quantity", in.Quantity.String())
	}
	if in.UnitCost.IsNegative() {
		return nil, apperror.NewValidation("unit cost must not be negative").
			WithDetail("unit_cost", in.UnitCost.String())
	}
	// Supplier receipts must carry a real cost. Adjustment lots may be
	// synthetic zero-cost; transfer legs inherit the average cost of the
	// consumed source lots, which is authoritative whatever its value.
	if in.UnitCost.IsZero() && in.Provenance.Kind == entity.ProvenanceRequisition {
		return nil, apperror.NewValidation("unit cost must be positive").
			WithDetail("unit_cost", in.UnitCost.String())
	}

	received := in.ReceivedDate
	if received.IsZero() {
		received = time.Now().UTC()
	}

	// Lot numbers come from a dedicated counter; gaps are acceptable, so
	// the number is allocated outside the business transaction.
	lotNumber, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LOT"),
		&numerator.Options{Strategy: numerator.StrategyCached}, received)
	if err != nil {
		return nil, fmt.Errorf("generate lot number: %w", err)
	}

	lot := &Lot{
		ID:                id.New(),
		StoreItemID:       in.StoreItemID,
		LotNumber:         lotNumber,
		Quantity:          in.Quantity,
		UnitCost:          in.UnitCost,
		RemainingQuantity: in.Quantity,
		Status:            LotActive,
		ReceivedDate:      received,
		Provenance:        in.Provenance,
		CreatedAt:         time.Now().UTC(),
	}

	kind := in.Kind
	if kind == "" {
		kind = entity.MovementReceive
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetForUpdate(ctx, in.StoreItemID)
		if err != nil {
			return err
		}

		if err := s.lots.CreateLot(ctx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}

		if err := s.items.AdjustQuantity(ctx, item.ID, in.Quantity); err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}

		movement := entity.NewStockMovement(
			item.StoreID, item.ID, &lot.ID,
			kind, in.Quantity, in.UnitCost,
			in.Provenance, appctx.GetActorName(ctx),
		)
		if in.CounterpartStoreID != nil {
			movement = movement.WithCounterpart(*in.CounterpartStoreID)
		}

		if err := s.lots.AppendMovements(ctx, []entity.StockMovement{movement}); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		if err := s.events.PublishMovements(ctx, []entity.StockMovement{movement}); err != nil {
			return fmt.Errorf("publish movement: %w", err)
		}

		return s.checkBalance(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "lot created",
		"lot_id", lot.ID,
		"lot_number", lot.LotNumber,
		"store_item_id", in.StoreItemID,
		"quantity", in.Quantity,
		"unit_cost", in.UnitCost)

	return lot, nil
}

// ConsumeInput describes an outbound movement against one store item.
type ConsumeInput struct {
	StoreItemID id.ID
	Quantity    types.Quantity
	Provenance  entity.Provenance

	// Kind of the movements appended for the consumption. Zero value
	// means pick; adjustments pass adjust, transfers pass transfer_out.
	Kind entity.MovementKind

	// CounterpartStoreID is set on transfer issues.
	CounterpartStoreID *id.ID
}

// ConsumeFIFO consumes stock oldest lot first until the requested quantity
// is satisfied. Lots whose remaining quantity reaches exactly zero become
// depleted. When active lots cannot cover the request the operation fails
// with InsufficientStock and nothing is mutated.
func (s *Service) ConsumeFIFO(ctx context.Context, in ConsumeInput) (Consumption, error) {
	var result Consumption

	if !in.Quantity.IsPositive() {
		return result, apperror.NewInvalidQuantity("quantity", in.Quantity.String())
	}

	kind := in.Kind
	if kind == "" {
		kind = entity.MovementPick
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetForUpdate(ctx, in.StoreItemID)
		if err != nil {
			return err
		}

		lots, err := s.lots.GetActiveLotsForUpdate(ctx, in.StoreItemID)
		if err != nil {
			return fmt.Errorf("load active lots: %w", err)
		}

		// Compute the full plan before any write: the availability check
		// and the greedy oldest-first walk.
		plan, err := planConsumption(item, lots, in.Quantity)
		if err != nil {
			return err
		}
		result = plan

		actor := appctx.GetActorName(ctx)
		movements := make([]entity.StockMovement, 0, len(plan.ConsumedLots))

		for i := range lots {
			lot := &lots[i]
			var consumed *ConsumedLot
			for j := range plan.ConsumedLots {
				if plan.ConsumedLots[j].LotID == lot.ID {
					consumed = &plan.ConsumedLots[j]
					break
				}
			}
			if consumed == nil {
				continue
			}

			lot.Consume(consumed.Quantity)
			if err := s.lots.UpdateLotConsumption(ctx, lot.ID, lot.RemainingQuantity, lot.Status); err != nil {
				return fmt.Errorf("update lot %s: %w", lot.LotNumber, err)
			}

			movement := entity.NewStockMovement(
				item.StoreID, item.ID, &lot.ID,
				kind, consumed.Quantity.Neg(), lot.UnitCost,
				in.Provenance, actor,
			)
			if in.CounterpartStoreID != nil {
				movement = movement.WithCounterpart(*in.CounterpartStoreID)
			}
			movements = append(movements, movement)
		}

		if err := s.items.AdjustQuantity(ctx, item.ID, in.Quantity.Neg()); err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}

		if err := s.lots.AppendMovements(ctx, movements); err != nil {
			return fmt.Errorf("append movements: %w", err)
		}

		if err := s.events.PublishMovements(ctx, movements); err != nil {
			return fmt.Errorf("publish movements: %w", err)
		}

		return s.checkBalance(ctx, item.ID)
	})
	if err != nil {
		return Consumption{}, err
	}

	logger.Info(ctx, "stock consumed",
		"store_item_id", in.StoreItemID,
		"quantity", in.Quantity,
		"kind", kind,
		"total_cost", result.TotalCost,
		"lots", len(result.ConsumedLots))

	return result, nil
}

// planConsumption walks active lots oldest first and builds the per-lot
// breakdown. Lots arrive ordered by received date, id ascending.
func planConsumption(item *storeitem.StoreItem, lots []Lot, qty types.Quantity) (Consumption, error) {
	var available types.Quantity
	for i := range lots {
		available += lots[i].RemainingQuantity
	}
	if available < qty {
		return Consumption{}, apperror.NewInsufficientStock(
			item.ID.String(), qty.String(), available.String())
	}

	plan := Consumption{TotalCost: types.Zero()}
	remaining := qty

	for i := range lots {
		if remaining.IsZero() {
			break
		}
		take := remaining.Min(lots[i].RemainingQuantity)
		if !take.IsPositive() {
			continue
		}

		plan.ConsumedLots = append(plan.ConsumedLots, ConsumedLot{
			LotID:    lots[i].ID,
			Quantity: take,
			UnitCost: lots[i].UnitCost,
		})
		plan.TotalCost = plan.TotalCost.Add(lots[i].UnitCost.Mul(take.Decimal()))
		remaining -= take
	}

	// Average is computed once from the summed total, not by averaging
	// per-lot averages.
	plan.AverageUnitCost = plan.TotalCost.Div(qty.Decimal())

	return plan, nil
}

// AdjustDirect applies a signed manual correction: positive adjustments
// create a synthetic lot (zero cost unless one is supplied), negative
// adjustments consume FIFO. Either way the movement log records an adjust
// entry.
func (s *Service) AdjustDirect(ctx context.Context, storeItemID id.ID, signedQty types.Quantity, unitCost *types.Money, reason string) error {
	if signedQty.IsZero() {
		return apperror.NewInvalidQuantity("quantity", signedQty.String())
	}

	prov := entity.AdjustmentProvenance(id.New())

	if signedQty.IsPositive() {
		cost := types.Zero()
		if unitCost != nil {
			cost = *unitCost
		}
		_, err := s.CreateLot(ctx, CreateLotInput{
			StoreItemID: storeItemID,
			Quantity:    signedQty,
			UnitCost:    cost,
			Provenance:  prov,
			Kind:        entity.MovementAdjust,
		})
		if err != nil {
			return err
		}
	} else {
		_, err := s.ConsumeFIFO(ctx, ConsumeInput{
			StoreItemID: storeItemID,
			Quantity:    signedQty.Abs(),
			Provenance:  prov,
			Kind:        entity.MovementAdjust,
		})
		if err != nil {
			return err
		}
	}

	logger.Info(ctx, "stock adjusted",
		"store_item_id", storeItemID,
		"quantity", signedQty,
		"reason", reason)
	return nil
}

// GetBalance returns the store item's cached on-hand quantity. Readers
// observe only fully committed mutations.
func (s *Service) GetBalance(ctx context.Context, storeItemID id.ID) (types.Quantity, error) {
	item, err := s.items.GetByID(ctx, storeItemID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// GetActiveLots returns the item's active lots oldest first, for FIFO
// preview and costing without mutation.
func (s *Service) GetActiveLots(ctx context.Context, storeItemID id.ID) ([]Lot, error) {
	return s.lots.GetActiveLots(ctx, storeItemID)
}

// PreviewConsumption computes the FIFO cost of a hypothetical consumption
// without mutating anything.
func (s *Service) PreviewConsumption(ctx context.Context, storeItemID id.ID, qty types.Quantity) (Consumption, error) {
	if !qty.IsPositive() {
		return Consumption{}, apperror.NewInvalidQuantity("quantity", qty.String())
	}

	item, err := s.items.GetByID(ctx, storeItemID)
	if err != nil {
		return Consumption{}, err
	}
	lots, err := s.lots.GetActiveLots(ctx, storeItemID)
	if err != nil {
		return Consumption{}, err
	}
	return planConsumption(item, lots, qty)
}

// Movements queries the transaction log.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.lots.ListMovements(ctx, filter)
}

// checkBalance re-validates the ledger invariant inside the mutating
// transaction: cached quantity == sum of active lots' remaining quantity.
func (s *Service) checkBalance(ctx context.Context, storeItemID id.ID) error {
	sum, err := s.lots.SumActiveRemaining(ctx, storeItemID)
	if err != nil {
		return fmt.Errorf("sum active lots: %w", err)
	}

	item, err := s.items.GetByID(ctx, storeItemID)
	if err != nil {
		return err
	}

	if item.Quantity != sum {
		return apperror.NewBalanceOutOfSync(storeItemID.String(), item.Quantity.String(), sum.String())
	}
	return nil
}
