package services

import (
	"time"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"
)

// ScoreInput is everything the score of one (order line, warehouse, lot) triple depends on.
type ScoreInput struct {
	Priority          int
	WarehouseLocation *kernel.Location
	ClientLocation    *kernel.Location
	Available         int
	Requested         int
	Perishable        bool
	LotExpiry         *time.Time
	CreditLimitSet    bool
	CreditRatio       float64
	RequiredDate      time.Time
	Now               time.Time
}

// ScoreBreakdown lists the additive terms. Total is rounded to 2 decimals.
type ScoreBreakdown struct {
	Base       float64
	Priority   float64
	Distance   float64
	DistanceKm *float64
	Stock      float64
	Expiry     float64
	Credit     float64
	DueDate    float64
	Total      float64
}

// OrderContext pairs an order with the client it is delivered to.
type OrderContext struct {
	Order  *order.Order
	Client catalog.Client
}

// AllocationInput is one batch for the engine. Warehouses are the candidates in
// tie-break order; Stock holds every known lot per product.
type AllocationInput struct {
	Orders     []OrderContext
	Warehouses []catalog.Warehouse
	Products   map[kernel.UUID]catalog.Product
	Stock      map[kernel.UUID][]*inventory.Lot
}

// LineRef identifies an order line.
type LineRef struct {
	OrderID    kernel.UUID
	LineNumber int
	ProductID  kernel.UUID
	Requested  int
}

// AllocationOutcome is the engine's decision for a batch.
type AllocationOutcome struct {
	Allocations    []*distribution.Allocation
	Unallocated    []LineRef
	TotalRequested int
}

// AllocationEngine picks, per order line, the warehouse with the highest score.
//
// Lines are scored independently: two lines competing for the same lot both see
// its full availability, and execution decides who gets it. A line is never
// split across warehouses; when the best warehouse holds less than requested the
// allocation is partial.
type AllocationEngine struct {
	policy ScoringPolicy
}

func NewAllocationEngine(policy ScoringPolicy) AllocationEngine {
	return AllocationEngine{policy: policy}
}

// Allocate scores every line of every order against every warehouse.
func (e AllocationEngine) Allocate(now time.Time, input AllocationInput) (AllocationOutcome, error) {
	var outcome AllocationOutcome

	for _, oc := range input.Orders {
		if err := oc.Order.Validate(); err != nil {
			return AllocationOutcome{}, err
		}
		if !oc.Order.Status().IsAllocatable() {
			return AllocationOutcome{}, &distribution.OrderNotAllocatableError{
				OrderID: oc.Order.ID(),
				Status:  oc.Order.Status().String(),
			}
		}

		for _, line := range oc.Order.Lines() {
			outcome.TotalRequested += line.Quantity()

			product, ok := input.Products[line.ProductID()]
			if !ok {
				return AllocationOutcome{}, errs.NewObjectNotFoundError("product", line.ProductID())
			}

			allocation, err := e.allocateLine(now, oc, line, product, input.Warehouses, input.Stock[line.ProductID()])
			if err != nil {
				return AllocationOutcome{}, err
			}
			if allocation == nil {
				outcome.Unallocated = append(outcome.Unallocated, LineRef{
					OrderID:    oc.Order.ID(),
					LineNumber: line.Number(),
					ProductID:  line.ProductID(),
					Requested:  line.Quantity(),
				})
				continue
			}
			outcome.Allocations = append(outcome.Allocations, allocation)
		}
	}

	return outcome, nil
}

func (e AllocationEngine) allocateLine(
	now time.Time,
	oc OrderContext,
	line *order.Line,
	product catalog.Product,
	warehouses []catalog.Warehouse,
	lots []*inventory.Lot,
) (*distribution.Allocation, error) {
	view := inventory.WithoutHolds(lots, line.Reservations())
	creditRatio, creditSet := oc.Client.CreditRatio()

	var (
		best      *catalog.Warehouse
		bestLot   *inventory.Lot
		bestScore float64
		bestStock int
	)

	for i := range warehouses {
		w := &warehouses[i]
		local := lotsIn(view, w.ID)
		lot := inventory.BestLot(local)
		if lot == nil {
			continue
		}

		score := e.Score(ScoreInput{
			Priority:          oc.Order.Priority(),
			WarehouseLocation: w.Location,
			ClientLocation:    oc.Client.Location,
			Available:         lot.Available(),
			Requested:         line.Quantity(),
			Perishable:        product.Perishable,
			LotExpiry:         lot.ExpiryDate(),
			CreditLimitSet:    creditSet,
			CreditRatio:       creditRatio,
			RequiredDate:      oc.Order.RequiredDate(),
			Now:               now,
		})

		if best == nil || score.Total > bestScore {
			best, bestLot, bestScore = w, lot, score.Total
			bestStock = inventory.TotalAvailable(local)
		}
	}

	if best == nil {
		return nil, nil //nolint:nilnil // no warehouse holds the product
	}

	lotID := bestLot.ID()
	return distribution.NewAllocation(
		kernel.NewUUID(),
		oc.Order.ID(),
		line.Number(),
		line.ProductID(),
		best.ID,
		&lotID,
		line.Quantity(),
		min(line.Quantity(), bestStock),
		bestScore,
	)
}

// Score computes the weighted sum for one candidate.
func (e AllocationEngine) Score(in ScoreInput) ScoreBreakdown {
	p := e.policy
	b := ScoreBreakdown{
		Base:     p.BaseScore,
		Priority: float64(order.PriorityLowest+1-in.Priority) * p.PriorityWeight,
	}

	if in.WarehouseLocation != nil && in.ClientLocation != nil {
		if km, err := in.WarehouseLocation.DistanceKm(*in.ClientLocation); err == nil {
			b.DistanceKm = &km
			b.Distance = max(0, p.DistanceMaxPoints-km/p.DistanceKmPerPoint)
		}
	}

	if in.Requested > 0 {
		b.Stock = min(p.StockMaxPoints, float64(in.Available)/float64(in.Requested)*p.StockMaxPoints)
	}

	if in.Perishable && in.LotExpiry != nil {
		days := float64(inventory.DaysUntil(in.Now, *in.LotExpiry))
		points, ok := pointsAtMost(p.ExpiryThresholds, days)
		if !ok {
			points = p.ExpiryFallbackPoints
		}
		b.Expiry = points
	}

	if in.CreditLimitSet {
		b.Credit, _ = pointsBelow(p.CreditThresholds, in.CreditRatio)
	}

	b.DueDate, _ = pointsAtMost(p.DueThresholds, float64(inventory.DaysUntil(in.Now, in.RequiredDate)))

	b.Total = round2(b.Base + b.Priority + b.Distance + b.Stock + b.Expiry + b.Credit + b.DueDate)
	return b
}

func lotsIn(lots []*inventory.Lot, warehouseID kernel.UUID) []*inventory.Lot {
	var result []*inventory.Lot
	for _, lot := range lots {
		if lot.WarehouseID().IsEqual(warehouseID) {
			result = append(result, lot)
		}
	}
	return result
}
