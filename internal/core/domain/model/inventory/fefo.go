package inventory

import (
	"slices"

	"distribution/internal/core/domain/model/kernel"
)

// Portion is the part of a reservation or issue that lands on one lot.
type Portion struct {
	LotID    kernel.UUID
	Key      LotKey
	Quantity int
}

// SumPortions returns the total quantity across portions.
func SumPortions(portions []Portion) int {
	total := 0
	for _, p := range portions {
		total += p.Quantity
	}
	return total
}

// SortFEFO orders lots first-expired-first-out: earliest expiry first, lots without
// expiry last, then oldest receipt, then id.
func SortFEFO(lots []*Lot) {
	slices.SortStableFunc(lots, compareFEFO)
}

func compareFEFO(a, b *Lot) int {
	switch {
	case a.expiryDate != nil && b.expiryDate == nil:
		return -1
	case a.expiryDate == nil && b.expiryDate != nil:
		return 1
	case a.expiryDate != nil && b.expiryDate != nil && !a.expiryDate.Equal(*b.expiryDate):
		return a.expiryDate.Compare(*b.expiryDate)
	}

	if c := a.receivedAt.Compare(b.receivedAt); c != 0 {
		return c
	}
	return a.id.Compare(b.id)
}

// PlanFEFO walks lots in FEFO order and takes available stock until quantity is
// covered. Lots whose batch matches batchHint are drawn from first. The lots are
// not mutated; covered is less than quantity when stock is short.
func PlanFEFO(lots []*Lot, quantity int, batchHint string) (portions []Portion, covered int) {
	ordered := slices.Clone(lots)
	SortFEFO(ordered)
	if batchHint != "" {
		slices.SortStableFunc(ordered, func(a, b *Lot) int {
			return hintRank(a, batchHint) - hintRank(b, batchHint)
		})
	}

	for _, lot := range ordered {
		if covered >= quantity {
			break
		}
		take := min(lot.Available(), quantity-covered)
		if take <= 0 {
			continue
		}
		portions = append(portions, Portion{LotID: lot.id, Key: lot.key, Quantity: take})
		covered += take
	}

	return portions, covered
}

// BestLot returns the first lot in FEFO order that has available stock, or nil.
func BestLot(lots []*Lot) *Lot {
	ordered := slices.Clone(lots)
	SortFEFO(ordered)
	for _, lot := range ordered {
		if lot.Available() > 0 {
			return lot
		}
	}
	return nil
}

// TotalAvailable sums available stock across lots.
func TotalAvailable(lots []*Lot) int {
	total := 0
	for _, lot := range lots {
		total += lot.Available()
	}
	return total
}

func hintRank(lot *Lot, batchHint string) int {
	if lot.key.BatchNumber == batchHint {
		return 0
	}
	return 1
}

// WithoutHolds returns copies of lots with the held portions released, so that a
// line being re-planned sees the stock it already holds as available. Portions
// that do not match a lot are ignored. The input lots are not modified.
func WithoutHolds(lots []*Lot, held []Portion) []*Lot {
	heldByLot := make(map[kernel.UUID]int, len(held))
	for _, p := range held {
		heldByLot[p.LotID] += p.Quantity
	}

	view := make([]*Lot, 0, len(lots))
	for _, lot := range lots {
		c := *lot
		if q := heldByLot[lot.id]; q > 0 {
			c.reserved = max(0, c.reserved-q)
		}
		view = append(view, &c)
	}
	return view
}
