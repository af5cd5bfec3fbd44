package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrLotIsNotConstructed = errors.New("Lot must be created via NewLot or RestoreLot")

// timestampResolution matches the precision of the persisted timestamps so that
// stamped movements stay strictly ordered after a round trip through storage.
const timestampResolution = time.Microsecond

// LotKey uniquely identifies a lot. LocationID and BatchNumber may be empty.
type LotKey struct {
	ProductID   kernel.UUID
	WarehouseID kernel.UUID
	LocationID  string
	BatchNumber string
}

func NewLotKey(productID, warehouseID kernel.UUID, locationID, batchNumber string) (LotKey, error) {
	key := LotKey{
		ProductID:   productID,
		WarehouseID: warehouseID,
		LocationID:  strings.TrimSpace(locationID),
		BatchNumber: strings.TrimSpace(batchNumber),
	}
	if err := key.Validate(); err != nil {
		return LotKey{}, err
	}
	return key, nil
}

func (k LotKey) Validate() error {
	return errors.Join(k.ProductID.Validate(), k.WarehouseID.Validate())
}

// Unplaced reports whether the key names neither a location nor a batch.
func (k LotKey) Unplaced() bool {
	return k.LocationID == "" && k.BatchNumber == ""
}

// WithWarehouse returns the same batch and location in another warehouse.
func (k LotKey) WithWarehouse(warehouseID kernel.UUID) LotKey {
	k.WarehouseID = warehouseID
	return k
}

// LockKey is the name under which the lot is locked for mutation.
func (k LotKey) LockKey() string {
	return fmt.Sprintf("lot:%s:%s:%s:%s", k.ProductID, k.WarehouseID, k.LocationID, k.BatchNumber)
}

func (k LotKey) String() string {
	return k.LockKey()
}

// Lot is the ledger's unit of stock: a quantity of one product in one warehouse,
// with a reservation counter. 0 <= reserved <= quantity holds after every mutation.
type Lot struct { //nolint:recvcheck //using for validation
	id             kernel.UUID
	key            LotKey
	quantity       int
	reserved       int
	expiryDate     *time.Time
	costPrice      *decimal.Decimal
	receivedAt     time.Time
	lastMovementAt time.Time

	guard guard.ConstructorGuard
}

// NewLot creates an empty lot. Stock arrives through Receive.
func NewLot(id kernel.UUID, key LotKey, expiryDate *time.Time, costPrice *decimal.Decimal, now time.Time) (*Lot, error) {
	lot := &Lot{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		lot.setID(id),
		lot.setKey(key),
		lot.setCostPrice(costPrice),
	); err != nil {
		return nil, err
	}

	lot.expiryDate = normalizeDate(expiryDate)
	lot.receivedAt = now.UTC().Truncate(timestampResolution)
	return lot, nil
}

// RestoreLot rebuilds a lot from storage, rejecting rows that break the reservation invariant.
func RestoreLot(
	id kernel.UUID,
	key LotKey,
	quantity, reserved int,
	expiryDate *time.Time,
	costPrice *decimal.Decimal,
	receivedAt, lastMovementAt time.Time,
) (*Lot, error) {
	lot := &Lot{
		quantity:       quantity,
		reserved:       reserved,
		expiryDate:     normalizeDate(expiryDate),
		receivedAt:     receivedAt.UTC(),
		lastMovementAt: lastMovementAt.UTC(),
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		lot.setID(id),
		lot.setKey(key),
		lot.setCostPrice(costPrice),
		lot.checkInvariant(),
	); err != nil {
		return nil, err
	}

	return lot, nil
}

func (l *Lot) Validate() error {
	if l == nil {
		return ErrLotIsNotConstructed
	}
	return l.guard.Validate(ErrLotIsNotConstructed)
}

func (l *Lot) ID() kernel.UUID {
	return l.id
}

func (l *Lot) Key() LotKey {
	return l.key
}

func (l *Lot) ProductID() kernel.UUID {
	return l.key.ProductID
}

func (l *Lot) WarehouseID() kernel.UUID {
	return l.key.WarehouseID
}

func (l *Lot) Quantity() int {
	return l.quantity
}

func (l *Lot) Reserved() int {
	return l.reserved
}

func (l *Lot) ExpiryDate() *time.Time {
	return l.expiryDate
}

func (l *Lot) CostPrice() *decimal.Decimal {
	return l.costPrice
}

func (l *Lot) ReceivedAt() time.Time {
	return l.receivedAt
}

// LastMovementAt is the timestamp of the latest quantity mutation.
func (l *Lot) LastMovementAt() time.Time {
	return l.lastMovementAt
}

// Available is quantity minus reserved.
func (l *Lot) Available() int {
	return l.quantity - l.reserved
}

// DaysUntilExpiry counts whole days, rounded up, from now to the expiry date.
// ok is false for lots without an expiry date.
func (l *Lot) DaysUntilExpiry(now time.Time) (days int, ok bool) {
	if l.expiryDate == nil {
		return 0, false
	}
	return DaysUntil(now, *l.expiryDate), true
}

// UpdateDetails replaces the expiry date and cost price with the non-nil arguments.
func (l *Lot) UpdateDetails(expiryDate *time.Time, costPrice *decimal.Decimal) error {
	if costPrice != nil {
		if err := l.setCostPrice(costPrice); err != nil {
			return err
		}
	}
	if expiryDate != nil {
		l.expiryDate = normalizeDate(expiryDate)
	}
	return nil
}

// Reserve holds quantity against available stock.
func (l *Lot) Reserve(quantity int) error {
	if err := positive("quantity", quantity); err != nil {
		return err
	}
	if quantity > l.Available() {
		return NewInsufficientAvailableError(l.key.ProductID, l.key.WarehouseID, quantity, l.Available())
	}

	l.reserved += quantity
	return l.checkInvariant()
}

// Release drops a hold. It never clamps: releasing more than is reserved fails.
func (l *Lot) Release(quantity int) error {
	if err := positive("quantity", quantity); err != nil {
		return err
	}
	if quantity > l.reserved {
		return NewOverReleaseError(l.id, l.reserved, quantity)
	}

	l.reserved -= quantity
	return l.checkInvariant()
}

// Receive adds stock and returns the movement timestamp.
func (l *Lot) Receive(quantity int, at time.Time) (time.Time, error) {
	if err := positive("quantity", quantity); err != nil {
		return time.Time{}, err
	}

	l.quantity += quantity
	return l.stamp(at), l.checkInvariant()
}

// Issue removes stock. When fulfilsReservation is set the reserved counter is
// consumed as well, otherwise only available stock may be issued.
func (l *Lot) Issue(quantity int, fulfilsReservation bool, at time.Time) (time.Time, error) {
	if err := positive("quantity", quantity); err != nil {
		return time.Time{}, err
	}

	if fulfilsReservation {
		if quantity > l.reserved {
			return time.Time{}, NewOverReleaseError(l.id, l.reserved, quantity)
		}
		l.reserved -= quantity
	} else if quantity > l.Available() {
		return time.Time{}, NewInsufficientAvailableError(l.key.ProductID, l.key.WarehouseID, quantity, l.Available())
	}

	l.quantity -= quantity
	return l.stamp(at), l.checkInvariant()
}

// Adjust applies a signed correction to quantity.
func (l *Lot) Adjust(delta int, at time.Time) (time.Time, error) {
	if delta == 0 {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause("delta", errors.New("delta must not be zero"))
	}

	result := l.quantity + delta
	if result < 0 {
		return time.Time{}, NewNegativeResultingStockError(l.id, l.quantity, delta)
	}
	if result < l.reserved {
		return time.Time{}, NewInsufficientAvailableError(l.key.ProductID, l.key.WarehouseID, -delta, l.Available())
	}

	l.quantity = result
	return l.stamp(at), l.checkInvariant()
}

// stamp records a movement and keeps movement timestamps strictly increasing
// even when the clock does not advance between two mutations.
func (l *Lot) stamp(at time.Time) time.Time {
	at = at.UTC().Truncate(timestampResolution)
	if !at.After(l.lastMovementAt) {
		at = l.lastMovementAt.Add(timestampResolution)
	}
	l.lastMovementAt = at
	return at
}

func (l *Lot) checkInvariant() error {
	if l.quantity < 0 || l.reserved < 0 || l.reserved > l.quantity {
		return errs.NewValueIsInvalidErrorWithCause("lot", fmt.Errorf(
			"reserved %d must be within 0 and quantity %d", l.reserved, l.quantity))
	}
	return nil
}

func (l *Lot) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.id = id
	return nil
}

func (l *Lot) setKey(key LotKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	l.key = key
	return nil
}

func (l *Lot) setCostPrice(costPrice *decimal.Decimal) error {
	if costPrice == nil {
		return nil
	}
	if costPrice.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("cost price", fmt.Errorf("%s is negative", costPrice))
	}
	c := *costPrice
	l.costPrice = &c
	return nil
}

func positive(name string, quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := t.UTC().Truncate(timestampResolution)
	return &d
}

// DaysUntil returns the number of days from now until t, rounded up. Past dates are negative or zero.
func DaysUntil(now, t time.Time) int {
	hours := t.Sub(now).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	return days
}
