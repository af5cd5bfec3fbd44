// Package ledger applies stock movements to inventory lots and journals them in
// the transaction log. A Ledger is bound to the repositories of one unit of work;
// callers hold the per-key locks returned by the *LockKeys helpers for the whole
// transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrKeyNotLocked is returned when a mutation targets a lot key the caller did not lock.
var ErrKeyNotLocked = errors.New("lot key is not locked by the caller")

// Movement carries the audit attributes journaled with a quantity change.
type Movement struct {
	Reference      inventory.Reference
	ActorID        string
	Note           string
	IdempotencyKey string
}

type Receipt struct {
	Key        inventory.LotKey
	Quantity   int
	ExpiryDate *time.Time
	CostPrice  *decimal.Decimal
	Movement   Movement
}

// IssueRequest removes available stock. LotIDs restricts the lots drawn from;
// without it every lot of the product in the warehouse is eligible, FEFO first.
type IssueRequest struct {
	ProductID   kernel.UUID
	WarehouseID kernel.UUID
	Quantity    int
	LotIDs      []kernel.UUID
	Movement    Movement
}

// Adjustment corrects stock after a count. An unplaced key names the whole
// warehouse: a positive delta lands on the default lot and a negative one is
// taken from the warehouse's lots.
type Adjustment struct {
	Key      inventory.LotKey
	Delta    int
	Movement Movement
}

type TransferRequest struct {
	ProductID       kernel.UUID
	FromWarehouseID kernel.UUID
	ToWarehouseID   kernel.UUID
	Quantity        int
	LotIDs          []kernel.UUID
	Movement        Movement
}

// TransferResult lists the source lots drained and the destination lots filled.
type TransferResult struct {
	Portions []inventory.Portion
	Source   []*inventory.Lot
	Target   []*inventory.Lot
}

type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithLockedKeys restricts mutations to the given lock keys. Lots that appeared
// after the keys were computed are not drawn from.
func WithLockedKeys(keys []string) Option {
	return func(l *Ledger) {
		l.locked = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			l.locked[k] = struct{}{}
		}
	}
}

// Ledger is not safe for concurrent use; create one per unit of work.
type Ledger struct {
	lots    ports.LotRepository
	journal ports.TransactionLogRepository
	now     func() time.Time
	logger  *slog.Logger
	locked  map[string]struct{}
	touched []*inventory.Lot
}

func New(lots ports.LotRepository, journal ports.TransactionLogRepository, opts ...Option) *Ledger {
	l := &Ledger{
		lots:    lots,
		journal: journal,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "ledger")
	return l
}

// Touched returns every lot mutated through this ledger, in first-touch order.
func (l *Ledger) Touched() []*inventory.Lot {
	return l.touched
}

// Reserve holds quantity of the product in the warehouse, drawing lots FEFO with
// batchHint first. It fails with InsufficientStockError without touching any lot
// when the warehouse cannot cover the quantity.
func (l *Ledger) Reserve(
	ctx context.Context,
	productID, warehouseID kernel.UUID,
	quantity int,
	batchHint string,
) ([]inventory.Portion, error) {
	if quantity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	lots, err := l.lockedLots(ctx, ports.LotFilter{ProductID: &productID, WarehouseID: &warehouseID})
	if err != nil {
		return nil, err
	}

	portions, covered := inventory.PlanFEFO(lots, quantity, batchHint)
	if covered < quantity {
		return nil, inventory.NewInsufficientStockError(productID, warehouseID, quantity, covered)
	}

	byID := indexLots(lots)
	for _, p := range portions {
		lot := byID[p.LotID]
		if err = lot.Reserve(p.Quantity); err != nil {
			return nil, err
		}
		if err = l.save(ctx, lot, false); err != nil {
			return nil, err
		}
	}

	return portions, nil
}

// Release drops the given holds. An over-release is an accounting bug: it is
// logged and returned, never clamped.
func (l *Ledger) Release(ctx context.Context, portions []inventory.Portion) error {
	for _, p := range portions {
		lot, err := l.lockedLot(ctx, p.LotID)
		if err != nil {
			return err
		}
		if err = lot.Release(p.Quantity); err != nil {
			l.logViolation(ctx, "release rejected", lot, err)
			return err
		}
		if err = l.save(ctx, lot, false); err != nil {
			return err
		}
	}
	return nil
}

// Receive adds stock to the lot of r.Key, creating the lot on first receipt.
func (l *Ledger) Receive(ctx context.Context, r Receipt) (*inventory.Lot, error) {
	if lots, done, err := l.replayed(ctx, r.Movement.IdempotencyKey); err != nil || done {
		return firstLot(lots), err
	}
	if err := l.requireLocked(r.Key); err != nil {
		return nil, err
	}
	return l.receive(ctx, r.Key, r.Quantity, r.ExpiryDate, r.CostPrice, inventory.TransactionReceive, r.Movement)
}

// Issue removes available stock.
func (l *Ledger) Issue(ctx context.Context, r IssueRequest) ([]*inventory.Lot, error) {
	if lots, done, err := l.replayed(ctx, r.Movement.IdempotencyKey); err != nil || done {
		return lots, err
	}

	portions, lots, err := l.planIssue(ctx, r.ProductID, r.WarehouseID, r.Quantity, r.LotIDs)
	if err != nil {
		return nil, err
	}

	byID := indexLots(lots)
	issued := make([]*inventory.Lot, 0, len(portions))
	for _, p := range portions {
		lot := byID[p.LotID]
		if err = l.issue(ctx, lot, p.Quantity, false, inventory.TransactionIssue, r.Movement); err != nil {
			return nil, err
		}
		issued = append(issued, lot)
	}
	return issued, nil
}

// IssueReserved ships held portions: quantity and reserved both decrease.
func (l *Ledger) IssueReserved(ctx context.Context, portions []inventory.Portion, m Movement) ([]*inventory.Lot, error) {
	issued := make([]*inventory.Lot, 0, len(portions))
	for _, p := range portions {
		lot, err := l.lockedLot(ctx, p.LotID)
		if err != nil {
			return nil, err
		}
		if err = l.issue(ctx, lot, p.Quantity, true, inventory.TransactionIssue, m); err != nil {
			return nil, err
		}
		issued = append(issued, lot)
	}
	return issued, nil
}

// Adjust applies a signed correction and returns the lots it changed.
func (l *Ledger) Adjust(ctx context.Context, a Adjustment) ([]*inventory.Lot, error) {
	if lots, done, err := l.replayed(ctx, a.Movement.IdempotencyKey); err != nil || done {
		return lots, err
	}
	if a.Delta < 0 && a.Key.Unplaced() {
		return l.adjustWarehouse(ctx, a)
	}
	if err := l.requireLocked(a.Key); err != nil {
		return nil, err
	}

	lot, isNew, err := l.lotForKey(ctx, a.Key, nil, nil)
	if err != nil {
		return nil, err
	}
	if err = l.adjust(ctx, lot, isNew, a.Delta, a.Movement); err != nil {
		return nil, err
	}
	return []*inventory.Lot{lot}, nil
}

// adjustWarehouse removes stock across the warehouse. A single lot takes the
// whole correction; otherwise available stock is drawn FEFO.
func (l *Ledger) adjustWarehouse(ctx context.Context, a Adjustment) ([]*inventory.Lot, error) {
	productID, warehouseID := a.Key.ProductID, a.Key.WarehouseID
	lots, err := l.lockedLots(ctx, ports.LotFilter{ProductID: &productID, WarehouseID: &warehouseID})
	if err != nil {
		return nil, err
	}

	if len(lots) == 1 {
		if err = l.adjust(ctx, lots[0], false, a.Delta, a.Movement); err != nil {
			return nil, err
		}
		return lots, nil
	}

	need := -a.Delta
	portions, covered := inventory.PlanFEFO(lots, need, "")
	if covered < need {
		total := 0
		for _, lot := range lots {
			total += lot.Quantity()
		}
		if total < need {
			err = inventory.NewWarehouseNegativeResultingStockError(productID, warehouseID, total, a.Delta)
			l.logger.ErrorContext(ctx, "adjustment rejected",
				"product_id", productID.String(),
				"warehouse_id", warehouseID.String(),
				"quantity", total,
				"error", err,
			)
			return nil, err
		}
		return nil, inventory.NewInsufficientAvailableError(productID, warehouseID, need, covered)
	}

	byID := indexLots(lots)
	adjusted := make([]*inventory.Lot, 0, len(portions))
	for _, p := range portions {
		lot := byID[p.LotID]
		if err = l.adjust(ctx, lot, false, -p.Quantity, a.Movement); err != nil {
			return nil, err
		}
		adjusted = append(adjusted, lot)
	}
	return adjusted, nil
}

func (l *Ledger) adjust(ctx context.Context, lot *inventory.Lot, isNew bool, delta int, m Movement) error {
	at, err := lot.Adjust(delta, l.now())
	if err != nil {
		if !isNew && inventory.IsInvariantViolation(err) {
			l.logViolation(ctx, "adjustment rejected", lot, err)
		}
		return err
	}

	if err = l.save(ctx, lot, isNew); err != nil {
		return err
	}
	return l.append(ctx, lot, inventory.TransactionAdjustment, delta, at, m)
}

// Transfer issues at the source and receives the same batches at the destination.
// Both sides run on the caller's unit of work, so they commit or roll back together.
func (l *Ledger) Transfer(ctx context.Context, r TransferRequest) (TransferResult, error) {
	if r.FromWarehouseID.IsEqual(r.ToWarehouseID) {
		return TransferResult{}, errs.NewValueIsInvalidErrorWithCause("to warehouse",
			errors.New("source and destination warehouses are the same"))
	}
	if lots, done, err := l.replayed(ctx, r.Movement.IdempotencyKey); err != nil || done {
		return splitTransfer(lots, r.FromWarehouseID), err
	}

	portions, lots, err := l.planIssue(ctx, r.ProductID, r.FromWarehouseID, r.Quantity, r.LotIDs)
	if err != nil {
		return TransferResult{}, err
	}

	result := TransferResult{Portions: portions}
	byID := indexLots(lots)
	for _, p := range portions {
		source := byID[p.LotID]
		if err = l.issue(ctx, source, p.Quantity, false, inventory.TransactionTransfer, r.Movement); err != nil {
			return TransferResult{}, err
		}

		targetKey := source.Key().WithWarehouse(r.ToWarehouseID)
		if err = l.requireLocked(targetKey); err != nil {
			return TransferResult{}, err
		}
		target, recvErr := l.receive(ctx, targetKey, p.Quantity, source.ExpiryDate(), source.CostPrice(),
			inventory.TransactionTransfer, r.Movement)
		if recvErr != nil {
			return TransferResult{}, recvErr
		}

		result.Source = append(result.Source, source)
		result.Target = append(result.Target, target)
	}

	return result, nil
}

// Reconcile replays the log of every lot and returns the lots that disagree.
// It reads without locks, so it is only exact while no movement runs; use
// ReconcileLot under the lot's key lock otherwise.
func (l *Ledger) Reconcile(ctx context.Context) ([]inventory.Discrepancy, error) {
	lots, err := l.lots.Find(ctx, ports.LotFilter{})
	if err != nil {
		return nil, err
	}

	var discrepancies []inventory.Discrepancy
	for _, lot := range lots {
		d, ok, recErr := l.ReconcileLot(ctx, lot.ID())
		if recErr != nil {
			return nil, recErr
		}
		if !ok {
			discrepancies = append(discrepancies, d)
		}
	}
	return discrepancies, nil
}

// ReconcileLot reads one lot and its log and replays the log. ok is false when
// the quantities disagree.
func (l *Ledger) ReconcileLot(ctx context.Context, lotID kernel.UUID) (inventory.Discrepancy, bool, error) {
	lot, err := l.lots.Get(ctx, lotID)
	if err != nil {
		return inventory.Discrepancy{}, false, err
	}
	entries, err := l.journal.ListByLot(ctx, lot.ID())
	if err != nil {
		return inventory.Discrepancy{}, false, err
	}

	d, ok := inventory.Reconcile(lot, entries)
	if !ok {
		l.logger.ErrorContext(ctx, "lot does not reconcile with its transaction log",
			"lot_id", d.LotID.String(),
			"lot_key", d.Key.String(),
			"quantity", d.Quantity,
			"replayed", d.Replayed,
		)
	}
	return d, ok, nil
}

func (l *Ledger) receive(
	ctx context.Context,
	key inventory.LotKey,
	quantity int,
	expiryDate *time.Time,
	costPrice *decimal.Decimal,
	txType inventory.TransactionType,
	m Movement,
) (*inventory.Lot, error) {
	lot, isNew, err := l.lotForKey(ctx, key, expiryDate, costPrice)
	if err != nil {
		return nil, err
	}
	if !isNew {
		if err = lot.UpdateDetails(expiryDate, costPrice); err != nil {
			return nil, err
		}
	}

	at, err := lot.Receive(quantity, l.now())
	if err != nil {
		return nil, err
	}
	if err = l.save(ctx, lot, isNew); err != nil {
		return nil, err
	}
	if err = l.append(ctx, lot, txType, quantity, at, m); err != nil {
		return nil, err
	}
	return lot, nil
}

func (l *Ledger) issue(
	ctx context.Context,
	lot *inventory.Lot,
	quantity int,
	fulfilsReservation bool,
	txType inventory.TransactionType,
	m Movement,
) error {
	at, err := lot.Issue(quantity, fulfilsReservation, l.now())
	if err != nil {
		if inventory.IsInvariantViolation(err) {
			l.logViolation(ctx, "issue rejected", lot, err)
		}
		return err
	}
	if err = l.save(ctx, lot, false); err != nil {
		return err
	}
	return l.append(ctx, lot, txType, -quantity, at, m)
}

// planIssue picks the portions to issue without mutating anything, so a short
// issue leaves every lot untouched.
func (l *Ledger) planIssue(
	ctx context.Context,
	productID, warehouseID kernel.UUID,
	quantity int,
	lotIDs []kernel.UUID,
) ([]inventory.Portion, []*inventory.Lot, error) {
	if quantity <= 0 {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	var (
		lots []*inventory.Lot
		err  error
	)
	if len(lotIDs) == 0 {
		lots, err = l.lockedLots(ctx, ports.LotFilter{ProductID: &productID, WarehouseID: &warehouseID})
	} else {
		lots, err = l.lotsByID(ctx, productID, warehouseID, lotIDs)
	}
	if err != nil {
		return nil, nil, err
	}

	portions, covered := inventory.PlanFEFO(lots, quantity, "")
	if covered < quantity {
		return nil, nil, inventory.NewInsufficientAvailableError(productID, warehouseID, quantity, covered)
	}
	return portions, lots, nil
}

func (l *Ledger) lotsByID(
	ctx context.Context,
	productID, warehouseID kernel.UUID,
	lotIDs []kernel.UUID,
) ([]*inventory.Lot, error) {
	lots := make([]*inventory.Lot, 0, len(lotIDs))
	for _, id := range lotIDs {
		lot, err := l.lockedLot(ctx, id)
		if err != nil {
			return nil, err
		}
		if !lot.ProductID().IsEqual(productID) || !lot.WarehouseID().IsEqual(warehouseID) {
			return nil, errs.NewValueIsInvalidErrorWithCause("lot",
				fmt.Errorf("lot %s does not hold product %s in warehouse %s", id, productID, warehouseID))
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func (l *Ledger) lockedLots(ctx context.Context, filter ports.LotFilter) ([]*inventory.Lot, error) {
	lots, err := l.lots.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if l.locked == nil {
		return lots, nil
	}

	result := lots[:0]
	for _, lot := range lots {
		if _, ok := l.locked[lot.Key().LockKey()]; ok {
			result = append(result, lot)
		}
	}
	return result, nil
}

func (l *Ledger) lockedLot(ctx context.Context, id kernel.UUID) (*inventory.Lot, error) {
	lot, err := l.lots.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = l.requireLocked(lot.Key()); err != nil {
		return nil, err
	}
	return lot, nil
}

func (l *Ledger) lotForKey(
	ctx context.Context,
	key inventory.LotKey,
	expiryDate *time.Time,
	costPrice *decimal.Decimal,
) (lot *inventory.Lot, isNew bool, err error) {
	lot, err = l.lots.GetByKey(ctx, key)
	if err == nil {
		return lot, false, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, false, err
	}

	lot, err = inventory.NewLot(kernel.NewUUID(), key, expiryDate, costPrice, l.now())
	if err != nil {
		return nil, false, err
	}
	return lot, true, nil
}

func (l *Ledger) requireLocked(key inventory.LotKey) error {
	if l.locked == nil {
		return nil
	}
	if _, ok := l.locked[key.LockKey()]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotLocked, key)
	}
	return nil
}

// replayed reports whether a movement with the idempotency key was already
// journaled, returning the lots it touched in their current state.
func (l *Ledger) replayed(ctx context.Context, key string) ([]*inventory.Lot, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	entries, err := l.journal.FindByIdempotencyKey(ctx, key)
	if err != nil || len(entries) == 0 {
		return nil, false, err
	}

	seen := make(map[kernel.UUID]struct{}, len(entries))
	lots := make([]*inventory.Lot, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.LotID()]; dup {
			continue
		}
		seen[e.LotID()] = struct{}{}
		lot, getErr := l.lots.Get(ctx, e.LotID())
		if getErr != nil {
			return nil, false, getErr
		}
		lots = append(lots, lot)
	}

	l.logger.InfoContext(ctx, "movement already applied", "idempotency_key", key, "lots", len(lots))
	return lots, true, nil
}

func (l *Ledger) save(ctx context.Context, lot *inventory.Lot, isNew bool) error {
	var err error
	if isNew {
		err = l.lots.Add(ctx, lot)
	} else {
		err = l.lots.Update(ctx, lot)
	}
	if err != nil {
		return err
	}

	for _, t := range l.touched {
		if t.ID().IsEqual(lot.ID()) {
			return nil
		}
	}
	l.touched = append(l.touched, lot)
	return nil
}

func (l *Ledger) append(
	ctx context.Context,
	lot *inventory.Lot,
	txType inventory.TransactionType,
	quantity int,
	at time.Time,
	m Movement,
) error {
	entry, err := inventory.NewTransaction(lot, txType, quantity, m.Reference, m.ActorID, m.Note, m.IdempotencyKey, at)
	if err != nil {
		return err
	}
	return l.journal.Append(ctx, entry)
}

func (l *Ledger) logViolation(ctx context.Context, msg string, lot *inventory.Lot, err error) {
	l.logger.ErrorContext(ctx, msg,
		"lot_id", lot.ID().String(),
		"lot_key", lot.Key().String(),
		"quantity", lot.Quantity(),
		"reserved", lot.Reserved(),
		"error", err,
	)
}

func indexLots(lots []*inventory.Lot) map[kernel.UUID]*inventory.Lot {
	byID := make(map[kernel.UUID]*inventory.Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID()] = lot
	}
	return byID
}

func firstLot(lots []*inventory.Lot) *inventory.Lot {
	if len(lots) == 0 {
		return nil
	}
	return lots[0]
}

func splitTransfer(lots []*inventory.Lot, from kernel.UUID) TransferResult {
	var result TransferResult
	for _, lot := range lots {
		if lot.WarehouseID().IsEqual(from) {
			result.Source = append(result.Source, lot)
		} else {
			result.Target = append(result.Target, lot)
		}
	}
	return result
}
