package inventory

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"
)

var ErrTransactionIsNotConstructed = errors.New("Transaction must be created via NewTransaction or RestoreTransaction")

// TransactionType classifies a quantity mutation in the transaction log.
type TransactionType string

const (
	TransactionReceive    TransactionType = "receive"
	TransactionIssue      TransactionType = "issue"
	TransactionTransfer   TransactionType = "transfer"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionReturn     TransactionType = "return"
)

func (t TransactionType) Validate() error {
	switch t {
	case TransactionReceive, TransactionIssue, TransactionTransfer, TransactionAdjustment, TransactionReturn:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("transaction type", fmt.Errorf("%q is not a valid type", string(t)))
	}
}

// Reference points a log entry at the business document that caused it.
type Reference struct {
	Type string
	ID   string
}

func (r Reference) String() string {
	if r.Type == "" {
		return ""
	}
	return r.Type + "/" + r.ID
}

// Transaction is an immutable transaction log entry. Quantity is signed: positive
// entries add to the lot, negative ones remove from it.
type Transaction struct { //nolint:recvcheck //using for validation
	id             kernel.UUID
	lotID          kernel.UUID
	key            LotKey
	txType         TransactionType
	reference      Reference
	quantity       int
	actorID        string
	note           string
	occurredAt     time.Time
	idempotencyKey string

	guard guard.ConstructorGuard
}

// NewTransaction records a movement of quantity on lot at occurredAt.
func NewTransaction(
	lot *Lot,
	txType TransactionType,
	quantity int,
	reference Reference,
	actorID, note, idempotencyKey string,
	occurredAt time.Time,
) (*Transaction, error) {
	if err := lot.Validate(); err != nil {
		return nil, err
	}
	return RestoreTransaction(kernel.NewUUID(), lot.ID(), lot.Key(), txType, reference, quantity,
		actorID, note, idempotencyKey, occurredAt)
}

func RestoreTransaction(
	id, lotID kernel.UUID,
	key LotKey,
	txType TransactionType,
	reference Reference,
	quantity int,
	actorID, note, idempotencyKey string,
	occurredAt time.Time,
) (*Transaction, error) {
	tx := &Transaction{
		id:             id,
		lotID:          lotID,
		key:            key,
		txType:         txType,
		reference:      reference,
		quantity:       quantity,
		actorID:        actorID,
		note:           note,
		occurredAt:     occurredAt.UTC(),
		idempotencyKey: idempotencyKey,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		id.Validate(),
		lotID.Validate(),
		key.Validate(),
		txType.Validate(),
		validateSign(txType, quantity),
	); err != nil {
		return nil, err
	}

	return tx, nil
}

func (t *Transaction) Validate() error {
	if t == nil {
		return ErrTransactionIsNotConstructed
	}
	return t.guard.Validate(ErrTransactionIsNotConstructed)
}

func (t *Transaction) ID() kernel.UUID {
	return t.id
}

func (t *Transaction) LotID() kernel.UUID {
	return t.lotID
}

func (t *Transaction) Key() LotKey {
	return t.key
}

func (t *Transaction) Type() TransactionType {
	return t.txType
}

func (t *Transaction) Reference() Reference {
	return t.reference
}

// Quantity is the signed change applied to the lot.
func (t *Transaction) Quantity() int {
	return t.quantity
}

func (t *Transaction) ActorID() string {
	return t.actorID
}

func (t *Transaction) Note() string {
	return t.note
}

func (t *Transaction) OccurredAt() time.Time {
	return t.occurredAt
}

func (t *Transaction) IdempotencyKey() string {
	return t.idempotencyKey
}

func validateSign(txType TransactionType, quantity int) error {
	var ok bool
	switch txType {
	case TransactionReceive, TransactionReturn:
		ok = quantity > 0
	case TransactionIssue:
		ok = quantity < 0
	case TransactionTransfer, TransactionAdjustment:
		ok = quantity != 0
	default:
		return nil
	}
	if !ok {
		return errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d has the wrong sign for a %s entry", quantity, txType))
	}
	return nil
}

// Replay sums entries in timestamp order and returns the resulting quantity.
func Replay(entries []*Transaction) int {
	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b *Transaction) int {
		return a.occurredAt.Compare(b.occurredAt)
	})

	total := 0
	for _, e := range ordered {
		total += e.quantity
	}
	return total
}

// Discrepancy is a lot whose quantity does not match its replayed log.
type Discrepancy struct {
	LotID    kernel.UUID
	Key      LotKey
	Quantity int
	Replayed int
	Entries  int
}

// Reconcile compares the lot quantity with the replay of its entries.
func Reconcile(lot *Lot, entries []*Transaction) (Discrepancy, bool) {
	replayed := Replay(entries)
	if replayed == lot.quantity {
		return Discrepancy{}, true
	}
	return Discrepancy{
		LotID:    lot.id,
		Key:      lot.key,
		Quantity: lot.quantity,
		Replayed: replayed,
		Entries:  len(entries),
	}, false
}
