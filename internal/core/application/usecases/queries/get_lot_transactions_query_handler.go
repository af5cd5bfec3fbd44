package queries

import (
	"context"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/ports"
)

// LotHistory is a lot, its log in timestamp order and the replayed quantity.
// Replayed differs from Lot.Quantity only when the ledger is corrupt.
type LotHistory struct {
	Lot          LotView           `json:"lot"`
	Transactions []TransactionView `json:"transactions"`
	Replayed     int               `json:"replayed"`
}

type GetLotTransactionsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewGetLotTransactionsQueryHandler(uowFactory ports.UnitOfWorkFactory) GetLotTransactionsQueryHandler {
	return GetLotTransactionsQueryHandler{uowFactory: uowFactory}
}

func (h GetLotTransactionsQueryHandler) Handle(ctx context.Context, query GetLotTransactionsQuery) (LotHistory, error) {
	if err := query.Validate(); err != nil {
		return LotHistory{}, err
	}

	uow := h.uowFactory.Create()
	lot, err := uow.LotRepository().Get(ctx, query.LotID())
	if err != nil {
		return LotHistory{}, err
	}
	entries, err := uow.TransactionLogRepository().ListByLot(ctx, lot.ID())
	if err != nil {
		return LotHistory{}, err
	}

	history := LotHistory{
		Lot:          NewLotView(lot),
		Transactions: make([]TransactionView, 0, len(entries)),
		Replayed:     inventory.Replay(entries),
	}
	for _, e := range entries {
		history.Transactions = append(history.Transactions, newTransactionView(e))
	}
	return history, nil
}
