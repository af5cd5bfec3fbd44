package queries

import (
	"errors"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/guard"
)

var ErrGetLotTransactionsQueryIsNotConstructed = errors.New(
	"GetLotTransactionsQuery must be created via NewGetLotTransactionsQuery constructor",
)

// GetLotTransactionsQuery reads a lot together with its transaction log.
type GetLotTransactionsQuery struct {
	lotID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetLotTransactionsQuery(lotID kernel.UUID) (GetLotTransactionsQuery, error) {
	if err := lotID.Validate(); err != nil {
		return GetLotTransactionsQuery{}, err
	}
	return GetLotTransactionsQuery{lotID: lotID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetLotTransactionsQuery) Validate() error {
	return q.guard.Validate(ErrGetLotTransactionsQueryIsNotConstructed)
}

func (q GetLotTransactionsQuery) LotID() kernel.UUID {
	return q.lotID
}
