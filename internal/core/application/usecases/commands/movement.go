package commands

import (
	"fmt"
	"strings"

	"distribution/internal/core/application/ledger"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/pkg/errs"
)

// MovementInfo identifies who moved stock and why. IdempotencyKey is optional;
// a repeated key returns the original result without applying the movement again.
type MovementInfo struct {
	ReferenceType  string
	ReferenceID    string
	ActorID        string
	Note           string
	IdempotencyKey string
}

func (m MovementInfo) normalized(defaultType string) MovementInfo {
	m.ReferenceType = strings.TrimSpace(m.ReferenceType)
	m.ReferenceID = strings.TrimSpace(m.ReferenceID)
	m.IdempotencyKey = strings.TrimSpace(m.IdempotencyKey)
	if m.ReferenceType == "" {
		m.ReferenceType = defaultType
	}
	return m
}

func (m MovementInfo) ledgerMovement() ledger.Movement {
	return ledger.Movement{
		Reference:      inventory.Reference{Type: m.ReferenceType, ID: m.ReferenceID},
		ActorID:        m.ActorID,
		Note:           m.Note,
		IdempotencyKey: m.IdempotencyKey,
	}
}

func (m MovementInfo) lockKeys() []string {
	if m.IdempotencyKey == "" {
		return nil
	}
	return []string{ledger.IdempotencyLockKey(m.IdempotencyKey)}
}

func positiveQuantity(name string, quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}
