package commands

import (
	"errors"
	"fmt"
	"time"

	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"
	"distribution/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// OrderLineInput is one requested line. A nil UnitPrice is priced from the
// product's tier price for the client.
type OrderLineInput struct {
	ProductID kernel.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateOrderCommand represents a request to place a sales order whose lines are
// reserved at the order's warehouse.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, clientID, warehouseID, 2, requiredDate,
//	    []OrderLineInput{{ProductID: milkID, Quantity: 60}})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, locker, publisher)
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, inventory.ErrInsufficientStock) {
//	    // nothing was reserved
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	clientID     kernel.UUID
	warehouseID  kernel.UUID
	priority     int
	requiredDate time.Time
	lines        []OrderLineInput
	actorID      string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new sales order.
// Validates identifiers, the priority range and every line.
func NewCreateOrderCommand(
	orderID, clientID, warehouseID kernel.UUID,
	priority int,
	requiredDate time.Time,
	lines []OrderLineInput,
	actorID string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		orderID:      orderID,
		clientID:     clientID,
		warehouseID:  warehouseID,
		requiredDate: requiredDate,
		actorID:      actorID,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		clientID.Validate(),
		warehouseID.Validate(),
		cmd.setPriority(priority),
		cmd.setLines(lines),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) ClientID() kernel.UUID {
	return c.clientID
}

// WarehouseID is where the lines are reserved.
func (c CreateOrderCommand) WarehouseID() kernel.UUID {
	return c.warehouseID
}

func (c CreateOrderCommand) Priority() int {
	return c.priority
}

func (c CreateOrderCommand) RequiredDate() time.Time {
	return c.requiredDate
}

func (c CreateOrderCommand) Lines() []OrderLineInput {
	lines := make([]OrderLineInput, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c CreateOrderCommand) ActorID() string {
	return c.actorID
}

func (c *CreateOrderCommand) setPriority(priority int) error {
	if priority < order.PriorityHighest || priority > order.PriorityLowest {
		return errs.NewValueIsOutOfRangeError("priority", priority, order.PriorityHighest, order.PriorityLowest)
	}

	c.priority = priority
	return nil
}

func (c *CreateOrderCommand) setLines(lines []OrderLineInput) error {
	if len(lines) == 0 {
		return order.ErrOrderHasNoLines
	}

	var errList []error
	for i, line := range lines {
		if err := errors.Join(
			line.ProductID.Validate(),
			positiveQuantity("quantity", line.Quantity),
		); err != nil {
			errList = append(errList, fmt.Errorf("line %d: %w", i+1, err))
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			errList = append(errList, fmt.Errorf("line %d: %w", i+1, errs.NewValueIsInvalidError("unit price")))
		}
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	c.lines = make([]OrderLineInput, len(lines))
	copy(c.lines, lines)
	return nil
}
