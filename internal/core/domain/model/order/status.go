package order

import (
	"errors"
	"fmt"
	"strings"

	"distribution/internal/pkg/errs"
)

// ErrInvalidStateTransition is returned when an order is moved along an edge that
// the lifecycle does not define.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// InvalidStateTransitionError names the rejected edge.
type InvalidStateTransitionError struct {
	From Status
	To   Status
}

func NewInvalidStateTransitionError(from, to Status) *InvalidStateTransitionError {
	return &InvalidStateTransitionError{From: from, To: to}
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidStateTransition, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// Status is the fulfilment state of an order.
//
//	Pending -> Confirmed -> Processing -> Picking -> Packed -> Shipped -> Delivered
//	                                                              |
//	                                                              +-> Failed
//
// Cancelled is reachable from every state except Delivered and Cancelled itself.
type Status int

const (
	// Unknown catches uninitialised values.
	Unknown Status = iota
	Pending
	Confirmed
	Processing
	Picking
	Packed
	Shipped
	Delivered
	Cancelled
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Confirmed:  "confirmed",
		Processing: "processing",
		Picking:    "picking",
		Packed:     "packed",
		Shipped:    "shipped",
		Delivered:  "delivered",
		Cancelled:  "cancelled",
		Failed:     "failed",
	}
}

func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal states have no outgoing edges
	return map[Status][]Status{
		Pending:    {Confirmed, Cancelled},
		Confirmed:  {Processing, Cancelled},
		Processing: {Picking, Cancelled},
		Picking:    {Packed, Cancelled},
		Packed:     {Shipped, Cancelled},
		Shipped:    {Delivered, Failed, Cancelled},
		Failed:     {Cancelled},
	}
}

// ParseStatus accepts the lower-case names used on the wire.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if status != Unknown && str == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether target is a defined successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsAllocatable reports whether the allocation engine may plan the order.
func (s Status) IsAllocatable() bool {
	return s == Confirmed || s == Processing
}
