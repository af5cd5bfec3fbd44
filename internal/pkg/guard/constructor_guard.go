// Package guard provides ConstructorGuard, a marker embedded in
// commands, value objects and aggregates so that a zero value can be told apart from
// an instance built by its constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the enclosing value went through its constructor.
//
//	type ReceiptLine struct {
//	    quantity int
//	    guard    guard.ConstructorGuard
//	}
//
//	func NewReceiptLine(quantity int) (ReceiptLine, error) {
//	    if quantity <= 0 {
//	        return ReceiptLine{}, errors.New("quantity must be positive")
//	    }
//	    return ReceiptLine{quantity: quantity, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (l ReceiptLine) Validate() error {
//	    return l.guard.Validate(ErrReceiptLineIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when nil) for a zero-value guard.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
