// Package errs holds the error types shared by the domain and application layers.
//
// Every type pairs a sentinel (ErrObjectNotFound, ErrValueIsInvalid,
// ErrValueIsOutOfRange, ErrValueIsRequired) with a struct that carries the
// offending parameter. The struct unwraps to its sentinel, so callers classify
// with errors.Is and inspect details with errors.As:
//
//	if errs.IsObjectNotFound(err, "warehouse") { ... }
//	if errors.Is(err, errs.ErrValueIsOutOfRange) { ... }
//
// The HTTP adapter maps the sentinels to status codes.
package errs
