package ports

import "context"

// KeyLocker grants exclusive access to named resources such as lot and order keys.
// Lock acquires every key or none and returns a function releasing them.
// Implementations acquire keys in sorted order so that overlapping callers
// cannot deadlock.
type KeyLocker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}
