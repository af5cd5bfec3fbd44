// Package order implements the order fulfilment state machine.
//
// An Order moves through pending, confirmed, processing, picking, packed, shipped
// and delivered. It can be cancelled from any non-terminal state and fail after
// shipping. Lines keep the inventory portions they hold so that cancellation and
// delivery can release or issue exactly what was reserved.
package order
