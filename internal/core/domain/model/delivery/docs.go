// Package delivery models a delivery run: an ordered list of stops produced by
// the route sequencer, each bound to one order.
package delivery
