// Package distribution holds the output of the allocation engine: a Plan is a
// batch of Allocations, each binding one order line to the warehouse that scored
// highest for it. Allocations never split a line across warehouses, so a line
// can be under-allocated when no single warehouse holds enough stock.
package distribution
