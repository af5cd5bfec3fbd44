// Package services provides the pure domain algorithms of the distribution engine.
//
// The package includes:
//   - AllocationEngine: scores every (order line, warehouse, FEFO lot) candidate and
//     picks the best warehouse per line
//   - RouteSequencer: orders delivery stops by priority-weighted nearest neighbour
//
// Both are deterministic in-memory computations and never block.
package services
