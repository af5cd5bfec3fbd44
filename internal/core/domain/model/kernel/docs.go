// Package kernel holds the domain primitives shared by every aggregate of the
// distribution service: UUID identifiers and geographic Locations.
//
// Both are immutable value objects guarded against zero-value use; Location
// computes great-circle distances (haversine, kilometres) used by the allocation
// engine's distance term and by the route sequencer.
package kernel
