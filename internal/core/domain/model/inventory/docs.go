// Package inventory models the stock ledger: lots with their reservation
// counters, FEFO lot selection and the append-only transaction log.
//
// A lot is keyed by product, warehouse, location and batch. Its quantity only
// changes through Receive, Issue and Adjust, each of which returns the timestamp
// that the matching Transaction must carry; replaying a lot's transactions in
// timestamp order reproduces its quantity.
package inventory
