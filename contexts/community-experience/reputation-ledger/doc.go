// Package reputationledger records member activity derived from governance
// and treasury events and applies reputation deltas to the member registry.
//
// The ledger is a side-effect consumer: it never gates the transition that
// produced an event. Deltas that cannot be applied stay pending and are
// retried by a worker.
package reputationledger
