// Package proposallifecycle implements the proposal lifecycle manager inside
// the governance context.
//
// The module owns the proposal state machine
// (draft -> active -> passed|failed -> executed, with cancellation from draft
// or active), weighted vote tallying with one vote per member, quorum-based
// finalization and at-most-once execution. Every committed transition is
// published as a domain event after the store commit.
package proposallifecycle
