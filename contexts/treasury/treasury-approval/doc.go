// Package treasuryapproval implements the multi-signature treasury approval
// engine inside the treasury context.
//
// A transaction is proposed as pending, collects one approval per authorized
// member and executes exactly once, in the same store unit as the approval
// that brings current_approvals up to required_approvals. Execution debits the
// organization treasury and credits the recipient atomically; when the debit
// cannot be applied the transaction fails and balances stay untouched.
package treasuryapproval
