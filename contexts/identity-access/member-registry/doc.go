// Package memberregistry owns DAO member records inside the identity-access
// context.
//
// The module registers members, administers role and status, applies
// reputation deltas on behalf of the reputation ledger and answers
// IsAuthorized(member, action, resource) for the governance and treasury
// engines. Authorization is deny-by-default against a role -> resource ->
// actions policy that can be overridden from configuration.
package memberregistry
