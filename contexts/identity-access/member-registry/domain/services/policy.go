package services

import (
	"strings"

	"atomsi/contexts/identity-access/member-registry/domain/entities"
)

const (
	ResourceProposal = "proposal"
	ResourceVote     = "vote"
	ResourceToken    = "token"
	ResourceTreasury = "treasury"
	ResourceMember   = "member"
	ResourceSettings = "settings"
)

// Policy maps a role to resource -> allowed actions.
type Policy map[entities.Role]map[string][]string

// DefaultPolicy is the built-in permission matrix. Admin is not listed
// because it is allowed everything.
func DefaultPolicy() Policy {
	return Policy{
		entities.RoleMember: {
			ResourceProposal: {"create", "read"},
			ResourceVote:     {"create", "read"},
			ResourceToken:    {"read"},
			ResourceTreasury: {"read"},
			ResourceMember:   {"read"},
			ResourceSettings: {"read"},
		},
		entities.RoleDelegate: {
			ResourceProposal: {"create", "read", "update"},
			ResourceVote:     {"create", "read"},
			ResourceToken:    {"read"},
			ResourceTreasury: {"read"},
			ResourceMember:   {"read"},
			ResourceSettings: {"read"},
		},
		entities.RoleCouncil: {
			ResourceProposal: {"create", "read", "update", "delete", "activate", "cancel", "execute"},
			ResourceVote:     {"create", "read"},
			ResourceToken:    {"read"},
			ResourceTreasury: {"read", "create", "approve", "reject"},
			ResourceMember:   {"read", "update"},
			ResourceSettings: {"read"},
		},
	}
}

// PolicyFromMatrix converts a role-name keyed matrix, ignoring unknown roles.
func PolicyFromMatrix(matrix map[string]map[string][]string) Policy {
	policy := make(Policy, len(matrix))
	for rawRole, resources := range matrix {
		role, ok := entities.ParseRole(rawRole)
		if !ok {
			continue
		}
		policy[role] = resources
	}
	return policy
}

func (p Policy) Allows(role entities.Role, action string, resource string) bool {
	action = strings.ToLower(strings.TrimSpace(action))
	resource = strings.ToLower(strings.TrimSpace(resource))
	for _, allowed := range p[role][resource] {
		if allowed == action || allowed == "*" {
			return true
		}
	}
	return false
}

// IsAuthorized denies by default: only active members whose role grants the
// action on the resource pass. Admin passes every check.
func IsAuthorized(member entities.Member, action string, resource string, policy Policy) bool {
	if member.Status != entities.StatusActive {
		return false
	}
	if member.Role == entities.RoleAdmin {
		return true
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return policy.Allows(member.Role, action, resource)
}
