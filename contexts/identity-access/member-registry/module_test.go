package memberregistry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	memberregistry "atomsi/contexts/identity-access/member-registry"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	httptransport "atomsi/contexts/identity-access/member-registry/transport/http"
)

func TestRegisterMemberDefaultsAndDuplicate(t *testing.T) {
	module := memberregistry.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	member, err := module.Handler.RegisterMemberHandler(ctx, httptransport.RegisterMemberRequest{Address: " 0xabc "})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if member.Address != "0xabc" || member.Role != "member" || member.Status != "active" || member.Reputation != 0 {
		t.Fatalf("unexpected registered member %+v", member)
	}

	if _, err := module.Handler.RegisterMemberHandler(ctx, httptransport.RegisterMemberRequest{Address: "0xabc"}); !errors.Is(err, domainerrors.ErrMemberExists) {
		t.Fatalf("expected ErrMemberExists, got %v", err)
	}
	if _, err := module.Handler.RegisterMemberHandler(ctx, httptransport.RegisterMemberRequest{Address: ""}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := module.Handler.RegisterMemberHandler(ctx, httptransport.RegisterMemberRequest{Address: "0xdef", Role: "king"}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestIsAuthorizedMatrix(t *testing.T) {
	module := memberregistry.NewInMemoryModule([]entities.Member{
		{Address: "0xmember", Role: entities.RoleMember},
		{Address: "0xdelegate", Role: entities.RoleDelegate},
		{Address: "0xcouncil", Role: entities.RoleCouncil},
		{Address: "0xadmin", Role: entities.RoleAdmin},
		{Address: "0xsuspended", Role: entities.RoleAdmin, Status: entities.StatusSuspended},
	}, nil, nil)
	ctx := context.Background()

	cases := []struct {
		member   string
		action   string
		resource string
		want     bool
	}{
		{"0xmember", "create", "proposal", true},
		{"0xmember", "approve", "treasury", false},
		{"0xmember", "cancel", "proposal", false},
		{"0xdelegate", "update", "proposal", true},
		{"0xdelegate", "reject", "treasury", false},
		{"0xcouncil", "approve", "treasury", true},
		{"0xcouncil", "reject", "treasury", true},
		{"0xcouncil", "cancel", "proposal", true},
		{"0xcouncil", "update", "member", true},
		{"0xcouncil", "delete", "settings", false},
		{"0xadmin", "delete", "settings", true},
		{"0xsuspended", "read", "proposal", false},
		{"0xunknown", "read", "proposal", false},
	}
	for _, tc := range cases {
		if got := module.Authorization.IsAuthorized(ctx, tc.member, tc.action, tc.resource); got != tc.want {
			t.Fatalf("IsAuthorized(%s, %s, %s) = %v, want %v", tc.member, tc.action, tc.resource, got, tc.want)
		}
	}
}

func TestUpdateMemberRequiresPermission(t *testing.T) {
	module := memberregistry.NewInMemoryModule([]entities.Member{
		{Address: "0xmember", Role: entities.RoleMember},
		{Address: "0xcouncil", Role: entities.RoleCouncil},
	}, nil, nil)
	ctx := context.Background()

	if _, err := module.Handler.UpdateMemberHandler(ctx, "0xmember", "0xcouncil", httptransport.UpdateMemberRequest{
		Status: "suspended",
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := module.Handler.UpdateMemberHandler(ctx, "0xnobody", "0xmember", httptransport.UpdateMemberRequest{
		Role: "delegate",
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown actor, got %v", err)
	}

	updated, err := module.Handler.UpdateMemberHandler(ctx, "0xcouncil", "0xmember", httptransport.UpdateMemberRequest{
		Role: "delegate",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Role != "delegate" {
		t.Fatalf("expected delegate role, got %s", updated.Role)
	}

	filtered, err := module.Handler.ListMembersHandler(ctx, "delegate", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Items[0].Address != "0xmember" {
		t.Fatalf("unexpected filtered members %+v", filtered.Items)
	}
}

func TestApplyReputationDeltaFloorsAtZero(t *testing.T) {
	module := memberregistry.NewInMemoryModule([]entities.Member{{Address: "0xabc", Reputation: 4}}, nil, nil)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	member, err := module.Reputation.Execute(context.Background(), "0xabc", 3, at)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if member.Reputation != 7 {
		t.Fatalf("expected reputation 7, got %d", member.Reputation)
	}
	member, err = module.Reputation.Execute(context.Background(), "0xabc", -100, at)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if member.Reputation != 0 {
		t.Fatalf("expected reputation floored at 0, got %d", member.Reputation)
	}
	if member.LastActiveAt == nil || !member.LastActiveAt.Equal(at) {
		t.Fatalf("expected last_active_at to be touched")
	}
	if _, err := module.Reputation.Execute(context.Background(), "0xmissing", 1, at); !errors.Is(err, domainerrors.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}
