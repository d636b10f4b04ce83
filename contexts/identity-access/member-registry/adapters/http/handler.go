package httpadapter

import (
	"context"
	"log/slog"

	"atomsi/contexts/identity-access/member-registry/application/commands"
	"atomsi/contexts/identity-access/member-registry/application/queries"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	httptransport "atomsi/contexts/identity-access/member-registry/transport/http"
)

type Handler struct {
	Register commands.RegisterMemberUseCase
	Update   commands.UpdateMemberUseCase
	Members  queries.MemberQueryUseCase
	Logger   *slog.Logger
}

func (h Handler) RegisterMemberHandler(
	ctx context.Context,
	req httptransport.RegisterMemberRequest,
) (httptransport.MemberResponse, error) {
	member, err := h.Register.Execute(ctx, commands.RegisterMemberCommand{
		Address:  req.Address,
		Name:     req.Name,
		Role:     req.Role,
		Metadata: req.Metadata,
	})
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (h Handler) UpdateMemberHandler(
	ctx context.Context,
	actor string,
	address string,
	req httptransport.UpdateMemberRequest,
) (httptransport.MemberResponse, error) {
	member, err := h.Update.Execute(ctx, commands.UpdateMemberCommand{
		Actor:   actor,
		Address: address,
		Name:    req.Name,
		Role:    req.Role,
		Status:  req.Status,
	})
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (h Handler) GetMemberHandler(ctx context.Context, address string) (httptransport.MemberResponse, error) {
	member, err := h.Members.GetMember(ctx, address)
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (h Handler) ListMembersHandler(ctx context.Context, role string, status string) (httptransport.ListMembersResponse, error) {
	members, err := h.Members.ListMembers(ctx, role, status)
	if err != nil {
		return httptransport.ListMembersResponse{}, err
	}
	items := make([]httptransport.MemberResponse, 0, len(members))
	for _, member := range members {
		items = append(items, toMemberResponse(member))
	}
	return httptransport.ListMembersResponse{Items: items}, nil
}

func toMemberResponse(member entities.Member) httptransport.MemberResponse {
	return httptransport.MemberResponse{
		Address:      member.Address,
		Name:         member.Name,
		Role:         string(member.Role),
		Status:       string(member.Status),
		Reputation:   member.Reputation,
		Metadata:     member.Metadata,
		JoinedAt:     member.JoinedAt,
		UpdatedAt:    member.UpdatedAt,
		LastActiveAt: member.LastActiveAt,
	}
}
