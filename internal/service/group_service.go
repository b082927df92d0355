package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/settlement"
	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

var errUnsettled = errors.New("balances are not settled")

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store   storage.Store
	engine  *settlement.Engine
	emitter *notify.Emitter
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, engine *settlement.Engine, emitter *notify.Emitter) *GroupService {
	return &GroupService{store: store, engine: engine, emitter: emitter}
}

// memberGroup loads a group and checks that userID belongs to it.
func memberGroup(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Member(userID) == nil {
		return nil, errNotMember
	}
	return group, nil
}

// CreateGroup creates a group with the caller as admin and provisions its
// expense category in the same transaction.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIds),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name required"))
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
		Members:   []models.GroupMember{{UserID: userID, Role: models.RoleAdmin}},
	}
	seen := map[string]bool{userID: true}
	var others []string
	for _, id := range req.Msg.MemberIds {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
		group.Members = append(group.Members, models.GroupMember{UserID: id, Role: models.RoleMember})
	}

	if len(others) > 0 {
		users, err := s.store.GetUsersByIDs(ctx, others)
		if err != nil {
			return nil, fail("CreateGroup failed", err)
		}
		for _, id := range others {
			if _, ok := users[id]; !ok {
				return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("user %s not found", id))
			}
		}
	}

	err = s.store.WithTx(ctx, func(q storage.Queries) error {
		if err := q.CreateGroup(ctx, group); err != nil {
			return err
		}
		_, err := q.EnsureGroupCategory(ctx, group.ID, userID)
		return err
	})
	if err != nil {
		return nil, fail("CreateGroup failed", err)
	}

	created, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("CreateGroup failed", err, "group_id", group.ID)
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(created.Members))
	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(created)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("GetGroup failed", err, "group_id", req.Msg.GroupId)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups returns the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		return nil, fail("ListGroups failed", err, "user_id", userID)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToAPI(g)
	}

	slog.Info("ListGroups successful", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a user to the group. Admins only.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("AddMember failed", err, "group_id", req.Msg.GroupId)
	}
	if !group.IsAdmin(userID) {
		return nil, fail("AddMember failed", errNotAdmin, "group_id", group.ID)
	}

	role := models.RoleMember
	if req.Msg.Role != "" {
		role = models.Role(req.Msg.Role)
		if !role.Valid() {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown role %q", req.Msg.Role))
		}
	}

	var user *models.User
	switch {
	case req.Msg.UserId != "":
		user, err = s.store.GetUserByID(ctx, req.Msg.UserId)
	case req.Msg.Email != "":
		user, err = s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Msg.Email)))
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id or email required"))
	}
	if err != nil {
		return nil, fail("AddMember failed", err, "group_id", group.ID)
	}

	err = s.store.AddGroupMember(ctx, &models.GroupMember{GroupID: group.ID, UserID: user.ID, Role: role})
	if errors.Is(err, storage.ErrConflict) {
		return nil, connect.NewError(connect.CodeAlreadyExists, err)
	}
	if err != nil {
		return nil, fail("AddMember failed", err, "group_id", group.ID)
	}

	s.emitter.Log(ctx, &models.Activity{
		Action:      models.ActivityMemberAdded,
		Description: fmt.Sprintf("%s joined %s", user.DisplayName, group.Name),
		UserID:      userID,
		GroupID:     group.ID,
		EntityType:  "user",
		EntityID:    user.ID,
	})

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("AddMember failed", err, "group_id", group.ID)
	}

	slog.Info("Member added", "group_id", group.ID, "user_id", user.ID, "role", role)
	return connect.NewResponse(&api.AddMemberResponse{Group: groupToAPI(updated)}), nil
}

// RemoveMember removes a member. Admins may remove anyone, members only
// themselves. A member with an unsettled balance or the last admin cannot leave.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("RemoveMember failed", err, "group_id", req.Msg.GroupId)
	}
	target := req.Msg.UserId
	if target == "" {
		target = userID
	}
	if target != userID && !group.IsAdmin(userID) {
		return nil, fail("RemoveMember failed", errNotAdmin, "group_id", group.ID)
	}
	member := group.Member(target)
	if member == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("user %s is not a member", target))
	}

	if member.Role == models.RoleAdmin {
		admins := 0
		for _, m := range group.Members {
			if m.Role == models.RoleAdmin {
				admins++
			}
		}
		if admins == 1 {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("cannot remove the last admin"))
		}
	}

	balances, err := s.engine.GroupBalances(ctx, group.ID, userID)
	if err != nil {
		return nil, fail("RemoveMember failed", err, "group_id", group.ID)
	}
	for _, b := range balances.Members {
		if b.UserID == target && !money.IsNoise(b.NetBalance) {
			return nil, connect.NewError(connect.CodeFailedPrecondition,
				fmt.Errorf("%w: %s has a balance of %.2f", errUnsettled, target, b.NetBalance))
		}
	}

	if err := s.store.RemoveGroupMember(ctx, group.ID, target); err != nil {
		return nil, fail("RemoveMember failed", err, "group_id", group.ID)
	}

	s.emitter.Log(ctx, &models.Activity{
		Action:      models.ActivityMemberRemoved,
		Description: fmt.Sprintf("%s left %s", balances.Names[target], group.Name),
		UserID:      userID,
		GroupID:     group.ID,
		EntityType:  "user",
		EntityID:    target,
	})

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("RemoveMember failed", err, "group_id", group.ID)
	}

	slog.Info("Member removed", "group_id", group.ID, "user_id", target)
	return connect.NewResponse(&api.RemoveMemberResponse{Group: groupToAPI(updated)}), nil
}

// DeleteGroup removes a group. Admins only, and only once everyone is settled up.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := s.engine.GroupBalances(ctx, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("DeleteGroup failed", err, "group_id", req.Msg.GroupId)
	}
	if !balances.Group.IsAdmin(userID) {
		return nil, fail("DeleteGroup failed", errNotAdmin, "group_id", req.Msg.GroupId)
	}
	if len(balances.Transfers) > 0 {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("%w: %d transfers outstanding", errUnsettled, len(balances.Transfers)))
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupId); err != nil {
		return nil, fail("DeleteGroup failed", err, "group_id", req.Msg.GroupId)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupId)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}
