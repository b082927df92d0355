package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// NotificationService implements the Connect NotificationService.
type NotificationService struct {
	apiconnect.UnimplementedNotificationServiceHandler
	store storage.Store
}

func NewNotificationService(store storage.Store) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	notifications, err := s.store.ListNotifications(ctx, userID, req.Msg.UnreadOnly, int(req.Msg.Limit))
	if err != nil {
		return nil, fail("ListNotifications failed", err, "user_id", userID)
	}

	out := make([]*api.Notification, len(notifications))
	for i, n := range notifications {
		out[i] = notificationToAPI(n)
	}
	return connect.NewResponse(&api.ListNotificationsResponse{Notifications: out}), nil
}

func (s *NotificationService) MarkNotificationRead(ctx context.Context, req *connect.Request[api.MarkNotificationReadRequest]) (*connect.Response[api.MarkNotificationReadResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.NotificationId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("notification_id required"))
	}

	if err := s.store.MarkNotificationRead(ctx, userID, req.Msg.NotificationId); err != nil {
		return nil, fail("MarkNotificationRead failed", err, "notification_id", req.Msg.NotificationId)
	}
	return connect.NewResponse(&api.MarkNotificationReadResponse{}), nil
}

// ListActivity returns a group's activity log, newest first. Members only.
func (s *NotificationService) ListActivity(ctx context.Context, req *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("ListActivity failed", err, "group_id", req.Msg.GroupId)
	}

	activities, err := s.store.ListActivity(ctx, group.ID, int(req.Msg.Limit))
	if err != nil {
		return nil, fail("ListActivity failed", err, "group_id", group.ID)
	}

	out := make([]*api.Activity, len(activities))
	for i, a := range activities {
		out[i] = activityToAPI(a)
	}
	return connect.NewResponse(&api.ListActivityResponse{Activities: out}), nil
}
