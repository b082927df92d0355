package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// NotificationServiceName is the fully-qualified name of the NotificationService.
const NotificationServiceName = "groupledger.v1.NotificationService"

// Procedure paths of the NotificationService.
const (
	NotificationServiceListNotificationsProcedure    = "/groupledger.v1.NotificationService/ListNotifications"
	NotificationServiceMarkNotificationReadProcedure = "/groupledger.v1.NotificationService/MarkNotificationRead"
	NotificationServiceListActivityProcedure         = "/groupledger.v1.NotificationService/ListActivity"
)

// NotificationServiceClient is a client for the NotificationService.
type NotificationServiceClient interface {
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
	MarkNotificationRead(context.Context, *connect.Request[api.MarkNotificationReadRequest]) (*connect.Response[api.MarkNotificationReadResponse], error)
	ListActivity(context.Context, *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error)
}

// NewNotificationServiceClient constructs a client for the NotificationService. baseURL is the server root,
// e.g. "http://localhost:8080". Messages are sent as JSON.
func NewNotificationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) NotificationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &notificationServiceClient{
		listNotifications: connect.NewClient[api.ListNotificationsRequest, api.ListNotificationsResponse](
			httpClient,
			baseURL+NotificationServiceListNotificationsProcedure,
			opts...,
		),
		markNotificationRead: connect.NewClient[api.MarkNotificationReadRequest, api.MarkNotificationReadResponse](
			httpClient,
			baseURL+NotificationServiceMarkNotificationReadProcedure,
			opts...,
		),
		listActivity: connect.NewClient[api.ListActivityRequest, api.ListActivityResponse](
			httpClient,
			baseURL+NotificationServiceListActivityProcedure,
			opts...,
		),
	}
}

type notificationServiceClient struct {
	listNotifications    *connect.Client[api.ListNotificationsRequest, api.ListNotificationsResponse]
	markNotificationRead *connect.Client[api.MarkNotificationReadRequest, api.MarkNotificationReadResponse]
	listActivity         *connect.Client[api.ListActivityRequest, api.ListActivityResponse]
}

func (c *notificationServiceClient) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	return c.listNotifications.CallUnary(ctx, req)
}

func (c *notificationServiceClient) MarkNotificationRead(ctx context.Context, req *connect.Request[api.MarkNotificationReadRequest]) (*connect.Response[api.MarkNotificationReadResponse], error) {
	return c.markNotificationRead.CallUnary(ctx, req)
}

func (c *notificationServiceClient) ListActivity(ctx context.Context, req *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error) {
	return c.listActivity.CallUnary(ctx, req)
}

// NotificationServiceHandler is implemented by the server side of the NotificationService.
type NotificationServiceHandler interface {
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
	MarkNotificationRead(context.Context, *connect.Request[api.MarkNotificationReadRequest]) (*connect.Response[api.MarkNotificationReadResponse], error)
	ListActivity(context.Context, *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error)
}

// NewNotificationServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewNotificationServiceHandler(svc NotificationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	notificationServiceListNotificationsHandler := connect.NewUnaryHandler(NotificationServiceListNotificationsProcedure, svc.ListNotifications, opts...)
	notificationServiceMarkNotificationReadHandler := connect.NewUnaryHandler(NotificationServiceMarkNotificationReadProcedure, svc.MarkNotificationRead, opts...)
	notificationServiceListActivityHandler := connect.NewUnaryHandler(NotificationServiceListActivityProcedure, svc.ListActivity, opts...)
	return "/" + NotificationServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case NotificationServiceListNotificationsProcedure:
			notificationServiceListNotificationsHandler.ServeHTTP(w, r)
		case NotificationServiceMarkNotificationReadProcedure:
			notificationServiceMarkNotificationReadHandler.ServeHTTP(w, r)
		case NotificationServiceListActivityProcedure:
			notificationServiceListActivityHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedNotificationServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedNotificationServiceHandler struct{}

func (UnimplementedNotificationServiceHandler) ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.NotificationService.ListNotifications is not implemented"))
}

func (UnimplementedNotificationServiceHandler) MarkNotificationRead(context.Context, *connect.Request[api.MarkNotificationReadRequest]) (*connect.Response[api.MarkNotificationReadResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.NotificationService.MarkNotificationRead is not implemented"))
}

func (UnimplementedNotificationServiceHandler) ListActivity(context.Context, *connect.Request[api.ListActivityRequest]) (*connect.Response[api.ListActivityResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.NotificationService.ListActivity is not implemented"))
}
