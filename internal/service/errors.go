package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/middleware"
	"github.com/mmynk/groupledger/internal/settlement"
	"github.com/mmynk/groupledger/internal/storage"
)

var (
	errNotMember = errors.New("not a member of this group")
	errNotAdmin  = errors.New("only group admins can do this")
)

// connectError maps a domain error to a Connect error code.
func connectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, settlement.ErrValidation),
		errors.Is(err, calculator.ErrInvalidSplit):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, settlement.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, settlement.ErrUnauthorized),
		errors.Is(err, errNotMember),
		errors.Is(err, errNotAdmin):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, settlement.ErrConflict),
		errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// fail logs a failed RPC at a level matching its code and returns the Connect error.
func fail(msg string, err error, args ...any) *connect.Error {
	cerr := connectError(err)
	args = append(args, "code", cerr.Code().String(), "error", err)
	if cerr.Code() == connect.CodeInternal {
		slog.Error(msg, args...)
	} else {
		slog.Warn(msg, args...)
	}
	return cerr
}

// callerID returns the authenticated user, or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
