// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Domain errors returned by services. Map turns them into status errors.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAction      = errors.New(`action must be one of "like", "pass", "super_like"`)
	ErrUnknownTarget      = errors.New("target user does not exist")
	// ErrAlreadyInteracted belongs to the reject-duplicate swipe policy.
	// The ledger upserts, so nothing returns it today.
	ErrAlreadyInteracted = errors.New("you have already interacted with this user")
	ErrEmailTaken        = errors.New("user with this email already exists")
	ErrNotMember         = errors.New("not a member of this match")
)

// Map converts domain, repo and infra errors into gRPC status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())

	case errors.Is(err, ErrInvalidAction):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrUnknownTarget):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrAlreadyInteracted):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, ErrEmailTaken):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, ErrNotMember), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// storage failures never leak driver messages to clients
		return status.Error(codes.Internal, "internal server error")
	}
}

// IsNotFound reports whether err is a missing-row error from gorm.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}

// NotFound creates a gRPC NotFound error.
func NotFound(msg string) error {
	return status.Error(codes.NotFound, msg)
}

// HTTPStatus returns the HTTP status code and client message for err.
// Errors that are not status errors are passed through Map first.
func HTTPStatus(err error) (int, string) {
	st, _ := status.FromError(Map(err))
	return httpCode(st.Code()), st.Message()
}

// httpCode follows the grpc-gateway mapping table.
func httpCode(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
