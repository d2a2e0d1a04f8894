// Package mongodb holds the helpers shared by every MongoDB repository.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "dispatch/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const (
	codeUnauthorized = 13
	codeAtlasError   = 8000
)

var (
	// ErrPermissionDenied means the store rejected the caller's credentials for the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnavailable means the store could not be reached in time.
	ErrUnavailable = errors.New("store unavailable")
)

// WithTimeout bounds ctx by timeout unless ctx already expires sooner.
// A SessionContext is returned unchanged so transactions keep their session.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// Classify tags driver errors with ErrPermissionDenied or ErrUnavailable.
// Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrUnavailable) {
		return err
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && (serverErr.HasErrorCode(codeUnauthorized) || serverErr.HasErrorCode(codeAtlasError)) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	var selectionErr topology.ServerSelectionError
	if mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.As(err, &selectionErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

const UnavailableMessage = "Service temporarily unavailable. Please try again."

// AppError maps a classified store error to the API error returned to
// clients. internalMessage is used for unclassified failures.
func AppError(err error, internalMessage string) *apperrors.AppError {
	switch {
	case IsPermissionDenied(err):
		return apperrors.Forbidden("You don't have permission to perform this action.").WithCause(err)
	case IsUnavailable(err):
		return apperrors.UnavailableMessage(UnavailableMessage, err)
	default:
		return apperrors.Internal(internalMessage, err)
	}
}

// LoadError maps a failed read of thing to the inline error shown on list
// screens. The status follows the classification; the message is always the
// generic retry hint.
func LoadError(thing string, err error) *apperrors.AppError {
	message := fmt.Sprintf("Failed to load %s. Please refresh to try again.", thing)
	switch {
	case IsPermissionDenied(err):
		return apperrors.Forbidden(message).WithCause(err)
	case IsUnavailable(err):
		return apperrors.UnavailableMessage(message, err)
	default:
		return apperrors.Internal(message, err)
	}
}
