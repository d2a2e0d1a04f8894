package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	plain := errors.New("duplicate something")

	tests := []struct {
		name        string
		err         error
		denied      bool
		unavailable bool
	}{
		{"nil", nil, false, false},
		{"unauthorized", mongo.CommandError{Code: 13, Name: "Unauthorized"}, true, false},
		{"atlas unauthorized", mongo.CommandError{Code: 8000, Name: "AtlasError"}, true, false},
		{"network", mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}}, false, true},
		{"deadline", context.DeadlineExceeded, false, true},
		{"disconnected", mongo.ErrClientDisconnected, false, true},
		{"other", plain, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.denied, IsPermissionDenied(got))
			assert.Equal(t, tt.unavailable, IsUnavailable(got))
			var cmdErr mongo.CommandError
			switch {
			case tt.err == nil:
				assert.NoError(t, got)
			case errors.As(tt.err, &cmdErr):
				var wrapped mongo.CommandError
				if assert.ErrorAs(t, got, &wrapped) {
					assert.Equal(t, cmdErr.Code, wrapped.Code)
				}
			default:
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	once := Classify(mongo.CommandError{Code: 13})
	assert.Equal(t, once, Classify(once))
}

func TestWithTimeout_KeepsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancel2 := WithTimeout(parent, time.Hour)
	defer cancel2()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok := ctx.Deadline()
	assert.True(t, ok)
}

func TestLoadError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"denied", fmt.Errorf("find: %w", ErrPermissionDenied), http.StatusForbidden},
		{"unavailable", fmt.Errorf("find: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := LoadError("bookings", tt.err)
			assert.Equal(t, tt.status, appErr.StatusCode())
			assert.Equal(t, "Failed to load bookings. Please refresh to try again.", appErr.Message)
		})
	}
}

func TestAppError_Messages(t *testing.T) {
	assert.Equal(t, UnavailableMessage, AppError(ErrUnavailable, "x").Message)
	assert.Equal(t, "x", AppError(errors.New("boom"), "x").Message)
	assert.Equal(t, http.StatusForbidden, AppError(ErrPermissionDenied, "x").StatusCode())
}
