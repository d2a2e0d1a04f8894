package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dispatch/internal/assignment"
	bookingserrors "dispatch/internal/bookings/errors"
	"dispatch/internal/guard"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookings struct {
	findFunc   func(ctx context.Context, id string) (*model.Booking, error)
	assignFunc func(ctx context.Context, id, technicianID string) error
}

func (m *mockBookings) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return &model.Booking{ID: id, ServiceID: "s1", Status: model.BookingStatusPending}, nil
}

func (m *mockBookings) AssignTechnician(ctx context.Context, id, technicianID string) error {
	if m.assignFunc != nil {
		return m.assignFunc(ctx, id, technicianID)
	}
	return nil
}

type mockTechnicians struct {
	active []*model.Technician
}

func (m *mockTechnicians) FindByID(ctx context.Context, id string) (*model.Technician, error) {
	for _, t := range m.active {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockTechnicians) FindActive(ctx context.Context) ([]*model.Technician, error) {
	return m.active, nil
}

var technician = &model.Technician{ID: "t1", Name: "Avi Levi", Phone: "+972541111111", Active: true}

func newTestRouter(bookings *mockBookings) *httprouter.Router {
	registry := assignment.NewRegistry(
		bookings,
		&mockTechnicians{active: []*model.Technician{technician}},
		nil,
		assignment.RegistryConfig{
			Options: assignment.Options{SuccessMessageTTL: time.Hour, FailureMessageTTL: time.Hour},
			IdleTTL: time.Minute,
		},
		logger.Discard(),
	)
	router := httprouter.New()
	NewAssignmentHandler(registry, logger.Discard()).RegisterRoutes(router)
	return router
}

func signedIn(req *http.Request) *http.Request {
	principal := &guard.Principal{
		Session: &model.Session{ID: "sess-1", UID: "admin-1"},
		Profile: &model.UserProfile{UID: "admin-1", Role: model.RoleAdmin},
	}
	return req.WithContext(guard.WithPrincipal(req.Context(), principal))
}

func do(router *httprouter.Router, method, path, body string) *httptest.ResponseRecorder {
	req := signedIn(httptest.NewRequest(method, path, strings.NewReader(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type resultBody struct {
	Data assignment.Result `json:"data"`
}

func TestAssignmentFlow(t *testing.T) {
	router := newTestRouter(&mockBookings{})

	w := do(router, http.MethodGet, "/api/v1/bookings/id/b1/assignment", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/stage", `{"technicianId":"t1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/confirm", `{"confirmed":true,"technicianId":"t1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body resultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, assignment.OutcomeCommitted, body.Data.Outcome)
	require.NotNil(t, body.Data.View.Booking.TechnicianID)
	assert.Equal(t, "t1", *body.Data.View.Booking.TechnicianID)
	assert.Equal(t, "Technician Avi Levi assigned successfully.", body.Data.View.Message.Text)
}

func TestOpen_ReloadsBooking(t *testing.T) {
	var technicianID *string
	router := newTestRouter(&mockBookings{findFunc: func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, ServiceID: "s1", Status: model.BookingStatusPending, TechnicianID: technicianID}, nil
	}})

	open := func() assignment.View {
		w := do(router, http.MethodGet, "/api/v1/bookings/id/b1/assignment", "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data assignment.View `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Data
	}

	assert.True(t, open().CanAssign)

	assignedElsewhere := "t7"
	technicianID = &assignedElsewhere
	view := open()
	require.NotNil(t, view.Booking.TechnicianID)
	assert.Equal(t, "t7", *view.Booking.TechnicianID)
	assert.False(t, view.CanAssign)
}

func TestConfirm_Declined(t *testing.T) {
	writes := 0
	router := newTestRouter(&mockBookings{assignFunc: func(ctx context.Context, id, technicianID string) error {
		writes++
		return nil
	}})

	do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/stage", `{"technicianId":"t1"}`)

	tests := []struct {
		name string
		body string
	}{
		{"not confirmed", `{"confirmed":false}`},
		{"prompt mismatch", `{"confirmed":true,"technicianId":"t9"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/confirm", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var body resultBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, assignment.OutcomeDismissed, body.Data.Outcome)
			assert.Equal(t, "t1", body.Data.View.SelectedID)
		})
	}
	assert.Zero(t, writes)
}

func TestConfirm_RollbackIsNotAnHTTPError(t *testing.T) {
	router := newTestRouter(&mockBookings{assignFunc: func(ctx context.Context, id, technicianID string) error {
		return mongodb.ErrPermissionDenied
	}})

	do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/stage", `{"technicianId":"t1"}`)
	w := do(router, http.MethodPost, "/api/v1/bookings/id/b1/assignment/confirm", `{"confirmed":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body resultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, assignment.OutcomeRolledBack, body.Data.Outcome)
	assert.Nil(t, body.Data.View.Booking.TechnicianID)
	assert.Equal(t, assignment.MessagePermissionDenied, body.Data.View.Message.Text)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name       string
		find       func(ctx context.Context, id string) (*model.Booking, error)
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "booking not found",
			find:       func(ctx context.Context, id string) (*model.Booking, error) { return nil, bookingserrors.ErrNotFound },
			method:     http.MethodGet,
			path:       "/api/v1/bookings/id/missing/assignment",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store unavailable",
			find:       func(ctx context.Context, id string) (*model.Booking, error) { return nil, mongodb.ErrUnavailable },
			method:     http.MethodGet,
			path:       "/api/v1/bookings/id/b1/assignment",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "ineligible technician",
			method:     http.MethodPost,
			path:       "/api/v1/bookings/id/b1/assignment/stage",
			body:       `{"technicianId":"t9"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/api/v1/bookings/id/b1/assignment/stage",
			body:       `{"tech":"t1"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockBookings{findFunc: tt.find})
			w := do(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	router := newTestRouter(&mockBookings{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/b1/assignment", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClose(t *testing.T) {
	router := newTestRouter(&mockBookings{})
	do(router, http.MethodGet, "/api/v1/bookings/id/b1/assignment", "")

	w := do(router, http.MethodDelete, "/api/v1/bookings/id/b1/assignment", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
