package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/assignment/events"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	calls   int32
	err     error
	block   chan struct{}
	started chan struct{}
	writes  []string
}

func (f *fakeWriter) AssignTechnician(ctx context.Context, id string, technicianID string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.writes = append(f.writes, id+"="+technicianID)
	f.mu.Unlock()
	return f.err
}

func (f *fakeWriter) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

type fakeTechnicians struct {
	technicians map[string]*model.Technician
	err         error
}

func (f *fakeTechnicians) FindByID(ctx context.Context, id string) (*model.Technician, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.technicians[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *t
	return &copied, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TechnicianAssigned
	err    error
}

func (p *recordingPublisher) PublishAssigned(ctx context.Context, event events.TechnicianAssigned) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var (
	t1 = &model.Technician{ID: "t1", Name: "Avi Levi", Phone: "+972541111111", Skills: []string{"plumbing"}, Active: true}
	t2 = &model.Technician{ID: "t2", Name: "Noa Katz", Phone: "+972542222222", Skills: []string{"electrical"}, Active: true}
)

func pendingBooking() *model.Booking {
	return &model.Booking{ID: "b1", ServiceID: "s1", Status: model.BookingStatusPending}
}

func options(techs ...*model.Technician) []model.TechnicianOption {
	out := make([]model.TechnicianOption, 0, len(techs))
	for _, t := range techs {
		out = append(out, model.TechnicianOption{ID: t.ID, Name: t.Name, Phone: t.Phone})
	}
	return out
}

type harness struct {
	writer    *fakeWriter
	techs     *fakeTechnicians
	publisher *recordingPublisher
	wf        *Workflow
}

func newHarness(booking *model.Booking, opts []model.TechnicianOption, ttl Options) *harness {
	h := &harness{
		writer:    &fakeWriter{},
		techs:     &fakeTechnicians{technicians: map[string]*model.Technician{"t1": t1, "t2": t2}},
		publisher: &recordingPublisher{},
	}
	h.wf = NewWorkflow(booking, opts, "admin-uid", h.writer, h.techs, h.publisher, ttl, logger.Discard())
	return h
}

func defaultTTL() Options {
	return Options{SuccessMessageTTL: time.Hour, FailureMessageTTL: time.Hour}
}

func accept(context.Context, Prompt) bool { return true }

func TestConfirm_AssignsStagedTechnician(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1, t2), defaultTTL())

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)

	var prompted Prompt
	result := h.wf.Confirm(context.Background(), func(_ context.Context, p Prompt) bool {
		prompted = p
		return true
	})

	assert.Equal(t, "Avi Levi", prompted.TechnicianName)
	assert.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Equal(t, StateCommitted, result.View.State)
	require.NotNil(t, result.View.Booking.TechnicianID)
	assert.Equal(t, "t1", *result.View.Booking.TechnicianID)
	assert.Equal(t, model.BookingStatusAssigned, result.View.Booking.Status)
	assert.Equal(t, t1, result.View.Technician)
	assert.Empty(t, result.View.SelectedID)
	require.NotNil(t, result.View.Message)
	assert.Equal(t, MessageSuccess, result.View.Message.Kind)
	assert.Contains(t, result.View.Message.Text, "Avi Levi")
	assert.False(t, result.View.Assigning)

	assert.Equal(t, []string{"b1=t1"}, h.writer.writes)
	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "pending", h.publisher.events[0].PreviousStatus)
	assert.Equal(t, "admin-uid", h.publisher.events[0].AssignedBy)
}

func TestConfirm_PermissionDeniedRollsBack(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.writer.err = fmt.Errorf("failed to assign technician: %w", mongodb.ErrPermissionDenied)

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	result := h.wf.Confirm(context.Background(), accept)

	assert.Equal(t, OutcomeRolledBack, result.Outcome)
	assert.Equal(t, StateRolledBack, result.View.State)
	assert.Nil(t, result.View.Booking.TechnicianID)
	assert.Equal(t, model.BookingStatusPending, result.View.Booking.Status)
	assert.Nil(t, result.View.Technician)
	require.NotNil(t, result.View.Message)
	assert.Equal(t, MessageError, result.View.Message.Kind)
	assert.Equal(t, MessagePermissionDenied, result.View.Message.Text)
	assert.Equal(t, 1, h.writer.Calls())
	assert.Empty(t, h.publisher.events)
}

func TestConfirm_RollbackRestoresPreAttemptStatus(t *testing.T) {
	booking := pendingBooking()
	booking.Status = model.BookingStatusCancelled
	h := newHarness(booking, options(t1), defaultTTL())
	h.writer.err = errors.New("boom")

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	result := h.wf.Confirm(context.Background(), accept)

	assert.Equal(t, model.BookingStatusCancelled, result.View.Booking.Status)
	assert.Nil(t, result.View.Booking.TechnicianID)
	assert.Equal(t, MessageAssignFailed, result.View.Message.Text)
}

func TestConfirm_RetryAfterRollback(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.writer.err = fmt.Errorf("x: %w", mongodb.ErrUnavailable)

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	first := h.wf.Confirm(context.Background(), accept)
	require.Equal(t, OutcomeRolledBack, first.Outcome)
	assert.Equal(t, MessageUnavailable, first.View.Message.Text)
	assert.Equal(t, "t1", first.View.SelectedID, "selection survives a failed attempt")

	h.writer.err = nil
	second := h.wf.Confirm(context.Background(), accept)
	assert.Equal(t, OutcomeCommitted, second.Outcome)
	assert.Equal(t, 2, h.writer.Calls())
}

func TestStage_NoEligibleTechnicians(t *testing.T) {
	h := newHarness(pendingBooking(), options(), defaultTTL())

	view := h.wf.View()
	assert.Empty(t, view.Options)
	assert.False(t, view.CanAssign)
	assert.Nil(t, view.Confirmation)

	_, err := h.wf.Stage("t1")
	assert.ErrorIs(t, err, ErrNotEligible)

	result := h.wf.Confirm(context.Background(), accept)
	assert.Equal(t, OutcomeNoOp, result.Outcome)
	assert.Zero(t, h.writer.Calls())
}

func TestConfirm_NoOpPreconditions(t *testing.T) {
	assigned := "t2"

	tests := []struct {
		name    string
		booking *model.Booking
		stage   string
	}{
		{"no selection", pendingBooking(), ""},
		{"already assigned", &model.Booking{ID: "b1", TechnicianID: &assigned, Status: model.BookingStatusAssigned}, "t1"},
		{"completed without technician field cleared", &model.Booking{ID: "b1", TechnicianID: &assigned, Status: model.BookingStatusCompleted}, "t1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.booking, options(t1, t2), defaultTTL())
			if tt.stage != "" {
				_, err := h.wf.Stage(tt.stage)
				require.NoError(t, err)
			}
			before := h.wf.View()

			confirmCalled := false
			result := h.wf.Confirm(context.Background(), func(context.Context, Prompt) bool {
				confirmCalled = true
				return true
			})

			assert.Equal(t, OutcomeNoOp, result.Outcome)
			assert.False(t, confirmCalled)
			assert.Zero(t, h.writer.Calls())
			assert.Equal(t, before, result.View)
		})
	}
}

func TestConfirm_DismissKeepsSelection(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	before := h.wf.View()

	result := h.wf.Confirm(context.Background(), func(context.Context, Prompt) bool { return false })

	assert.Equal(t, OutcomeDismissed, result.Outcome)
	assert.Equal(t, before, result.View)
	assert.Equal(t, "t1", result.View.SelectedID)
	assert.Zero(t, h.writer.Calls())
}

func TestConfirm_SingleFlight(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.writer.block = make(chan struct{})
	h.writer.started = make(chan struct{})

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)

	first := make(chan Result, 1)
	go func() { first <- h.wf.Confirm(context.Background(), accept) }()
	<-h.writer.started

	view := h.wf.View()
	assert.True(t, view.Assigning)
	assert.Equal(t, StatePending, view.State)
	require.NotNil(t, view.Booking.TechnicianID, "optimistic update is visible before the write completes")
	assert.Equal(t, model.BookingStatusAssigned, view.Booking.Status)

	var wg sync.WaitGroup
	var noops int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.wf.Confirm(context.Background(), accept).Outcome == OutcomeNoOp {
				atomic.AddInt32(&noops, 1)
			}
		}()
	}
	wg.Wait()

	close(h.writer.block)
	result := <-first

	assert.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Equal(t, int32(20), noops)
	assert.Equal(t, 1, h.writer.Calls())
}

func TestConfirm_StagedChangedDuringConfirmationIsNoOp(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1, t2), defaultTTL())
	_, err := h.wf.Stage("t1")
	require.NoError(t, err)

	result := h.wf.Confirm(context.Background(), func(context.Context, Prompt) bool {
		_, err := h.wf.Stage("t2")
		require.NoError(t, err)
		return true
	})

	assert.Equal(t, OutcomeNoOp, result.Outcome)
	assert.Zero(t, h.writer.Calls())
}

func TestConfirm_TechnicianDetailUnavailableStillCommits(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.techs.err = errors.New("read failed")

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	result := h.wf.Confirm(context.Background(), accept)

	assert.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Nil(t, result.View.Technician)
	assert.Contains(t, result.View.Message.Text, "Avi Levi")
}

func TestConfirm_PublishFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.publisher.err = errors.New("broker down")

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	result := h.wf.Confirm(context.Background(), accept)

	assert.Equal(t, OutcomeCommitted, result.Outcome)
	assert.Equal(t, model.BookingStatusAssigned, result.View.Booking.Status)
}

func TestMessages_AutoClear(t *testing.T) {
	ttl := Options{SuccessMessageTTL: 30 * time.Millisecond, FailureMessageTTL: 80 * time.Millisecond}

	t.Run("success", func(t *testing.T) {
		h := newHarness(pendingBooking(), options(t1), ttl)
		_, err := h.wf.Stage("t1")
		require.NoError(t, err)

		result := h.wf.Confirm(context.Background(), accept)
		require.NotNil(t, result.View.Message)

		assert.Eventually(t, func() bool { return h.wf.View().Message == nil }, time.Second, 5*time.Millisecond)
	})

	t.Run("failure outlives success delay", func(t *testing.T) {
		h := newHarness(pendingBooking(), options(t1), ttl)
		h.writer.err = errors.New("boom")
		_, err := h.wf.Stage("t1")
		require.NoError(t, err)

		start := time.Now()
		result := h.wf.Confirm(context.Background(), accept)
		require.NotNil(t, result.View.Message)

		assert.Eventually(t, func() bool { return h.wf.View().Message == nil }, time.Second, 5*time.Millisecond)
		assert.GreaterOrEqual(t, time.Since(start), ttl.FailureMessageTTL)
	})
}

func TestMessages_NewAttemptClearsOldMessage(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.writer.err = errors.New("boom")
	_, err := h.wf.Stage("t1")
	require.NoError(t, err)
	require.NotNil(t, h.wf.Confirm(context.Background(), accept).View.Message)

	h.writer.err = nil
	h.writer.block = make(chan struct{})
	h.writer.started = make(chan struct{})
	done := make(chan Result, 1)
	go func() { done <- h.wf.Confirm(context.Background(), accept) }()
	<-h.writer.started

	assert.Nil(t, h.wf.View().Message)
	close(h.writer.block)
	<-done
}

func TestClose_DropsLateResults(t *testing.T) {
	h := newHarness(pendingBooking(), options(t1), defaultTTL())
	h.writer.block = make(chan struct{})
	h.writer.started = make(chan struct{})
	h.writer.err = errors.New("boom")

	_, err := h.wf.Stage("t1")
	require.NoError(t, err)

	done := make(chan Result, 1)
	go func() { done <- h.wf.Confirm(context.Background(), accept) }()
	<-h.writer.started

	h.wf.Close()
	close(h.writer.block)
	<-done

	view := h.wf.View()
	assert.Equal(t, StatePending, view.State, "closed workflow is not mutated by the late result")
	assert.Nil(t, view.Message)

	_, err = h.wf.Stage("t1")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestState_Transitions(t *testing.T) {
	s := StateIdle
	s.transition(StatePending)
	s.transition(StateRolledBack)
	s.transition(StatePending)
	s.transition(StateCommitted)
	assert.Equal(t, StateCommitted, s)

	assert.Panics(t, func() { s.transition(StatePending) })
	idle := StateIdle
	assert.Panics(t, func() { idle.transition(StateCommitted) })
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, MessagePermissionDenied, FailureMessage(fmt.Errorf("w: %w", mongodb.ErrPermissionDenied)))
	assert.Equal(t, MessageUnavailable, FailureMessage(fmt.Errorf("w: %w", mongodb.ErrUnavailable)))
	assert.Equal(t, MessageAssignFailed, FailureMessage(errors.New("anything")))
}
