// Package assignment binds a technician to a pending booking. Each open
// booking screen owns a Workflow that stages a selection, waits for an
// explicit confirmation, applies the assignment optimistically and rolls it
// back when the write fails.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dispatch/internal/assignment/events"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
)

var (
	ErrNotEligible = errors.New("technician is not eligible for assignment")
	ErrClosed      = errors.New("assignment workflow is closed")
)

type BookingWriter interface {
	AssignTechnician(ctx context.Context, id string, technicianID string) error
}

type TechnicianReader interface {
	FindByID(ctx context.Context, id string) (*model.Technician, error)
}

// Prompt is what the operator confirms before anything is written.
type Prompt struct {
	BookingID      string `json:"bookingId"`
	TechnicianID   string `json:"technicianId"`
	TechnicianName string `json:"technicianName"`
	Text           string `json:"text"`
}

// Confirmer presents prompt and reports whether the operator accepted it.
// Returning false aborts with no side effects.
type Confirmer func(ctx context.Context, prompt Prompt) bool

type Options struct {
	SuccessMessageTTL time.Duration
	FailureMessageTTL time.Duration
}

// View is the observable state of a workflow.
type View struct {
	BookingID    string                   `json:"bookingId"`
	Booking      *model.Booking           `json:"booking"`
	State        State                    `json:"state"`
	Assigning    bool                     `json:"assigning"`
	Options      []model.TechnicianOption `json:"options"`
	SelectedID   string                   `json:"selectedTechnicianId,omitempty"`
	Confirmation *Prompt                  `json:"confirmation,omitempty"`
	Technician   *model.Technician        `json:"technician,omitempty"`
	Message      *Message                 `json:"message,omitempty"`
	CanAssign    bool                     `json:"canAssign"`
}

type Result struct {
	Outcome Outcome `json:"outcome"`
	View    View    `json:"view"`
}

type Workflow struct {
	mu sync.Mutex

	bookingID  string
	actorUID   string
	booking    *model.Booking
	options    []model.TechnicianOption
	staged     string
	state      State
	technician *model.Technician
	message    *Message
	messageSeq uint64
	clearTimer *time.Timer
	closed     bool
	lastUsed   time.Time

	writer      BookingWriter
	technicians TechnicianReader
	publisher   events.Publisher
	opts        Options
	log         *logger.Logger
	now         func() time.Time
}

func NewWorkflow(
	booking *model.Booking,
	options []model.TechnicianOption,
	actorUID string,
	writer BookingWriter,
	technicians TechnicianReader,
	publisher events.Publisher,
	opts Options,
	log *logger.Logger,
) *Workflow {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if options == nil {
		options = []model.TechnicianOption{}
	}
	return &Workflow{
		bookingID:   booking.ID,
		actorUID:    actorUID,
		booking:     booking.Clone(),
		options:     options,
		state:       StateIdle,
		writer:      writer,
		technicians: technicians,
		publisher:   publisher,
		opts:        opts,
		log:         log.With("booking_id", booking.ID),
		now:         time.Now,
		lastUsed:    time.Now(),
	}
}

// Stage records the operator's selection. It never writes. An empty id
// clears the selection.
func (w *Workflow) Stage(technicianID string) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return View{}, ErrClosed
	}
	w.touchLocked()

	if technicianID != "" {
		if _, ok := w.optionLocked(technicianID); !ok {
			return w.viewLocked(), ErrNotEligible
		}
	}
	w.staged = technicianID
	return w.viewLocked(), nil
}

// Confirm runs one assignment attempt for the staged technician.
//
// A missing selection, an already assigned booking, an attempt already in
// flight or a closed workflow make it a silent no-op. Otherwise confirm is
// asked first; on acceptance the booking is updated locally, the write is
// issued, and the local copy is either kept (with the technician detail
// loaded) or rolled back to its pre-attempt value.
func (w *Workflow) Confirm(ctx context.Context, confirm Confirmer) Result {
	w.mu.Lock()
	prompt, ok := w.preconditionsLocked()
	w.touchLocked()
	w.mu.Unlock()
	if !ok {
		return w.result(OutcomeNoOp)
	}

	if confirm == nil || !confirm(ctx, prompt) {
		return w.result(OutcomeDismissed)
	}

	w.mu.Lock()
	again, ok := w.preconditionsLocked()
	if !ok || again.TechnicianID != prompt.TechnicianID {
		w.mu.Unlock()
		return w.result(OutcomeNoOp)
	}
	technicianID := prompt.TechnicianID
	previousStatus := w.booking.Status
	w.state.transition(StatePending)
	w.clearMessageLocked()
	w.booking.TechnicianID = &technicianID
	w.booking.Status = model.BookingStatusAssigned
	w.mu.Unlock()

	w.log.Info("Assigning technician", "technician_id", technicianID, "previous_status", previousStatus)

	if err := w.writer.AssignTechnician(ctx, w.bookingID, technicianID); err != nil {
		return w.rollback(previousStatus, err)
	}
	return w.commit(ctx, technicianID, prompt.TechnicianName, previousStatus)
}

func (w *Workflow) commit(ctx context.Context, technicianID, optionName string, previousStatus model.BookingStatus) Result {
	technician, err := w.technicians.FindByID(ctx, technicianID)
	if err != nil {
		w.log.Warn("Assigned technician detail unavailable", "technician_id", technicianID, "error", err)
		technician = nil
	}

	name := optionName
	if technician != nil && technician.Name != "" {
		name = technician.Name
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Debug("Discarding assignment result for closed workflow", "technician_id", technicianID)
		return Result{Outcome: OutcomeCommitted}
	}
	w.state.transition(StateCommitted)
	w.technician = technician
	w.staged = ""
	w.setMessageLocked(MessageSuccess, successMessage(name), w.opts.SuccessMessageTTL)
	w.mu.Unlock()

	w.log.Info("Technician assigned", "technician_id", technicianID)

	event := events.TechnicianAssigned{
		BookingID:      w.bookingID,
		TechnicianID:   technicianID,
		TechnicianName: name,
		PreviousStatus: string(previousStatus),
		AssignedBy:     w.actorUID,
		AssignedAt:     w.now().UTC(),
	}
	if err := w.publisher.PublishAssigned(context.WithoutCancel(ctx), event); err != nil {
		w.log.Error("Failed to publish assignment event", "technician_id", technicianID, "error", err)
	}

	return w.result(OutcomeCommitted)
}

func (w *Workflow) rollback(previousStatus model.BookingStatus, cause error) Result {
	message := FailureMessage(cause)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Debug("Discarding assignment failure for closed workflow", "error", cause)
		return Result{Outcome: OutcomeRolledBack}
	}
	w.state.transition(StateRolledBack)
	w.booking.TechnicianID = nil
	w.booking.Status = previousStatus
	w.technician = nil
	w.setMessageLocked(MessageError, message, w.opts.FailureMessageTTL)
	w.mu.Unlock()

	w.log.Warn("Technician assignment failed, rolled back", "error", cause, "message", message)
	return w.result(OutcomeRolledBack)
}

// Refresh replaces the booking snapshot and the eligible options with freshly
// read ones. A staged selection that is no longer assignable is dropped. It
// does nothing while an attempt is in flight or after Close.
func (w *Workflow) Refresh(booking *model.Booking, options []model.TechnicianOption) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.state == StatePending {
		return false
	}
	if options == nil {
		options = []model.TechnicianOption{}
	}
	w.booking = booking.Clone()
	w.options = options
	if _, ok := w.optionLocked(w.staged); !ok || w.booking.HasTechnician() {
		w.staged = ""
	}
	w.touchLocked()
	return true
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// Close marks the workflow dead. Results that arrive afterwards are dropped.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.clearTimer != nil {
		w.clearTimer.Stop()
		w.clearTimer = nil
	}
}

func (w *Workflow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// IdleSince reports the last time the operator touched the workflow and
// whether an attempt is in flight.
func (w *Workflow) IdleSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed, w.state == StatePending
}

func (w *Workflow) preconditionsLocked() (Prompt, bool) {
	if w.closed || w.state == StatePending || w.staged == "" || w.booking.HasTechnician() {
		return Prompt{}, false
	}
	option, ok := w.optionLocked(w.staged)
	if !ok {
		return Prompt{}, false
	}
	return Prompt{
		BookingID:      w.bookingID,
		TechnicianID:   option.ID,
		TechnicianName: option.Name,
		Text:           fmt.Sprintf("Assign %s to this booking?", option.Name),
	}, true
}

func (w *Workflow) optionLocked(technicianID string) (model.TechnicianOption, bool) {
	for _, o := range w.options {
		if o.ID == technicianID {
			return o, true
		}
	}
	return model.TechnicianOption{}, false
}

func (w *Workflow) setMessageLocked(kind MessageKind, text string, ttl time.Duration) {
	w.clearMessageLocked()
	w.message = &Message{Kind: kind, Text: text}
	seq := w.messageSeq
	if ttl > 0 {
		w.clearTimer = time.AfterFunc(ttl, func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.messageSeq == seq && !w.closed {
				w.message = nil
				w.clearTimer = nil
			}
		})
	}
}

func (w *Workflow) clearMessageLocked() {
	w.messageSeq++
	w.message = nil
	if w.clearTimer != nil {
		w.clearTimer.Stop()
		w.clearTimer = nil
	}
}

func (w *Workflow) touchLocked() {
	w.lastUsed = w.now()
}

func (w *Workflow) result(outcome Outcome) Result {
	return Result{Outcome: outcome, View: w.View()}
}

func (w *Workflow) viewLocked() View {
	v := View{
		BookingID:  w.bookingID,
		Booking:    w.booking.Clone(),
		State:      w.state,
		Assigning:  w.state == StatePending,
		Options:    append([]model.TechnicianOption(nil), w.options...),
		SelectedID: w.staged,
		CanAssign:  !w.booking.HasTechnician() && len(w.options) > 0,
	}
	if v.Options == nil {
		v.Options = []model.TechnicianOption{}
	}
	if prompt, ok := w.preconditionsLocked(); ok {
		v.Confirmation = &prompt
	}
	if w.technician != nil {
		t := *w.technician
		v.Technician = &t
	}
	if w.message != nil {
		m := *w.message
		v.Message = &m
	}
	return v
}
