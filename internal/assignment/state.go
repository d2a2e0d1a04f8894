package assignment

import "fmt"

// State is the lifecycle of one assignment attempt.
//
//	idle -> pending -> committed
//	            \-> rolled_back -> pending ...
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

func (s State) canTransition(to State) bool {
	switch s {
	case StateIdle, StateRolledBack:
		return to == StatePending
	case StatePending:
		return to == StateCommitted || to == StateRolledBack
	default:
		return false
	}
}

// transition moves from to to, panicking on an edge the workflow never takes.
func (s *State) transition(to State) {
	if !s.canTransition(to) {
		panic(fmt.Sprintf("assignment: invalid transition %s -> %s", *s, to))
	}
	*s = to
}

type Outcome string

const (
	// OutcomeNoOp means a precondition failed and nothing happened.
	OutcomeNoOp       Outcome = "noop"
	OutcomeDismissed  Outcome = "dismissed"
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
)

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}
