package turn

import "fmt"

// State is a phase of the turn cycle.
type State int

const (
	Idle State = iota
	AwaitingMoveAck
	AwaitingAISnapshot
	AwaitingAIResult
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingMoveAck:
		return "awaiting_move_ack"
	case AwaitingAISnapshot:
		return "awaiting_ai_snapshot"
	case AwaitingAIResult:
		return "awaiting_ai_result"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a transition.
type Event int

const (
	EvActivate     Event = iota // human picked a cell
	EvSubmitFailed              // move POST failed
	EvAckFetched                // post-move fetch finished, success or failure
	EvAckWinner                 // post-move fetch shows a finished game
	EvDelayElapsed
	EvAIApplied
	EvAIWinner
	EvAIFailed
	EvRefreshed
	EvRefreshWinner
	EvAborted // cycle context cancelled
	EvReset
)

func (e Event) String() string {
	switch e {
	case EvActivate:
		return "activate"
	case EvSubmitFailed:
		return "submit_failed"
	case EvAckFetched:
		return "ack_fetched"
	case EvAckWinner:
		return "ack_winner"
	case EvDelayElapsed:
		return "delay_elapsed"
	case EvAIApplied:
		return "ai_applied"
	case EvAIWinner:
		return "ai_winner"
	case EvAIFailed:
		return "ai_failed"
	case EvRefreshed:
		return "refreshed"
	case EvRefreshWinner:
		return "refresh_winner"
	case EvAborted:
		return "aborted"
	case EvReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var transitions = map[State]map[Event]State{
	Idle: {
		EvActivate:      AwaitingMoveAck,
		EvRefreshed:     Idle,
		EvRefreshWinner: Terminal,
	},
	AwaitingMoveAck: {
		EvSubmitFailed: Idle,
		EvAckFetched:   AwaitingAISnapshot,
		EvAckWinner:    Terminal,
		EvAborted:      Idle,
	},
	AwaitingAISnapshot: {
		EvDelayElapsed: AwaitingAIResult,
		EvAborted:      Idle,
	},
	AwaitingAIResult: {
		EvAIApplied: Idle,
		EvAIWinner:  Terminal,
		EvAIFailed:  Idle,
		EvAborted:   Idle,
	},
	Terminal: {
		EvRefreshed:     Idle,
		EvRefreshWinner: Terminal,
	},
}

// Next is the pure transition function. Reset is accepted from every state.
func Next(from State, ev Event) (State, bool) {
	if ev == EvReset {
		return Idle, true
	}
	to, ok := transitions[from][ev]
	return to, ok
}

// Machine holds the current state and applies transitions.
type Machine struct {
	state State
}

func (m *Machine) State() State { return m.state }

// Fire applies ev, returning an error when the event is not valid in the current state.
func (m *Machine) Fire(ev Event) error {
	to, ok := Next(m.state, ev)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev, m.state)
	}
	m.state = to
	return nil
}

// Busy reports whether a cycle is in flight.
func (m *Machine) Busy() bool {
	return m.state != Idle && m.state != Terminal
}
