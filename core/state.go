package core

import "fmt"

// State is a core's lifecycle position.
type State uint32

const (
	StateUninitialized State = iota
	StateReady
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// StateMachine enforces the lifecycle transitions. Cores embed it and call
// its methods from their own lifecycle methods. It is not safe for
// concurrent use.
type StateMachine struct {
	state State
}

// State returns the current state.
func (m *StateMachine) State() State {
	return m.state
}

// MarkReady moves an uninitialized machine to StateReady.
func (m *StateMachine) MarkReady() {
	if m.state == StateUninitialized {
		m.state = StateReady
	}
}

// Begin moves Ready to Running.
func (m *StateMachine) Begin() error {
	if m.state != StateReady {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidState, m.state)
	}
	m.state = StateRunning
	return nil
}

// End moves Running or Paused to Stopped. From any other state it does nothing.
func (m *StateMachine) End() {
	if m.state == StateRunning || m.state == StatePaused {
		m.state = StateStopped
	}
}

// Resume moves Paused to Running and reports whether it did.
func (m *StateMachine) Resume() bool {
	if m.state != StatePaused {
		return false
	}
	m.state = StateRunning
	return true
}

// Suspend moves Running to Paused and reports whether it did.
func (m *StateMachine) Suspend() bool {
	if m.state != StateRunning {
		return false
	}
	m.state = StatePaused
	return true
}

// Active reports whether a game is loaded (running or paused).
func (m *StateMachine) Active() bool {
	return m.state == StateRunning || m.state == StatePaused
}

// CanExecute reports whether ExecuteFrame may advance the machine.
func (m *StateMachine) CanExecute() bool {
	return m.state == StateRunning
}
