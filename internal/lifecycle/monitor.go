package lifecycle

import "sync"

// State is the app's platform visibility state.
type State int

const (
	Foreground State = iota
	Background
)

func (s State) String() string {
	if s == Background {
		return "background"
	}
	return "foreground"
}

// Monitor publishes foreground/background transitions to subscribers.
// The platform (or the CLI's signal handling) calls Set; consumers either
// poll State or range over a subscription channel. Delivery to a full
// subscriber channel is skipped, never blocked on.
type Monitor struct {
	mu    sync.Mutex
	state State
	subs  []chan State
}

// NewMonitor returns a monitor starting in the foreground state.
func NewMonitor() *Monitor {
	return &Monitor{state: Foreground}
}

// State returns the current visibility state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Foreground reports whether the app is currently visible.
func (m *Monitor) Foreground() bool {
	return m.State() == Foreground
}

// Set records a transition and notifies subscribers. Setting the current
// state again is a no-op.
func (m *Monitor) Set(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	subs := make([]chan State, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe returns a channel receiving every subsequent transition.
func (m *Monitor) Subscribe() <-chan State {
	ch := make(chan State, 4)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}
