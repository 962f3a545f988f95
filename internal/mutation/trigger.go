package mutation

import "sync"

// State is the lifecycle of one user-initiated mutation
type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Trigger guards a single UI affordance (a delete button, a save action).
// While a submission is pending further submissions are refused; this is
// at-most-once per user action, not server-side idempotency.
type Trigger struct {
	mu    sync.Mutex
	state State
	err   error
}

// Begin moves the trigger to Pending. It returns false if a submission from
// this affordance is already in flight.
func (t *Trigger) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Pending {
		return false
	}
	t.state = Pending
	t.err = nil
	return true
}

// Finish records the outcome of the pending submission
func (t *Trigger) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	if err != nil {
		t.state = Failed
		return
	}
	t.state = Succeeded
}

// Reset returns the trigger to Idle unless a submission is pending
func (t *Trigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		t.state = Idle
		t.err = nil
	}
}

func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trigger) Pending() bool {
	return t.State() == Pending
}

// Err is the failure of the last submission, if any
func (t *Trigger) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
