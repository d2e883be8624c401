package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/c360studio/repodeck/export"
	"github.com/c360studio/repodeck/source"
	"github.com/c360studio/repodeck/synth"
)

// GenericMessage is shown for failures without a more specific message.
const GenericMessage = "Something went wrong during generation. Please try again."

// UserMessage maps an error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, source.ErrNotFound):
		return source.NotFoundMessage
	case errors.Is(err, synth.ErrSynthesis):
		return synth.UserMessage
	case errors.Is(err, export.ErrExport):
		return export.UserMessage
	default:
		return GenericMessage
	}
}

// Transition records one status change.
type Transition struct {
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Machine is the generation status state machine. Observers run
// synchronously after each transition, in registration order, outside the
// machine's lock.
type Machine struct {
	mu        sync.Mutex
	status    Status
	message   string
	observers []func(Transition)
	now       func() time.Time
}

// NewMachine creates a machine in StatusIdle.
func NewMachine() *Machine {
	return &Machine{status: StatusIdle, now: time.Now}
}

// OnTransition registers fn to receive every transition.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Message returns the user-facing error message. Empty unless in StatusError.
func (m *Machine) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

// Transition moves to target. The message is kept only for StatusError.
func (m *Machine) Transition(target Status, message string) error {
	return m.apply(func(from Status) error {
		if !from.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
		}
		return nil
	}, target, message)
}

// Begin starts an analysis by moving to StatusFetchingRepo. It fails with
// ErrBusy while another analysis is running.
func (m *Machine) Begin() error {
	return m.apply(func(from Status) error {
		if from.IsBusy() {
			return ErrBusy
		}
		return nil
	}, StatusFetchingRepo, "")
}

// Fail moves a running analysis to StatusError with the user message for
// err. It reports false when no analysis was running.
func (m *Machine) Fail(err error) bool {
	applied := m.apply(func(from Status) error {
		if !from.IsBusy() {
			return ErrInvalidTransition
		}
		return nil
	}, StatusError, UserMessage(err))
	return applied == nil
}

func (m *Machine) apply(check func(from Status) error, target Status, message string) error {
	m.mu.Lock()
	from := m.status
	if err := check(from); err != nil {
		m.mu.Unlock()
		return err
	}
	if target != StatusError {
		message = ""
	}
	m.status = target
	m.message = message
	t := Transition{From: from, To: target, Message: message, At: m.now()}
	observers := append([]func(Transition){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
	return nil
}
