// Package workflow drives one analysis session through the generation
// status state machine: fetch documentation, synthesize a deck and hand it
// to a fresh presentation.
package workflow

import "errors"

// Status is the generation status of a session.
type Status string

const (
	// StatusIdle means no analysis has been requested or the last deck was closed.
	StatusIdle Status = "IDLE"
	// StatusFetchingRepo means documentation is being fetched.
	StatusFetchingRepo Status = "FETCHING_REPO"
	// StatusAnalyzing means documentation was found and is about to be synthesized.
	StatusAnalyzing Status = "ANALYZING"
	// StatusGeneratingDeck means the text model is producing the deck.
	StatusGeneratingDeck Status = "GENERATING_DECK"
	// StatusCompleted means a deck is available.
	StatusCompleted Status = "COMPLETED"
	// StatusError means the last analysis failed. It is recoverable.
	StatusError Status = "ERROR"
)

var (
	// ErrInvalidTransition is returned for a transition the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBusy is returned when an analysis is submitted while one is running.
	ErrBusy = errors.New("analysis already in progress")
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusIdle, StatusFetchingRepo, StatusAnalyzing, StatusGeneratingDeck, StatusCompleted, StatusError,
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusFetchingRepo, StatusAnalyzing, StatusGeneratingDeck, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// IsBusy reports whether an analysis is running.
func (s Status) IsBusy() bool {
	return s == StatusFetchingRepo || s == StatusAnalyzing || s == StatusGeneratingDeck
}

// CanTransitionTo returns true if the status can transition to target.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusIdle:
		return target == StatusFetchingRepo
	case StatusFetchingRepo:
		return target == StatusAnalyzing || target == StatusError
	case StatusAnalyzing:
		return target == StatusGeneratingDeck || target == StatusError
	case StatusGeneratingDeck:
		return target == StatusCompleted || target == StatusError
	case StatusCompleted:
		// closed by the user, or resubmitted
		return target == StatusIdle || target == StatusFetchingRepo
	case StatusError:
		// dismissed, or resubmitted
		return target == StatusIdle || target == StatusFetchingRepo
	default:
		return false
	}
}
