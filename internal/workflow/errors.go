package workflow

import "errors"

// Sentinel errors for the approval state machine. Handlers map these to HTTP
// status codes with errors.Is, so every denial keeps a stable identity even
// when wrapped with context.
var (
	// ErrUnauthorizedActor means the actor's role is not the proposal's
	// awaiting role.
	ErrUnauthorizedActor = errors.New("actor is not the awaiting role")

	// ErrInvalidState means an action was attempted against a terminal status.
	ErrInvalidState = errors.New("proposal is in a terminal state")

	// ErrRouting means the awaiting role is empty while the status is still
	// actionable. A data-integrity anomaly: surfaced, never auto-resolved.
	ErrRouting = errors.New("no awaiting role set for an actionable proposal")

	// ErrValidation means a required payload field is missing, e.g. an empty
	// rejection reason.
	ErrValidation = errors.New("invalid action payload")

	// ErrUnknownAction means the action verb is not part of the vocabulary.
	ErrUnknownAction = errors.New("unknown workflow action")
)
