package workflow

import (
	"fmt"
	"strings"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
)

// Action enum constants
const (
	ActionApprove        = "APPROVE"
	ActionReject         = "REJECT"
	ActionRequestChanges = "REQUEST_CHANGES"
)

// Payload carries the optional free-text attached to an action: the rejection
// reason or the clarification comment. Required (non-empty) for REJECT and
// REQUEST_CHANGES, ignored for APPROVE.
type Payload struct {
	Comment string
}

// Actor identifies who is attempting the transition. The role is always an
// explicit parameter; the engine never infers it from ambient state.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// Engine applies approval-chain transitions to proposal snapshots. Act is a
// pure function of its inputs apart from message timestamps, so persistence
// and serialization stay entirely with the caller.
type Engine struct {
	chain *Chain
	now   func() time.Time
}

func NewEngine(chain *Chain) *Engine {
	return &Engine{chain: chain, now: time.Now}
}

// NewEngineWithClock injects the timestamp source, for tests.
func NewEngineWithClock(chain *Chain, now func() time.Time) *Engine {
	return &Engine{chain: chain, now: now}
}

// Chain returns the engine's configured approval chain.
func (e *Engine) Chain() *Chain {
	return e.chain
}

// Act validates the attempted action against the proposal's status and
// awaiting role, and returns the updated snapshot plus the audit message the
// transition produced. The input snapshot is never modified. Errors wrap the
// package sentinels so callers can branch on the denial reason.
func (e *Engine) Act(p model.Proposal, actor Actor, action string, payload Payload) (model.Proposal, model.ProposalMessage, error) {
	var msg model.ProposalMessage

	if model.IsTerminalStatus(p.Status) {
		return p, msg, fmt.Errorf("%w: proposal is %s", ErrInvalidState, p.Status)
	}
	if p.Status != model.StatusPending && p.Status != model.StatusReview {
		return p, msg, fmt.Errorf("%w: unknown status %q", ErrInvalidState, p.Status)
	}
	if p.AwaitingRole == "" {
		return p, msg, fmt.Errorf("%w: proposal %s is %s", ErrRouting, p.ID, p.Status)
	}
	if !e.chain.Contains(p.AwaitingRole) {
		return p, msg, fmt.Errorf("%w: awaiting role %q is not in the chain", ErrRouting, p.AwaitingRole)
	}
	if !strings.EqualFold(actor.Role, p.AwaitingRole) {
		return p, msg, fmt.Errorf("%w: awaiting %s, got %s", ErrUnauthorizedActor, p.AwaitingRole, actor.Role)
	}

	switch action {
	case ActionApprove:
		return e.approve(p, actor)
	case ActionReject:
		if strings.TrimSpace(payload.Comment) == "" {
			return p, msg, fmt.Errorf("%w: rejection reason is required", ErrValidation)
		}
		return e.reject(p, actor, payload.Comment)
	case ActionRequestChanges:
		if strings.TrimSpace(payload.Comment) == "" {
			return p, msg, fmt.Errorf("%w: clarification comment is required", ErrValidation)
		}
		return e.requestChanges(p, actor, payload.Comment)
	default:
		return p, msg, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (e *Engine) approve(p model.Proposal, actor Actor) (model.Proposal, model.ProposalMessage, error) {
	if next, ok := e.chain.NextRole(p.AwaitingRole); ok {
		p.Status = model.StatusPending
		p.AwaitingRole = next
	} else {
		p.Status = model.StatusApproved
		p.AwaitingRole = ""
	}

	msg := e.message(p, actor, fmt.Sprintf("approved by %s", strings.ToLower(actor.Role)))
	p.Messages = append(p.Messages, msg)
	return p, msg, nil
}

func (e *Engine) reject(p model.Proposal, actor Actor, reason string) (model.Proposal, model.ProposalMessage, error) {
	p.Status = model.StatusRejected
	p.AwaitingRole = ""

	msg := e.message(p, actor, reason)
	p.Messages = append(p.Messages, msg)
	return p, msg, nil
}

// requestChanges pins the awaiting role on the requesting node. The chain
// does not advance; the convener responds through a separate resubmission
// path outside this engine.
func (e *Engine) requestChanges(p model.Proposal, actor Actor, comment string) (model.Proposal, model.ProposalMessage, error) {
	p.Status = model.StatusReview

	msg := e.message(p, actor, comment)
	p.Messages = append(p.Messages, msg)
	return p, msg, nil
}

func (e *Engine) message(p model.Proposal, actor Actor, text string) model.ProposalMessage {
	return model.ProposalMessage{
		ProposalID: p.ID,
		AuthorRole: strings.ToLower(actor.Role),
		AuthorID:   actor.ID,
		Text:       text,
		CreatedAt:  e.now(),
	}
}
