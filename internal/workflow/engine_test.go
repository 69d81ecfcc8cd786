package workflow

import (
	"errors"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, roles ...string) *Engine {
	t.Helper()
	chain, err := NewChain(roles)
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return NewEngineWithClock(chain, func() time.Time { return fixed })
}

func pendingProposal(awaiting string) model.Proposal {
	return model.Proposal{
		ID:           uuid.New(),
		Title:        "Annual Tech Symposium",
		Status:       model.StatusPending,
		AwaitingRole: awaiting,
	}
}

func actor(role string) Actor {
	return Actor{ID: uuid.New(), Role: role}
}

func TestApproveAdvancesThroughChain(t *testing.T) {
	e := testEngine(t, "hod", "dean", "chair")
	p := pendingProposal("hod")

	p, msg, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "dean", p.AwaitingRole)
	assert.Equal(t, "approved by hod", msg.Text)

	p, _, err = e.Act(p, actor("dean"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "chair", p.AwaitingRole)

	p, msg, err = e.Act(p, actor("chair"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, p.Status)
	assert.Empty(t, p.AwaitingRole)
	assert.Equal(t, "approved by chair", msg.Text)
	assert.Len(t, p.Messages, 3)
}

func TestApproveSingleNodeChain(t *testing.T) {
	e := testEngine(t, "hod")
	p := pendingProposal("hod")

	p, _, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, p.Status)
	assert.Empty(t, p.AwaitingRole)
}

func TestRejectIsTerminalFromAnyNode(t *testing.T) {
	e := testEngine(t, "hod", "dean", "chair")
	p := pendingProposal("hod")

	p, _, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	require.NoError(t, err)

	p, msg, err := e.Act(p, actor("dean"), ActionReject, Payload{Comment: "budget too high"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, p.Status)
	assert.Empty(t, p.AwaitingRole)
	assert.Equal(t, "budget too high", msg.Text)
	// reason preserved verbatim as the last message
	assert.Equal(t, "budget too high", p.Messages[len(p.Messages)-1].Text)
}

func TestRejectRequiresReason(t *testing.T) {
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("hod")

	_, _, err := e.Act(p, actor("hod"), ActionReject, Payload{Comment: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	// snapshot untouched on failure
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "hod", p.AwaitingRole)
}

func TestRequestChangesKeepsAwaitingRole(t *testing.T) {
	e := testEngine(t, "hod", "dean", "chair")
	p := pendingProposal("hod")

	p, _, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	require.NoError(t, err)
	require.Equal(t, "dean", p.AwaitingRole)

	p, msg, err := e.Act(p, actor("dean"), ActionRequestChanges, Payload{Comment: "please attach the venue quote"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusReview, p.Status)
	assert.Equal(t, "dean", p.AwaitingRole, "clarification must not advance the chain")
	assert.Equal(t, "please attach the venue quote", msg.Text)

	// the same role can still approve out of REVIEW
	p, _, err = e.Act(p, actor("dean"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "chair", p.AwaitingRole)
}

func TestRequestChangesRequiresComment(t *testing.T) {
	e := testEngine(t, "hod")
	p := pendingProposal("hod")

	_, _, err := e.Act(p, actor("hod"), ActionRequestChanges, Payload{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnauthorizedActor(t *testing.T) {
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("hod")

	_, _, err := e.Act(p, actor("dean"), ActionApprove, Payload{})
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestActorRoleMatchIsCaseInsensitive(t *testing.T) {
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("hod")

	p, _, err := e.Act(p, actor("HOD"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, "dean", p.AwaitingRole)
}

func TestTerminalStatusesRejectAllActions(t *testing.T) {
	e := testEngine(t, "hod", "dean")

	for _, status := range []string{model.StatusRejected, model.StatusApproved, model.StatusCompleted} {
		p := pendingProposal("")
		p.Status = status

		for _, action := range []string{ActionApprove, ActionReject, ActionRequestChanges} {
			_, _, err := e.Act(p, actor("hod"), action, Payload{Comment: "x"})
			assert.ErrorIs(t, err, ErrInvalidState, "status=%s action=%s", status, action)
		}
	}
}

func TestRoutingAnomalySurfaced(t *testing.T) {
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("") // actionable status, no awaiting role

	_, _, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	assert.ErrorIs(t, err, ErrRouting)

	p.Status = model.StatusReview
	_, _, err = e.Act(p, actor("hod"), ActionApprove, Payload{})
	assert.ErrorIs(t, err, ErrRouting)
}

func TestAwaitingRoleOutsideChainSurfaced(t *testing.T) {
	// An awaiting role the chain doesn't know is the same anomaly family as a
	// missing one: surfaced, never resolved by guessing terminal approval.
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("registrar")

	got, _, err := e.Act(p, actor("registrar"), ActionApprove, Payload{})
	assert.ErrorIs(t, err, ErrRouting)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "registrar", got.AwaitingRole)

	_, _, err = e.Act(p, actor("registrar"), ActionReject, Payload{Comment: "no"})
	assert.ErrorIs(t, err, ErrRouting)
}

func TestUnknownAction(t *testing.T) {
	e := testEngine(t, "hod")
	p := pendingProposal("hod")

	_, _, err := e.Act(p, actor("hod"), "ESCALATE", Payload{})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestAwaitingRoleInvariant(t *testing.T) {
	// awaiting role is non-empty iff status is PENDING or REVIEW,
	// across a full approve run and a rejection
	e := testEngine(t, "hod", "dean", "chair")

	p := pendingProposal("hod")
	for _, role := range []string{"hod", "dean", "chair"} {
		assertInvariant(t, p)
		var err error
		p, _, err = e.Act(p, actor(role), ActionApprove, Payload{})
		require.NoError(t, err)
	}
	assertInvariant(t, p)

	p = pendingProposal("hod")
	p, _, err := e.Act(p, actor("hod"), ActionReject, Payload{Comment: "no"})
	require.NoError(t, err)
	assertInvariant(t, p)
}

func assertInvariant(t *testing.T, p model.Proposal) {
	t.Helper()
	if p.Status == model.StatusPending || p.Status == model.StatusReview {
		assert.NotEmpty(t, p.AwaitingRole)
	} else {
		assert.Empty(t, p.AwaitingRole)
	}
}

func TestActErrorsDoNotMutateSnapshot(t *testing.T) {
	e := testEngine(t, "hod", "dean")
	p := pendingProposal("hod")

	got, _, err := e.Act(p, actor("dean"), ActionApprove, Payload{})
	require.Error(t, err)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.AwaitingRole, got.AwaitingRole)
	assert.Len(t, got.Messages, 0)
}

func TestMessageTimestampUsesClock(t *testing.T) {
	chain, err := NewChain([]string{"hod"})
	require.NoError(t, err)
	fixed := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	e := NewEngineWithClock(chain, func() time.Time { return fixed })

	_, msg, err := e.Act(pendingProposal("hod"), actor("hod"), ActionApprove, Payload{})
	require.NoError(t, err)
	assert.Equal(t, fixed, msg.CreatedAt)
}

func TestErrorsAreSentinelWrapped(t *testing.T) {
	e := testEngine(t, "hod")
	p := pendingProposal("hod")
	p.Status = model.StatusApproved
	p.AwaitingRole = ""

	_, _, err := e.Act(p, actor("hod"), ActionApprove, Payload{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Contains(t, err.Error(), "APPROVED")
}
