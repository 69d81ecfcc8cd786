package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes ---

type fakeProposalRepo struct {
	proposals map[uuid.UUID]*model.Proposal
	messages  []model.ProposalMessage
	// afterFind simulates a concurrent writer sneaking in between the
	// snapshot read and the versioned write
	afterFind func()
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{proposals: make(map[uuid.UUID]*model.Proposal)}
}

func (f *fakeProposalRepo) Create(_ context.Context, p *model.Proposal) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.proposals[p.ID] = &cp
	return nil
}

func (f *fakeProposalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *p
	if f.afterFind != nil {
		f.afterFind()
	}
	return &cp, nil
}

func (f *fakeProposalRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProposalRepo) List(_ context.Context, _ repository.ProposalFilter) ([]model.Proposal, int64, error) {
	var out []model.Proposal
	for _, p := range f.proposals {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProposalRepo) ListAll(ctx context.Context) ([]model.Proposal, error) {
	out, _, err := f.List(ctx, repository.ProposalFilter{})
	return out, err
}

func (f *fakeProposalRepo) UpdateVersioned(_ context.Context, p *model.Proposal, readVersion int) error {
	stored, ok := f.proposals[p.ID]
	if !ok || stored.Version != readVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = p.Status
	stored.AwaitingRole = p.AwaitingRole
	stored.Version = readVersion + 1
	p.Version = stored.Version
	return nil
}

func (f *fakeProposalRepo) AppendMessage(_ context.Context, msg *model.ProposalMessage) error {
	f.messages = append(f.messages, *msg)
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- helpers ---

func newTestService(t *testing.T, repo *fakeProposalRepo, audit *fakeAuditRepo) ProposalService {
	t.Helper()
	chain, err := workflow.ParseChain("hod,dean,chair")
	require.NoError(t, err)
	engine := workflow.NewEngine(chain)
	return NewProposalService(repo, audit, fakeTxManager{}, engine, nil)
}

func seedProposal(repo *fakeProposalRepo, status, awaiting string) uuid.UUID {
	id := uuid.New()
	repo.proposals[id] = &model.Proposal{
		ID:           id,
		Title:        "Robotics Workshop",
		Category:     "workshop",
		SubmitterID:  uuid.New(),
		StartDate:    time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:       status,
		AwaitingRole: awaiting,
		Version:      1,
	}
	return id
}

// --- tests ---

func TestSubmitProposalRoutesToFirstChainNode(t *testing.T) {
	repo := newFakeProposalRepo()
	audit := &fakeAuditRepo{}
	svc := newTestService(t, repo, audit)

	resp, err := svc.SubmitProposal(context.Background(), uuid.NewString(), "convener", CreateProposalRequest{
		Title:     "Annual Tech Symposium",
		Category:  "symposium",
		StartDate: "2024-03-12",
		EndDate:   "2024-03-14",
		FinancialItems: []FinancialItemRequest{
			{Label: "Venue", Quantity: 1, UnitCost: "1500.00"},
		},
		Sponsorships: []SponsorshipRequest{
			{Sponsor: "Acme Corp", Amount: "500.00"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Equal(t, "hod", resp.AwaitingRole)
	assert.Equal(t, 1, resp.Version)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionSubmitProposal, audit.entries[0].Action)
}

func TestSubmitProposalRejectsInvertedDates(t *testing.T) {
	svc := newTestService(t, newFakeProposalRepo(), &fakeAuditRepo{})

	_, err := svc.SubmitProposal(context.Background(), uuid.NewString(), "convener", CreateProposalRequest{
		Title:     "Backwards",
		Category:  "talk",
		StartDate: "2024-03-14",
		EndDate:   "2024-03-12",
	})
	assert.Error(t, err)
}

func TestActApproveAdvancesAndRecords(t *testing.T) {
	repo := newFakeProposalRepo()
	audit := &fakeAuditRepo{}
	svc := newTestService(t, repo, audit)
	id := seedProposal(repo, model.StatusPending, "hod")

	resp, err := svc.Act(context.Background(), id.String(), uuid.NewString(), "hod", workflow.ActionApprove, ActionRequestDTO{})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Equal(t, "dean", resp.AwaitingRole)
	assert.Equal(t, 2, resp.Version)

	require.Len(t, repo.messages, 1)
	assert.Equal(t, "approved by hod", repo.messages[0].Text)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionApproveProposal, audit.entries[0].Action)

	stored := repo.proposals[id]
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, "dean", stored.AwaitingRole)
}

func TestActRejectPreservesReason(t *testing.T) {
	repo := newFakeProposalRepo()
	svc := newTestService(t, repo, &fakeAuditRepo{})
	id := seedProposal(repo, model.StatusPending, "dean")

	resp, err := svc.Act(context.Background(), id.String(), uuid.NewString(), "dean", workflow.ActionReject, ActionRequestDTO{Comment: "budget too high"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, resp.Status)
	assert.Empty(t, resp.AwaitingRole)
	require.Len(t, repo.messages, 1)
	assert.Equal(t, "budget too high", repo.messages[0].Text)
}

func TestActValidationErrorLeavesStateUntouched(t *testing.T) {
	repo := newFakeProposalRepo()
	svc := newTestService(t, repo, &fakeAuditRepo{})
	id := seedProposal(repo, model.StatusPending, "hod")

	_, err := svc.Act(context.Background(), id.String(), uuid.NewString(), "hod", workflow.ActionReject, ActionRequestDTO{})
	assert.ErrorIs(t, err, workflow.ErrValidation)

	stored := repo.proposals[id]
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 1, stored.Version)
	assert.Empty(t, repo.messages)
}

func TestActStaleSnapshotNeverOverwrites(t *testing.T) {
	// A concurrent approver lands between our read and our write. The first
	// versioned write must fail, and the retry must re-validate against the
	// new state instead of overwriting it.
	repo := newFakeProposalRepo()
	svc := newTestService(t, repo, &fakeAuditRepo{})
	id := seedProposal(repo, model.StatusPending, "hod")

	raced := false
	repo.afterFind = func() {
		if raced {
			return
		}
		raced = true
		// the other hod rejects first
		stored := repo.proposals[id]
		stored.Status = model.StatusRejected
		stored.AwaitingRole = ""
		stored.Version++
	}

	_, err := svc.Act(context.Background(), id.String(), uuid.NewString(), "hod", workflow.ActionApprove, ActionRequestDTO{})
	assert.ErrorIs(t, err, workflow.ErrInvalidState)

	stored := repo.proposals[id]
	assert.Equal(t, model.StatusRejected, stored.Status, "the concurrent rejection must survive")
	assert.Equal(t, 2, stored.Version)
}

func TestActUnauthorizedRole(t *testing.T) {
	repo := newFakeProposalRepo()
	svc := newTestService(t, repo, &fakeAuditRepo{})
	id := seedProposal(repo, model.StatusPending, "hod")

	_, err := svc.Act(context.Background(), id.String(), uuid.NewString(), "dean", workflow.ActionApprove, ActionRequestDTO{})
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedActor)
}

func TestActBroadcastsEvenWhenHubIsNotDraining(t *testing.T) {
	// The hub's dispatch loop is not running here. The buffered Broadcast
	// channel must still accept the transition event instead of dropping it.
	repo := newFakeProposalRepo()
	chain, err := workflow.ParseChain("hod")
	require.NoError(t, err)
	hub := ws.NewHub()
	svc := NewProposalService(repo, &fakeAuditRepo{}, fakeTxManager{}, workflow.NewEngine(chain), hub)
	id := seedProposal(repo, model.StatusPending, "hod")

	_, err = svc.Act(context.Background(), id.String(), uuid.NewString(), "hod", workflow.ActionApprove, ActionRequestDTO{})
	require.NoError(t, err)

	select {
	case data := <-hub.Broadcast:
		var ev ProposalEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, "proposal_transition", ev.Event)
		assert.Equal(t, id.String(), ev.ProposalID)
		assert.Equal(t, model.StatusApproved, ev.Status)
	default:
		t.Fatal("expected a buffered broadcast event")
	}
}

func TestMarkCompletedOnlyFromApproved(t *testing.T) {
	repo := newFakeProposalRepo()
	audit := &fakeAuditRepo{}
	svc := newTestService(t, repo, audit)

	approved := seedProposal(repo, model.StatusApproved, "")
	resp, err := svc.MarkCompleted(context.Background(), approved.String(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, resp.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionCompleteProposal, audit.entries[0].Action)

	pending := seedProposal(repo, model.StatusPending, "hod")
	_, err = svc.MarkCompleted(context.Background(), pending.String(), uuid.NewString())
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}
