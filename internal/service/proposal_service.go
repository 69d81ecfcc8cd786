package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type FinancialItemRequest struct {
	Label    string `json:"label" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	UnitCost string `json:"unit_cost" binding:"required"`
}

type SponsorshipRequest struct {
	Sponsor string `json:"sponsor" binding:"required"`
	Kind    string `json:"kind" binding:"omitempty,oneof=CASH IN_KIND"`
	Amount  string `json:"amount" binding:"required"`
}

type CreateProposalRequest struct {
	Title          string                 `json:"title" binding:"required"`
	Category       string                 `json:"category" binding:"required"`
	Description    string                 `json:"description"`
	StartDate      string                 `json:"start_date" binding:"required"` // 2006-01-02
	EndDate        string                 `json:"end_date" binding:"required"`
	FinancialItems []FinancialItemRequest `json:"financial_items" binding:"dive"`
	Sponsorships   []SponsorshipRequest   `json:"sponsorships" binding:"dive"`
}

type ActionRequestDTO struct {
	Comment string `json:"comment"`
}

type MessageResponse struct {
	AuthorRole string `json:"author_role"`
	AuthorID   string `json:"author_id"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at"`
}

type ProposalResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Category       string                `json:"category"`
	Description    string                `json:"description"`
	SubmitterID    string                `json:"submitter_id"`
	SubmitterRole  string                `json:"submitter_role"`
	SubmitterName  string                `json:"submitter_name,omitempty"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	Status         string                `json:"status"`
	AwaitingRole   string                `json:"awaiting_role,omitempty"`
	Version        int                   `json:"version"`
	Messages       []MessageResponse     `json:"messages,omitempty"`
	FinancialItems []model.FinancialItem `json:"financial_items,omitempty"`
	Sponsorships   []model.Sponsorship   `json:"sponsorships,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

// Websocket payload: broadcast on every successful transition so dashboards
// refresh without polling.
type ProposalEvent struct {
	Event        string `json:"event"`
	ProposalID   string `json:"proposal_id"`
	Status       string `json:"status"`
	AwaitingRole string `json:"awaiting_role,omitempty"`
	ActorRole    string `json:"actor_role,omitempty"`
}

// --- Interface ---

type ProposalService interface {
	SubmitProposal(ctx context.Context, actorID, actorRole string, req CreateProposalRequest) (ProposalResponse, error)
	ListProposals(ctx context.Context, filter repository.ProposalFilter) ([]ProposalResponse, int64, error)
	GetProposal(ctx context.Context, id string) (ProposalResponse, error)
	Act(ctx context.Context, id, actorID, actorRole, action string, payload ActionRequestDTO) (ProposalResponse, error)
	MarkCompleted(ctx context.Context, id, actorID string) (ProposalResponse, error)
}

type proposalService struct {
	proposals repository.ProposalRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	engine    *workflow.Engine
	hub       *ws.Hub
}

func NewProposalService(
	proposals repository.ProposalRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	engine *workflow.Engine,
	hub *ws.Hub,
) ProposalService {
	return &proposalService{
		proposals: proposals,
		auditRepo: auditRepo,
		txManager: txManager,
		engine:    engine,
		hub:       hub,
	}
}

// Two attempts: the first optimistic write plus one re-read retry. A second
// conflict means the proposal is being hammered and the caller should see it.
const maxActAttempts = 2

var actionToAudit = map[string]string{
	workflow.ActionApprove:        model.ActionApproveProposal,
	workflow.ActionReject:         model.ActionRejectProposal,
	workflow.ActionRequestChanges: model.ActionRequestChanges,
}

// --- Implementation ---

func (s *proposalService) SubmitProposal(ctx context.Context, actorID, actorRole string, req CreateProposalRequest) (ProposalResponse, error) {
	submitterID, err := uuid.Parse(actorID)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid submitter id: %w", err)
	}

	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid start_date: %w", err)
	}
	endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if endDate.Before(startDate) {
		return ProposalResponse{}, fmt.Errorf("end_date must not be before start_date")
	}

	items, err := parseFinancialItems(req.FinancialItems)
	if err != nil {
		return ProposalResponse{}, err
	}
	sponsorships, err := parseSponsorships(req.Sponsorships)
	if err != nil {
		return ProposalResponse{}, err
	}

	proposal := model.Proposal{
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		SubmitterID:    submitterID,
		SubmitterRole:  strings.ToLower(actorRole),
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         model.StatusPending,
		AwaitingRole:   s.engine.Chain().First(),
		Version:        1,
		FinancialItems: items,
		Sponsorships:   sponsorships,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.proposals.Create(txCtx, &proposal); createErr != nil {
			return fmt.Errorf("failed to create proposal: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"category":   req.Category,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionSubmitProposal,
			EntityID:   proposal.ID.String(),
			EntityName: req.Title,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return ProposalResponse{}, err
	}

	s.broadcast(ProposalEvent{
		Event:        "proposal_submitted",
		ProposalID:   proposal.ID.String(),
		Status:       proposal.Status,
		AwaitingRole: proposal.AwaitingRole,
		ActorRole:    proposal.SubmitterRole,
	})

	return toProposalResponse(proposal), nil
}

func (s *proposalService) ListProposals(ctx context.Context, filter repository.ProposalFilter) ([]ProposalResponse, int64, error) {
	proposals, total, err := s.proposals.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch proposals: %w", err)
	}

	result := make([]ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		result = append(result, toProposalResponse(p))
	}
	return result, total, nil
}

func (s *proposalService) GetProposal(ctx context.Context, id string) (ProposalResponse, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid proposal id: %w", err)
	}

	proposal, err := s.proposals.FindByIDWithRelations(ctx, proposalID)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("proposal not found: %w", err)
	}

	return toProposalResponse(*proposal), nil
}

// Act runs one workflow transition under optimistic concurrency: read the
// snapshot, compute the new state with the engine, write it back conditioned
// on the version being unchanged. On a version conflict the snapshot is
// re-read once and re-validated, which typically fails business validation
// ("already approved") with a precise denial instead of a silent overwrite.
func (s *proposalService) Act(ctx context.Context, id, actorID, actorRole, action string, payload ActionRequestDTO) (ProposalResponse, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid proposal id: %w", err)
	}
	authorID, err := uuid.Parse(actorID)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid user id: %w", err)
	}
	actor := workflow.Actor{ID: authorID, Role: actorRole}

	var updated model.Proposal
	for attempt := 1; ; attempt++ {
		current, findErr := s.proposals.FindByID(ctx, proposalID)
		if findErr != nil {
			return ProposalResponse{}, fmt.Errorf("proposal not found: %w", findErr)
		}

		next, msg, actErr := s.engine.Act(*current, actor, action, workflow.Payload{Comment: payload.Comment})
		if actErr != nil {
			return ProposalResponse{}, actErr
		}

		txErr := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if saveErr := s.proposals.UpdateVersioned(txCtx, &next, current.Version); saveErr != nil {
				return saveErr
			}
			if msgErr := s.proposals.AppendMessage(txCtx, &msg); msgErr != nil {
				return fmt.Errorf("failed to append message: %w", msgErr)
			}

			details, _ := json.Marshal(map[string]interface{}{
				"action":        action,
				"actor_role":    actor.Role,
				"status":        next.Status,
				"awaiting_role": next.AwaitingRole,
				"comment":       payload.Comment,
			})
			audit := &model.AuditLog{
				UserID:     &authorID,
				Action:     actionToAudit[action],
				EntityID:   next.ID.String(),
				EntityName: next.Title,
				Details:    string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}

			return nil
		})

		if txErr == nil {
			updated = next
			break
		}
		if errors.Is(txErr, repository.ErrVersionConflict) && attempt < maxActAttempts {
			continue
		}
		return ProposalResponse{}, txErr
	}

	s.broadcast(ProposalEvent{
		Event:        "proposal_transition",
		ProposalID:   updated.ID.String(),
		Status:       updated.Status,
		AwaitingRole: updated.AwaitingRole,
		ActorRole:    strings.ToLower(actorRole),
	})

	return toProposalResponse(updated), nil
}

// MarkCompleted records post-event settlement. It is the only path into
// COMPLETED; the workflow engine never initiates it.
func (s *proposalService) MarkCompleted(ctx context.Context, id, actorID string) (ProposalResponse, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid proposal id: %w", err)
	}
	userID, err := uuid.Parse(actorID)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	current, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return ProposalResponse{}, fmt.Errorf("proposal not found: %w", err)
	}
	if current.Status != model.StatusApproved {
		return ProposalResponse{}, fmt.Errorf("%w: only approved proposals can be completed, got %s", workflow.ErrInvalidState, current.Status)
	}

	next := *current
	next.Status = model.StatusCompleted
	next.AwaitingRole = ""

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.proposals.UpdateVersioned(txCtx, &next, current.Version); saveErr != nil {
			return saveErr
		}

		details, _ := json.Marshal(map[string]interface{}{"status": next.Status})
		audit := &model.AuditLog{
			UserID:     &userID,
			Action:     model.ActionCompleteProposal,
			EntityID:   next.ID.String(),
			EntityName: next.Title,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return ProposalResponse{}, err
	}

	s.broadcast(ProposalEvent{
		Event:      "proposal_completed",
		ProposalID: next.ID.String(),
		Status:     next.Status,
	})

	return toProposalResponse(next), nil
}

func (s *proposalService) broadcast(event ProposalEvent) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- data:
	default: // hub buffer full, drop rather than block the request
	}
}

// --- Helpers ---

func parseFinancialItems(reqs []FinancialItemRequest) ([]model.FinancialItem, error) {
	items := make([]model.FinancialItem, 0, len(reqs))
	for _, r := range reqs {
		cost, err := decimal.NewFromString(r.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_cost %q: %w", r.UnitCost, err)
		}
		items = append(items, model.FinancialItem{
			Label:    r.Label,
			Quantity: r.Quantity,
			UnitCost: cost,
		})
	}
	return items, nil
}

func parseSponsorships(reqs []SponsorshipRequest) ([]model.Sponsorship, error) {
	sponsorships := make([]model.Sponsorship, 0, len(reqs))
	for _, r := range reqs {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid sponsorship amount %q: %w", r.Amount, err)
		}
		kind := r.Kind
		if kind == "" {
			kind = "CASH"
		}
		sponsorships = append(sponsorships, model.Sponsorship{
			Sponsor: r.Sponsor,
			Kind:    kind,
			Amount:  amount,
		})
	}
	return sponsorships, nil
}

func toProposalResponse(p model.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:             p.ID.String(),
		Title:          p.Title,
		Category:       p.Category,
		Description:    p.Description,
		SubmitterID:    p.SubmitterID.String(),
		SubmitterRole:  p.SubmitterRole,
		StartDate:      p.StartDate.Format("2006-01-02"),
		EndDate:        p.EndDate.Format("2006-01-02"),
		Status:         p.Status,
		AwaitingRole:   p.AwaitingRole,
		Version:        p.Version,
		FinancialItems: p.FinancialItems,
		Sponsorships:   p.Sponsorships,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}

	if p.Submitter != nil {
		resp.SubmitterName = p.Submitter.Username
	}

	for _, m := range p.Messages {
		resp.Messages = append(resp.Messages, MessageResponse{
			AuthorRole: m.AuthorRole,
			AuthorID:   m.AuthorID.String(),
			Text:       m.Text,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp
}
