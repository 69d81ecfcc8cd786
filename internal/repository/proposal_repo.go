package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned by UpdateVersioned when the row's version no
// longer matches the snapshot the caller read. The caller re-reads and
// re-validates; the write is never applied over newer state.
var ErrVersionConflict = errors.New("proposal was modified concurrently")

// ProposalFilter narrows List queries.
type ProposalFilter struct {
	Status      string
	Category    string
	SubmitterID string
	Page        int
	Limit       int
}

type ProposalRepository interface {
	Create(ctx context.Context, p *model.Proposal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	List(ctx context.Context, filter ProposalFilter) ([]model.Proposal, int64, error)
	ListAll(ctx context.Context) ([]model.Proposal, error)
	// UpdateVersioned writes status/awaiting_role conditioned on the version
	// the snapshot was read at, bumping the version on success.
	UpdateVersioned(ctx context.Context, p *model.Proposal, readVersion int) error
	AppendMessage(ctx context.Context, msg *model.ProposalMessage) error
}

type proposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, p *model.Proposal) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *proposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var p model.Proposal
	if err := GetDB(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proposalRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var p model.Proposal
	if err := GetDB(ctx, r.db).
		Preload("Submitter").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("FinancialItems").
		Preload("Sponsorships").
		First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proposalRepository) List(ctx context.Context, filter ProposalFilter) ([]model.Proposal, int64, error) {
	var proposals []model.Proposal
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Proposal{})
	query = applyProposalFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	fetchQuery := applyProposalFilter(db.Preload("Submitter"), filter)
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&proposals).Error; err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

func applyProposalFilter(query *gorm.DB, filter ProposalFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SubmitterID != "" {
		query = query.Where("submitter_id = ?", filter.SubmitterID)
	}
	return query
}

// ListAll returns the full snapshot the conflict detector and the stats
// aggregator run over.
func (r *proposalRepository) ListAll(ctx context.Context) ([]model.Proposal, error) {
	var proposals []model.Proposal
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepository) UpdateVersioned(ctx context.Context, p *model.Proposal, readVersion int) error {
	result := GetDB(ctx, r.db).Model(&model.Proposal{}).
		Where("id = ? AND version = ?", p.ID, readVersion).
		Updates(map[string]interface{}{
			"status":        p.Status,
			"awaiting_role": p.AwaitingRole,
			"version":       readVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	p.Version = readVersion + 1
	return nil
}

func (r *proposalRepository) AppendMessage(ctx context.Context, msg *model.ProposalMessage) error {
	return GetDB(ctx, r.db).Create(msg).Error
}
