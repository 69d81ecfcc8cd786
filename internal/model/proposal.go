package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proposal status enum constants
const (
	StatusPending   = "PENDING"
	StatusReview    = "REVIEW"
	StatusRejected  = "REJECTED"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

// Proposal represents an event proposal travelling through the approval chain.
// It is created by a convener and mutated only through workflow transitions
// until it reaches a terminal status. Rejected proposals are kept, not deleted.
type Proposal struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Category      string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Description   string    `gorm:"type:text" json:"description"`
	SubmitterID   uuid.UUID `gorm:"type:uuid;not null;index" json:"submitter_id"`
	SubmitterRole string    `gorm:"type:varchar(50);not null" json:"submitter_role"`
	Submitter     *User     `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	StartDate     time.Time `gorm:"type:date;not null;index" json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null" json:"end_date"`
	Status        string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	// AwaitingRole is empty exactly when the status is terminal.
	AwaitingRole   string            `gorm:"type:varchar(50);index" json:"awaiting_role"`
	Version        int               `gorm:"not null;default:1" json:"version"`
	Messages       []ProposalMessage `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	FinancialItems []FinancialItem   `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"financial_items,omitempty"`
	Sponsorships   []Sponsorship     `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"sponsorships,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ProposalMessage is an append-only audit entry on a proposal: rejection
// reasons, clarification requests and approval notes all land here.
type ProposalMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;index" json:"proposal_id"`
	AuthorRole string    `gorm:"type:varchar(50);not null" json:"author_role"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// FinancialItem is one line of the proposal's budget. The workflow carries the
// breakdown through approvals but never interprets it.
type FinancialItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProposalID uuid.UUID       `gorm:"type:uuid;not null;index" json:"proposal_id"`
	Label      string          `gorm:"type:varchar(255);not null" json:"label"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_cost"`
}

// Sponsorship records funding pledged toward a proposal.
type Sponsorship struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProposalID uuid.UUID       `gorm:"type:uuid;not null;index" json:"proposal_id"`
	Sponsor    string          `gorm:"type:varchar(255);not null" json:"sponsor"`
	Kind       string          `gorm:"type:varchar(50);not null;default:'CASH'" json:"kind"` // CASH, IN_KIND
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

// IsTerminalStatus reports whether no actor-initiated transition can follow.
func IsTerminalStatus(status string) bool {
	return status == StatusRejected || status == StatusApproved || status == StatusCompleted
}
