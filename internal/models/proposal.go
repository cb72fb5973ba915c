package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

type Proposal struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// One proposal per developer per job, enforced by the database so the
	// check-then-insert in the handler cannot race.
	JobID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_job_developer" json:"job_id"`
	DeveloperID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_job_developer" json:"developer_id"`

	ProposalText   string `gorm:"type:text" json:"proposal_text"`
	ProposedBudget int64  `json:"proposed_budget"`
	DeliveryTime   int    `json:"delivery_time"` // days

	Status ProposalStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Job       *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Developer *User `gorm:"foreignKey:DeveloperID" json:"developer,omitempty"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
