package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DeveloperProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Description string         `gorm:"type:text" json:"description"`
	Skills      datatypes.JSON `json:"skills"` // ["react", "go", ...]
	GithubURL   string         `gorm:"type:text" json:"github_url"`
	PortfolioURL string        `gorm:"type:text" json:"portfolio_url"`

	// Proof-of-work URLs, appended as uploads land.
	ProofLinks datatypes.JSON `json:"proof_links"`

	Experience int    `json:"experience"` // years
	Domain     string `gorm:"type:varchar(120)" json:"domain"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *DeveloperProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
