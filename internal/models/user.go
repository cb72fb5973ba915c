package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient    Role = "client"
	RoleDeveloper Role = "developer"
	// RoleUnset marks an account that has not finished onboarding yet.
	RoleUnset Role = ""
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientProfile    *ClientProfile    `gorm:"foreignKey:UserID;references:ID" json:"client_profile,omitempty"`
	DeveloperProfile *DeveloperProfile `gorm:"foreignKey:UserID;references:ID" json:"developer_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
