package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User carries only the columns the progression engine reads or writes.
// Accounts are created by the platform's auth service.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	ProfileImage *string   `gorm:"type:text" json:"profileImage,omitempty"`
	Summary      *string   `gorm:"type:text" json:"summary,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	XP           int       `gorm:"not null;default:0;index" json:"xp"`
	Level        int       `gorm:"not null;default:1" json:"level"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
