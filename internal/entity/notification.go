package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAchievement       NotificationType = "ACHIEVEMENT"
	NotificationSystem            NotificationType = "SYSTEM"
	NotificationApplicationUpdate NotificationType = "APPLICATION_UPDATE"
	NotificationMessage           NotificationType = "MESSAGE"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

type Notification struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID            `gorm:"type:uuid;not null;index" json:"userId"` // User who receives the notification
	Type       NotificationType     `gorm:"size:32;not null" json:"type"`
	Priority   NotificationPriority `gorm:"size:16;not null;default:'NORMAL'" json:"priority"`
	Title      string               `gorm:"size:255;not null" json:"title"`
	Message    string               `gorm:"type:text" json:"message"`
	ActionURL  string               `gorm:"type:text" json:"actionUrl"`
	IsRead     bool                 `gorm:"default:false;index" json:"isRead"`
	IsArchived bool                 `gorm:"default:false" json:"isArchived"`
	CreatedAt  time.Time            `gorm:"autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
