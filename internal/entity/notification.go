package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationOther   = "other"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:char(36);not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	ActorID     *uuid.UUID `gorm:"type:char(36)" json:"actor_id,omitempty"`
	Type        string     `gorm:"size:20;not null" json:"type"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	PostID      *uuid.UUID `gorm:"type:char(36)" json:"post_id,omitempty"`
	CommunityID *uuid.UUID `gorm:"type:char(36)" json:"community_id,omitempty"`
	IsRead      bool       `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
