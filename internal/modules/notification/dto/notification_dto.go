package dto

import (
	"time"

	commonDto "anoa.com/pencraft/pkg/dto"
	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID          uuid.UUID                 `json:"id"`
	Type        string                    `json:"type"`
	Message     string                    `json:"message"`
	Actor       *commonDto.AuthorResponse `json:"actor,omitempty"`
	PostID      *uuid.UUID                `json:"post_id,omitempty"`
	CommunityID *uuid.UUID                `json:"community_id,omitempty"`
	Read        bool                      `json:"read"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// NotificationListResponse carries the unread count computed from the list
// owner's rows at read time.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}
