package dto

import (
	"time"

	commonDto "anoa.com/pencraft/pkg/dto"
	"github.com/google/uuid"
)

type CreateCommunityRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=2000"`
	Category    string   `json:"category" binding:"omitempty,oneof=technology lifestyle travel food health education business general"`
	ImageURL    *string  `json:"image_url" binding:"omitempty,url"`
	Rules       []string `json:"rules" binding:"max=20,dive,max=300"`
}

type CommunityFilter struct {
	Category string `form:"category"`
}

type MembershipRequest struct {
	CommunityID uuid.UUID `json:"community_id" binding:"required"`
}

type CommunityResponse struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	ImageURL    *string                  `json:"image_url"`
	Rules       []string                 `json:"rules"`
	Creator     commonDto.AuthorResponse `json:"creator"`
	Members     []uuid.UUID              `json:"members"`
	MemberCount int                      `json:"member_count"`
	Moderators  []uuid.UUID              `json:"moderators"`
	Posts       int64                    `json:"posts"`
	IsJoined    bool                     `json:"is_joined"`
	CreatedAt   time.Time                `json:"created_at"`
}

type MemberResponse struct {
	commonDto.AuthorResponse
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
