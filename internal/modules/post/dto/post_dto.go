package dto

import (
	"time"

	commonDto "anoa.com/pencraft/pkg/dto"
	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Content     string     `json:"content" binding:"required"`
	Tags        []string   `json:"tags" binding:"max=10,dive,max=30"`
	Category    string     `json:"category" binding:"omitempty,oneof=technology lifestyle travel food health education business general"`
	CommunityID *uuid.UUID `json:"community_id"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
}

// UpdatePostRequest is partial; nil fields keep their stored value.
type UpdatePostRequest struct {
	Title    *string   `json:"title" binding:"omitempty,min=1,max=255"`
	Content  *string   `json:"content" binding:"omitempty,min=1"`
	Tags     *[]string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
	Category *string   `json:"category" binding:"omitempty,oneof=technology lifestyle travel food health education business general"`
	ImageURL *string   `json:"image_url" binding:"omitempty,url"`
}

type PostFilter struct {
	Category    string     `form:"category"`
	AuthorID    *uuid.UUID `form:"-"`
	CommunityID *uuid.UUID `form:"-"`
}

// CommentRequest may carry a client generated id.
type CommentRequest struct {
	ID      *uuid.UUID `json:"id"`
	Content string     `json:"content" binding:"required,max=5000"`
}

type CommentResponse struct {
	ID        uuid.UUID                `json:"id"`
	Content   string                   `json:"content"`
	Author    commonDto.AuthorResponse `json:"author"`
	CreatedAt time.Time                `json:"created_at"`
}

type PostResponse struct {
	ID            uuid.UUID                `json:"id"`
	Title         string                   `json:"title"`
	Content       string                   `json:"content"`
	Tags          []string                 `json:"tags"`
	Category      string                   `json:"category"`
	Author        commonDto.AuthorResponse `json:"author"`
	CommunityID   *uuid.UUID               `json:"community_id,omitempty"`
	ImageURL      *string                  `json:"image_url"`
	Likes         int                      `json:"likes"`
	LikedBy       []uuid.UUID              `json:"liked_by"`
	Comments      int                      `json:"comments"`
	CommentsList  []CommentResponse        `json:"comments_list"`
	SavedBy       []uuid.UUID              `json:"saved_by"`
	Views         int64                    `json:"views"`
	TrendingScore int                      `json:"trending_score"`
	IsLiked       bool                     `json:"is_liked"`
	IsSaved       bool                     `json:"is_saved"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type LikeResponse struct {
	Liked   bool        `json:"liked"`
	Likes   int         `json:"likes"`
	LikedBy []uuid.UUID `json:"liked_by"`
}

type SaveResponse struct {
	Saved   bool        `json:"saved"`
	SavedBy []uuid.UUID `json:"saved_by"`
}
