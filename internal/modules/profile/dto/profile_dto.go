package dto

import (
	"time"

	commonDto "anoa.com/pencraft/pkg/dto"
)

type ProfileStats struct {
	Posts            int   `json:"posts"`
	LikesReceived    int   `json:"likes_received"`
	CommentsReceived int   `json:"comments_received"`
	Views            int64 `json:"views"`
	Communities      int   `json:"communities"`
}

// PublicProfileResponse is what anyone can see about an author.
type PublicProfileResponse struct {
	commonDto.AuthorResponse
	Bio      string       `json:"bio"`
	JoinedAt time.Time    `json:"joined_at"`
	Stats    ProfileStats `json:"stats"`
}
