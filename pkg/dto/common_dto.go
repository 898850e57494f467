package dto

import (
	"anoa.com/pencraft/internal/entity"
	"github.com/google/uuid"
)

// AuthorResponse is the author snapshot embedded in posts, comments and
// communities. It is built from the user record at read time.
type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
}

// UnknownAuthor is shown when the referenced user no longer exists.
func UnknownAuthor(id uuid.UUID) AuthorResponse {
	return AuthorResponse{ID: id, Username: "unknown", Name: "Unknown user"}
}

func NewAuthorResponse(u *entity.User) AuthorResponse {
	if u == nil {
		return UnknownAuthor(uuid.Nil)
	}
	return AuthorResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.FullName(),
		AvatarURL: u.AvatarURL,
	}
}

// AuthorLookup resolves author snapshots from a preloaded user map.
type AuthorLookup map[uuid.UUID]*entity.User

func (l AuthorLookup) Author(id uuid.UUID) AuthorResponse {
	if u, ok := l[id]; ok {
		return NewAuthorResponse(u)
	}
	return UnknownAuthor(id)
}

type MessageResponse struct {
	Message string `json:"message"`
}
