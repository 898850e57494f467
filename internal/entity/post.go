package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CategoryTechnology = "technology"
	CategoryLifestyle  = "lifestyle"
	CategoryTravel     = "travel"
	CategoryFood       = "food"
	CategoryHealth     = "health"
	CategoryEducation  = "education"
	CategoryBusiness   = "business"
	CategoryGeneral    = "general"
)

var Categories = []string{
	CategoryTechnology,
	CategoryLifestyle,
	CategoryTravel,
	CategoryFood,
	CategoryHealth,
	CategoryEducation,
	CategoryBusiness,
	CategoryGeneral,
}

func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Post is a blog entry. Likes, saves and comments are owned rows; every
// count exposed to clients is computed from them.
type Post struct {
	ID            uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Category      string                      `gorm:"size:30;not null;default:general;index" json:"category"`
	AuthorID      uuid.UUID                   `gorm:"type:char(36);not null;index" json:"author_id"`
	CommunityID   *uuid.UUID                  `gorm:"type:char(36);index" json:"community_id,omitempty"`
	ImageURL      *string                     `gorm:"type:text" json:"image_url,omitempty"`
	Views         int64                       `gorm:"not null;default:0" json:"views"`
	TrendingScore int                         `gorm:"not null;default:0" json:"trending_score"`
	Likes         []PostLike                  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Saves         []PostSave                  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments      []Comment                   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

// LikedBy returns the ids of users who like the post, oldest like first.
func (p *Post) LikedBy() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Likes))
	for _, l := range p.Likes {
		ids = append(ids, l.UserID)
	}
	return ids
}

func (p *Post) SavedBy() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Saves))
	for _, s := range p.Saves {
		ids = append(ids, s.UserID)
	}
	return ids
}

func (p *Post) IsLikedBy(userID uuid.UUID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

func (p *Post) IsSavedBy(userID uuid.UUID) bool {
	for _, s := range p.Saves {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// PostLike records that a user likes a post. The composite key keeps a user
// from liking the same post twice.
type PostLike struct {
	PostID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

type PostSave struct {
	PostID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PostSave) TableName() string {
	return "post_saves"
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;index" json:"post_id"`
	AuthorID  uuid.UUID `gorm:"type:char(36);not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
