package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MemberRoleMember    = 0
	MemberRoleModerator = 1
)

type Community struct {
	ID          uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string                      `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Category    string                      `gorm:"size:30;not null;default:general;index" json:"category"`
	ImageURL    *string                     `gorm:"type:text" json:"image_url,omitempty"`
	CreatorID   uuid.UUID                   `gorm:"type:char(36);not null;index" json:"creator_id"`
	Rules       datatypes.JSONSlice[string] `json:"rules"`
	Members     []CommunityMember           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// CommunityMember is the single membership record. A user's community list
// and a community's member list are both read from this table.
type CommunityMember struct {
	CommunityID uuid.UUID `gorm:"type:char(36);primaryKey" json:"community_id"`
	UserID      uuid.UUID `gorm:"type:char(36);primaryKey;index" json:"user_id"`
	Role        int       `gorm:"not null;default:0" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CommunityMember) TableName() string {
	return "community_members"
}
