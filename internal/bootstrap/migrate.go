package bootstrap

import (
	"anoa.com/pencraft/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Community{},
		&entity.CommunityMember{},
		&entity.Post{},
		&entity.PostLike{},
		&entity.PostSave{},
		&entity.Comment{},
		&entity.Notification{},
	)
}
