package bootstrap

import (
	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	notifRepo "anoa.com/pencraft/internal/modules/notification/repository"
	postRepo "anoa.com/pencraft/internal/modules/post/repository"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"gorm.io/gorm"
)

// Repositories groups every store the server and the seeder share.
type Repositories struct {
	Users         userRepo.UserRepository
	Communities   communityRepo.CommunityRepository
	Posts         postRepo.PostRepository
	Notifications notifRepo.NotificationRepository
}

func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         userRepo.NewUserRepository(db),
		Communities:   communityRepo.NewCommunityRepository(db),
		Posts:         postRepo.NewPostRepository(db),
		Notifications: notifRepo.NewNotificationRepository(db),
	}
}

// NewMemoryRepositories backs DB_DRIVER=memory and tests.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Users:         userRepo.NewMemoryUserRepository(),
		Communities:   communityRepo.NewMemoryCommunityRepository(),
		Posts:         postRepo.NewMemoryPostRepository(),
		Notifications: notifRepo.NewMemoryNotificationRepository(),
	}
}
