package profile

import (
	"context"
	"strings"

	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	postRepo "anoa.com/pencraft/internal/modules/post/repository"
	profileDto "anoa.com/pencraft/internal/modules/profile/dto"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	commonDto "anoa.com/pencraft/pkg/dto"
)

type ProfileService interface {
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error)
}

type profileService struct {
	users       userRepo.UserRepository
	posts       postRepo.PostRepository
	communities communityRepo.CommunityRepository
}

func NewProfileService(users userRepo.UserRepository, posts postRepo.PostRepository, communities communityRepo.CommunityRepository) ProfileService {
	return &profileService{users: users, posts: posts, communities: communities}
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.Validation("username is required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	authored, err := s.posts.FindAll(ctx, postRepo.Filter{AuthorID: &user.ID})
	if err != nil {
		return nil, err
	}
	joined, err := s.communities.CommunityIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := profileDto.ProfileStats{Posts: len(authored), Communities: len(joined)}
	for _, p := range authored {
		stats.LikesReceived += len(p.LikedBy())
		stats.CommentsReceived += len(p.Comments)
		stats.Views += p.Views
	}

	return &profileDto.PublicProfileResponse{
		AuthorResponse: commonDto.NewAuthorResponse(user),
		Bio:            user.Bio,
		JoinedAt:       user.CreatedAt,
		Stats:          stats,
	}, nil
}
