package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/pencraft/internal/entity"
	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	"anoa.com/pencraft/internal/modules/user/dto"
	"anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/events"
	"github.com/google/uuid"
)

type UserService interface {
	GetUser(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error)
	// AddUserCommunity and RemoveUserCommunity are idempotent set operations
	// on the shared membership table.
	AddUserCommunity(ctx context.Context, actorID, userID, communityID uuid.UUID) (*dto.UserResponse, error)
	RemoveUserCommunity(ctx context.Context, actorID, userID, communityID uuid.UUID) (*dto.UserResponse, error)
}

type userService struct {
	repo          repository.UserRepository
	communityRepo communityRepo.CommunityRepository
	publisher     events.Publisher
}

func NewUserService(repo repository.UserRepository, communityRepo communityRepo.CommunityRepository, publisher events.Publisher) UserService {
	return &userService{repo: repo, communityRepo: communityRepo, publisher: publisher}
}

func (s *userService) GetUser(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	return s.respond(ctx, user, viewerID != nil && *viewerID == id)
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error) {
	if actorID != id {
		return nil, apperror.Forbidden("you can only update your own profile")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperror.Validation("username cannot be empty")
		}
		user.Username = username
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperror.Validation("email cannot be empty")
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		if *input.AvatarURL == "" {
			user.AvatarURL = nil
		} else {
			user.AvatarURL = input.AvatarURL
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ErrUserExists
		}
		return nil, err
	}

	return s.respond(ctx, user, true)
}

func (s *userService) AddUserCommunity(ctx context.Context, actorID, userID, communityID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.authorize(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("community not found")
		}
		return nil, err
	}

	added, err := s.communityRepo.AddMember(ctx, &entity.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        entity.MemberRoleMember,
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.publish(ctx, events.CommunityJoined, communityID, userID)
	}

	return s.respond(ctx, user, true)
}

func (s *userService) RemoveUserCommunity(ctx context.Context, actorID, userID, communityID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.authorize(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.communityRepo.RemoveMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	if removed {
		s.publish(ctx, events.CommunityLeft, communityID, userID)
	}

	return s.respond(ctx, user, true)
}

func (s *userService) authorize(ctx context.Context, actorID, userID uuid.UUID) (*entity.User, error) {
	if actorID != userID {
		return nil, apperror.Forbidden("you can only change your own communities")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) respond(ctx context.Context, user *entity.User, self bool) (*dto.UserResponse, error) {
	communities, err := s.communityRepo.CommunityIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user, communities, self), nil
}

func (s *userService) publish(ctx context.Context, subject string, communityID, userID uuid.UUID) {
	events.Emit(ctx, s.publisher, subject, communityID.String(), events.MembershipEvent{
		CommunityID: communityID.String(),
		UserID:      userID.String(),
	})
}
