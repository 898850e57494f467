package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/community/dto"
	"anoa.com/pencraft/internal/modules/community/repository"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	commonDto "anoa.com/pencraft/pkg/dto"
	"anoa.com/pencraft/pkg/events"
	"anoa.com/pencraft/pkg/metrics"
	"github.com/google/uuid"
)

// PostCounter counts posts published into each community.
type PostCounter interface {
	CountByCommunity(ctx context.Context, communityIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type CommunityService interface {
	CreateCommunity(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error)
	GetCommunity(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.CommunityResponse, error)
	ListCommunities(ctx context.Context, viewerID *uuid.UUID, filter dto.CommunityFilter) ([]dto.CommunityResponse, error)
	// Join adds the user to the community. Joining twice is rejected with
	// apperror.ErrAlreadyMember and changes nothing.
	Join(ctx context.Context, communityID, userID uuid.UUID) (*dto.CommunityResponse, error)
	// Leave is a no-op for non-members.
	Leave(ctx context.Context, communityID, userID uuid.UUID) (*dto.CommunityResponse, error)
	Members(ctx context.Context, communityID uuid.UUID) ([]dto.MemberResponse, error)
}

type communityService struct {
	repo      repository.CommunityRepository
	userRepo  userRepo.UserRepository
	posts     PostCounter
	notifier  Notifier
	publisher events.Publisher
}

func NewCommunityService(repo repository.CommunityRepository, userRepo userRepo.UserRepository, posts PostCounter, notifier Notifier, publisher events.Publisher) CommunityService {
	return &communityService{
		repo:      repo,
		userRepo:  userRepo,
		posts:     posts,
		notifier:  notifier,
		publisher: publisher,
	}
}

func (s *communityService) CreateCommunity(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	category := req.Category
	if category == "" {
		category = entity.CategoryGeneral
	}
	if !entity.IsCategory(category) {
		return nil, apperror.Validation("unknown category")
	}

	if _, err := s.userRepo.FindByID(ctx, creatorID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	rules := make([]string, 0, len(req.Rules))
	for _, r := range req.Rules {
		if r = strings.TrimSpace(r); r != "" {
			rules = append(rules, r)
		}
	}

	community := &entity.Community{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		ImageURL:    req.ImageURL,
		CreatorID:   creatorID,
		Rules:       rules,
		Members: []entity.CommunityMember{
			{UserID: creatorID, Role: entity.MemberRoleModerator},
		},
	}

	if err := s.repo.Create(ctx, community); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ErrCommunityExists
		}
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, community.ID)
	if err != nil {
		return nil, err
	}

	return s.respondOne(ctx, created, &creatorID)
}

func (s *communityService) GetCommunity(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.CommunityResponse, error) {
	community, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respondOne(ctx, community, viewerID)
}

func (s *communityService) ListCommunities(ctx context.Context, viewerID *uuid.UUID, filter dto.CommunityFilter) ([]dto.CommunityResponse, error) {
	communities, err := s.repo.FindAll(ctx, filter.Category)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, communities, viewerID)
}

func (s *communityService) Join(ctx context.Context, communityID, userID uuid.UUID) (*dto.CommunityResponse, error) {
	community, err := s.find(ctx, communityID)
	if err != nil {
		return nil, err
	}

	member, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	added, err := s.repo.AddMember(ctx, &entity.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        entity.MemberRoleMember,
	})
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, apperror.ErrAlreadyMember
	}

	metrics.Engagement.WithLabelValues("join").Inc()
	events.Emit(ctx, s.publisher, events.CommunityJoined, communityID.String(), events.MembershipEvent{
		CommunityID: communityID.String(),
		UserID:      userID.String(),
	})

	if community.CreatorID != userID {
		s.notify(ctx, &entity.Notification{
			UserID:      community.CreatorID,
			ActorID:     &userID,
			Type:        entity.NotificationOther,
			Message:     fmt.Sprintf("%s joined your community %s", member.FullName(), community.Name),
			CommunityID: &communityID,
		})
	}

	return s.GetCommunity(ctx, &userID, communityID)
}

func (s *communityService) Leave(ctx context.Context, communityID, userID uuid.UUID) (*dto.CommunityResponse, error) {
	if _, err := s.find(ctx, communityID); err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	if removed {
		metrics.Engagement.WithLabelValues("leave").Inc()
		events.Emit(ctx, s.publisher, events.CommunityLeft, communityID.String(), events.MembershipEvent{
			CommunityID: communityID.String(),
			UserID:      userID.String(),
		})
	}

	return s.GetCommunity(ctx, &userID, communityID)
}

func (s *communityService) Members(ctx context.Context, communityID uuid.UUID) ([]dto.MemberResponse, error) {
	if _, err := s.find(ctx, communityID); err != nil {
		return nil, err
	}

	members, err := s.repo.FindMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := commonDto.AuthorLookup(users)

	out := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, dto.MemberResponse{
			AuthorResponse: lookup.Author(m.UserID),
			Role:           roleName(m.Role),
			JoinedAt:       m.CreatedAt,
		})
	}
	return out, nil
}

func (s *communityService) find(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("community not found")
		}
		return nil, err
	}
	return community, nil
}

func (s *communityService) notify(ctx context.Context, n *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create notification", "user_id", n.UserID, "type", n.Type, "error", err)
	}
}

func (s *communityService) respondOne(ctx context.Context, community *entity.Community, viewerID *uuid.UUID) (*dto.CommunityResponse, error) {
	out, err := s.respond(ctx, []*entity.Community{community}, viewerID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// respond joins creators and post counts in two batched lookups.
func (s *communityService) respond(ctx context.Context, communities []*entity.Community, viewerID *uuid.UUID) ([]dto.CommunityResponse, error) {
	ids := make([]uuid.UUID, len(communities))
	creatorIDs := make([]uuid.UUID, len(communities))
	for i, c := range communities {
		ids[i] = c.ID
		creatorIDs[i] = c.CreatorID
	}

	creators, err := s.userRepo.FindByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	lookup := commonDto.AuthorLookup(creators)

	postCounts := map[uuid.UUID]int64{}
	if s.posts != nil && len(ids) > 0 {
		if postCounts, err = s.posts.CountByCommunity(ctx, ids); err != nil {
			return nil, err
		}
	}

	out := make([]dto.CommunityResponse, 0, len(communities))
	for _, c := range communities {
		members := make([]uuid.UUID, 0, len(c.Members))
		moderators := make([]uuid.UUID, 0, 1)
		joined := false
		for _, m := range c.Members {
			members = append(members, m.UserID)
			if m.Role == entity.MemberRoleModerator {
				moderators = append(moderators, m.UserID)
			}
			if viewerID != nil && m.UserID == *viewerID {
				joined = true
			}
		}

		rules := []string(c.Rules)
		if rules == nil {
			rules = []string{}
		}

		out = append(out, dto.CommunityResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			ImageURL:    c.ImageURL,
			Rules:       rules,
			Creator:     lookup.Author(c.CreatorID),
			Members:     members,
			MemberCount: len(members),
			Moderators:  moderators,
			Posts:       postCounts[c.ID],
			IsJoined:    joined,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func roleName(role int) string {
	if role == entity.MemberRoleModerator {
		return "moderator"
	}
	return "member"
}
