package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/notification/dto"
	notifRepo "anoa.com/pencraft/internal/modules/notification/repository"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	commonDto "anoa.com/pencraft/pkg/dto"
	"anoa.com/pencraft/pkg/metrics"
	"github.com/google/uuid"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	List(ctx context.Context, userID uuid.UUID) (*dto.NotificationListResponse, error)
	// MarkAsRead is idempotent. Another user's notification reports not found.
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ClearAll(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []byte, func(), error)
}

type notificationService struct {
	repo     notifRepo.NotificationRepository
	userRepo userRepo.UserRepository
	feed     Feed
}

func NewNotificationService(repo notifRepo.NotificationRepository, userRepo userRepo.UserRepository, feed Feed) NotificationService {
	return &notificationService{
		repo:     repo,
		userRepo: userRepo,
		feed:     feed,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	switch notification.Type {
	case entity.NotificationLike, entity.NotificationComment, entity.NotificationFollow, entity.NotificationOther:
	case "":
		notification.Type = entity.NotificationOther
	default:
		return apperror.Validation("unknown notification type")
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()

	if s.feed == nil {
		return nil
	}

	out, err := s.respond(ctx, []entity.Notification{*notification})
	if err != nil {
		slog.Warn("failed to build live notification", "notification_id", notification.ID, "error", err)
		return nil
	}
	payload, err := json.Marshal(out[0])
	if err == nil {
		err = s.feed.Publish(ctx, notification.UserID, payload)
	}
	if err != nil {
		slog.Warn("failed to publish live notification", "user_id", notification.UserID, "error", err)
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID) (*dto.NotificationListResponse, error) {
	notifications, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out, err := s.respond(ctx, notifications)
	if err != nil {
		return nil, err
	}

	var unread int64
	for _, n := range out {
		if !n.Read {
			unread++
		}
	}
	return &dto.NotificationListResponse{Notifications: out, UnreadCount: unread}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) ClearAll(ctx context.Context, userID uuid.UUID) error {
	_, err := s.repo.DeleteAll(ctx, userID)
	return err
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []byte, func(), error) {
	if s.feed == nil {
		return nil, nil, apperror.New(http.StatusServiceUnavailable, "live notifications are unavailable", apperror.ErrUnavailable)
	}
	return s.feed.Subscribe(ctx, userID)
}

func (s *notificationService) owned(ctx context.Context, userID, id uuid.UUID) (*entity.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("notification not found")
		}
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperror.NotFound("notification not found")
	}
	return n, nil
}

func (s *notificationService) respond(ctx context.Context, notifications []entity.Notification) ([]dto.NotificationResponse, error) {
	var actorIDs []uuid.UUID
	for _, n := range notifications {
		if n.ActorID != nil {
			actorIDs = append(actorIDs, *n.ActorID)
		}
	}

	actors, err := s.userRepo.FindByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	lookup := commonDto.AuthorLookup(actors)

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp := dto.NotificationResponse{
			ID:          n.ID,
			Type:        n.Type,
			Message:     n.Message,
			PostID:      n.PostID,
			CommunityID: n.CommunityID,
			Read:        n.IsRead,
			CreatedAt:   n.CreatedAt,
		}
		if n.ActorID != nil {
			actor := lookup.Author(*n.ActorID)
			resp.Actor = &actor
		}
		out = append(out, resp)
	}
	return out, nil
}
