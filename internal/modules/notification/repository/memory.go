package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/google/uuid"
)

type memoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*entity.Notification
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{notifications: make(map[uuid.UUID]*entity.Notification)}
}

func (r *memoryNotificationRepository) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		n.ID = id
	}
	if _, exists := r.notifications[n.ID]; exists {
		return apperror.ErrConflict
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	stored := *n
	r.notifications[n.ID] = &stored
	return nil
}

func (r *memoryNotificationRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memoryNotificationRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Notification, 0)
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryNotificationRepository) MarkAsRead(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.notifications[id]; ok && n.UserID == userID {
		n.IsRead = true
	}
	return nil
}

func (r *memoryNotificationRepository) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *memoryNotificationRepository) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(r.notifications, id)
	return true, nil
}

func (r *memoryNotificationRepository) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, n := range r.notifications {
		if n.UserID == userID {
			delete(r.notifications, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memoryNotificationRepository) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
