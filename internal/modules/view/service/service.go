package view

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"anoa.com/pencraft/internal/modules/post/repository"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/metrics"
	"github.com/google/uuid"
)

const viewWindow = time.Hour

type ViewService interface {
	RecordView(ctx context.Context, postID uuid.UUID, viewerKey string) error
	// SyncViews flushes pending deltas into the posts table and returns how
	// many posts were updated.
	SyncViews(ctx context.Context) (int, error)
}

type viewService struct {
	store    Store
	postRepo repository.PostRepository
}

func NewViewService(store Store, postRepo repository.PostRepository) ViewService {
	return &viewService{store: store, postRepo: postRepo}
}

// RecordView counts one view per viewer per hour.
func (s *viewService) RecordView(ctx context.Context, postID uuid.UUID, viewerKey string) error {
	if viewerKey == "" {
		viewerKey = "anonymous"
	}

	first, err := s.store.MarkViewed(ctx, postID, viewerKey, viewWindow)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	return s.store.Incr(ctx, postID)
}

func (s *viewService) SyncViews(ctx context.Context) (int, error) {
	deltas, err := s.store.Drain(ctx)
	if err != nil && len(deltas) == 0 {
		return 0, err
	}

	synced := 0
	for postID, delta := range deltas {
		if err := s.postRepo.IncrementViews(ctx, postID, delta); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				slog.Debug("dropping views for deleted post", "post_id", postID)
				continue
			}
			slog.Error("failed to sync post views", "post_id", postID, "delta", delta, "error", err)
			continue
		}
		metrics.ViewsSynced.Add(float64(delta))
		synced++
	}

	if synced > 0 {
		slog.Info("synced post views", "posts", synced)
	}
	return synced, err
}
