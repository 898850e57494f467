package view

import (
	"context"
	"testing"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/post/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(t *testing.T, repo repository.PostRepository) *entity.Post {
	t.Helper()
	p := &entity.Post{Title: "t", Content: "c", Category: entity.CategoryGeneral, AuthorID: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestViewService_DedupesPerViewer(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPostRepository()
	post := newPost(t, repo)
	svc := NewViewService(NewMemoryStore(), repo)

	require.NoError(t, svc.RecordView(ctx, post.ID, "alice"))
	require.NoError(t, svc.RecordView(ctx, post.ID, "alice"))
	require.NoError(t, svc.RecordView(ctx, post.ID, "bob"))

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views, "views are buffered until sync")

	synced, err := svc.SyncViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	got, err = repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	synced, err = svc.SyncViews(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
}

func TestViewService_WindowExpires(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPostRepository()
	post := newPost(t, repo)

	store := NewMemoryStore().(*memoryStore)
	now := time.Now()
	store.now = func() time.Time { return now }
	svc := NewViewService(store, repo)

	require.NoError(t, svc.RecordView(ctx, post.ID, "alice"))
	now = now.Add(viewWindow + time.Minute)
	require.NoError(t, svc.RecordView(ctx, post.ID, "alice"))

	job := NewSyncJob(svc, "@every 1m")
	assert.Equal(t, "@every 1m", job.Schedule())
	require.NoError(t, job.Run(ctx))

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}

func TestViewService_SkipsDeletedPosts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPostRepository()
	post := newPost(t, repo)
	svc := NewViewService(NewMemoryStore(), repo)

	require.NoError(t, svc.RecordView(ctx, post.ID, ""))
	require.NoError(t, svc.RecordView(ctx, uuid.New(), "x"))

	synced, err := svc.SyncViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}
