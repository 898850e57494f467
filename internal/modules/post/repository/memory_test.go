package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, repo PostRepository, title string, createdAt time.Time) *entity.Post {
	t.Helper()
	p := &entity.Post{
		Title:     title,
		Content:   "body",
		Category:  entity.CategoryGeneral,
		AuthorID:  uuid.New(),
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestToggleLikeKeepsCountAndSetInStep(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	post := seedPost(t, repo, "Hello", time.Now())
	user := uuid.New()

	liked, likedBy, err := repo.ToggleLike(ctx, post.ID, user)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []uuid.UUID{user}, likedBy)

	liked, likedBy, err = repo.ToggleLike(ctx, post.ID, user)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likedBy)

	_, _, err = repo.ToggleLike(ctx, uuid.New(), user)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestConcurrentTogglesNeverDuplicateLikes(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	post := seedPost(t, repo, "Busy", time.Now())

	users := make([]uuid.UUID, 8)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, u := range users {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(u uuid.UUID) {
				defer wg.Done()
				_, _, _ = repo.ToggleLike(ctx, post.ID, u)
			}(u)
		}
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	// three toggles each leave every user liking the post
	assert.Len(t, got.LikedBy(), len(users))
	assert.ElementsMatch(t, users, got.LikedBy())
}

func TestCommentsArePrependedAndIDsUnique(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	post := seedPost(t, repo, "Thread", time.Now())

	first := &entity.Comment{PostID: post.ID, AuthorID: uuid.New(), Content: "first"}
	require.NoError(t, repo.AddComment(ctx, first))
	second := &entity.Comment{PostID: post.ID, AuthorID: uuid.New(), Content: "second"}
	require.NoError(t, repo.AddComment(ctx, second))

	dup := &entity.Comment{ID: first.ID, PostID: post.ID, AuthorID: uuid.New(), Content: "dup"}
	assert.ErrorIs(t, repo.AddComment(ctx, dup), apperror.ErrConflict)

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "second", got.Comments[0].Content)

	removed, err := repo.DeleteComment(ctx, post.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteComment(ctx, post.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err = repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)
}

func TestSaveUnsaveIdempotent(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	older := seedPost(t, repo, "older", time.Now().Add(-time.Hour))
	newer := seedPost(t, repo, "newer", time.Now())
	user := uuid.New()

	added, err := repo.Save(ctx, older.ID, user)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.Save(ctx, older.ID, user)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = repo.Save(ctx, newer.ID, user)
	require.NoError(t, err)

	saved, err := repo.FindSavedBy(ctx, user)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	removed, err := repo.Unsave(ctx, older.ID, user)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Unsave(ctx, older.ID, user)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SavedBy())
}

func TestFindAllOrdersNewestFirstAndFilters(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	community := uuid.New()

	old := seedPost(t, repo, "old", time.Now().Add(-2*time.Hour))
	mid := &entity.Post{Title: "mid", Content: "x", Category: entity.CategoryTravel, AuthorID: uuid.New(), CommunityID: &community, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, mid))
	latest := seedPost(t, repo, "latest", time.Now())

	all, err := repo.FindAll(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{latest.ID, mid.ID, old.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	travel, err := repo.FindAll(ctx, Filter{Category: entity.CategoryTravel})
	require.NoError(t, err)
	require.Len(t, travel, 1)

	byAuthor, err := repo.FindAll(ctx, Filter{AuthorID: &old.AuthorID})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, old.ID, byAuthor[0].ID)

	counts, err := repo.CountByCommunity(ctx, []uuid.UUID{community, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{community: 1}, counts)
}

func TestDeleteCascadesAndViews(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	post := seedPost(t, repo, "gone", time.Now())
	comment := &entity.Comment{PostID: post.ID, AuthorID: uuid.New(), Content: "hi"}
	require.NoError(t, repo.AddComment(ctx, comment))

	require.NoError(t, repo.IncrementViews(ctx, post.ID, 3))
	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Views)

	require.NoError(t, repo.Delete(ctx, post.ID))
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), apperror.ErrNotFound)
	_, err = repo.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	other := seedPost(t, repo, "other", time.Now())
	reused := &entity.Comment{ID: comment.ID, PostID: other.ID, AuthorID: uuid.New(), Content: "again"}
	assert.NoError(t, repo.AddComment(ctx, reused))
}
