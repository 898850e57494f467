package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/pencraft/internal/entity"
	postRepo "anoa.com/pencraft/internal/modules/post/repository"
	"anoa.com/pencraft/internal/modules/search"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFullText struct {
	gotText     string
	gotCategory string
	gotLimit    int64
	posts       []search.Post
	err         error
}

func (f *fakeFullText) Search(_ context.Context, text, category string, limit int64) ([]search.Post, int64, error) {
	f.gotText, f.gotCategory, f.gotLimit = text, category, limit
	return f.posts, int64(len(f.posts)), f.err
}

func seedCorpus(t *testing.T) (postRepo.PostRepository, userRepo.UserRepository) {
	t.Helper()
	ctx := context.Background()
	posts := postRepo.NewMemoryPostRepository()
	users := userRepo.NewMemoryUserRepository()

	alice := &entity.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Walker", Bio: "writes about gophers"}
	bob := &entity.User{Username: "bob", Email: "bob@example.com", FirstName: "Bob"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, posts.Create(ctx, &entity.Post{
		Title: "Concurrency in Go", Content: "<p>Channels and <b>goroutines</b></p>",
		Category: entity.CategoryTechnology, Tags: []string{"go", "concurrency"},
		AuthorID: alice.ID, TrendingScore: 95, Views: 10, CreatedAt: base,
	}))
	require.NoError(t, posts.Create(ctx, &entity.Post{
		Title: "Pasta night", Content: "Fresh tomatoes",
		Category: entity.CategoryFood, Tags: []string{"cooking"},
		AuthorID: bob.ID, TrendingScore: 40, Views: 300, CreatedAt: base.Add(time.Hour),
	}))
	return posts, users
}

func TestSearchService_Search(t *testing.T) {
	posts, users := seedCorpus(t)
	svc := NewSearchService(posts, users, nil)

	t.Run("matches author name and strips markup", func(t *testing.T) {
		res, err := svc.Search(context.Background(), search.Query{Text: "walker"})
		require.NoError(t, err)
		require.Len(t, res.Posts, 1)
		assert.Equal(t, "Concurrency in Go", res.Posts[0].Title)
		assert.Equal(t, "Channels and goroutines", res.Posts[0].Content)
		assert.Equal(t, "alice", res.Posts[0].AuthorUsername)
		require.Len(t, res.Users, 1)
		assert.Equal(t, "alice", res.Users[0].Username)
	})

	t.Run("posts filter skips users", func(t *testing.T) {
		res, err := svc.Search(context.Background(), search.Query{Text: "bob", Filter: search.FilterPosts})
		require.NoError(t, err)
		assert.Len(t, res.Posts, 1)
		assert.Empty(t, res.Users)
	})

	t.Run("empty query matches everything", func(t *testing.T) {
		res, err := svc.Search(context.Background(), search.Query{Sort: search.SortViews})
		require.NoError(t, err)
		require.Len(t, res.Posts, 2)
		assert.Equal(t, "Pasta night", res.Posts[0].Title)
		assert.Len(t, res.Users, 2)
	})
}

func TestSearchService_Explore(t *testing.T) {
	posts, users := seedCorpus(t)
	svc := NewSearchService(posts, users, nil)

	hits, err := svc.Explore(context.Background(), search.Query{Filter: search.FilterUsers})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Concurrency in Go", hits[0].Title)
	assert.Equal(t, search.BadgeHot, hits[0].Badge)

	hits, err = svc.Explore(context.Background(), search.Query{Category: entity.CategoryFood})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Pasta night", hits[0].Title)
}

func TestSearchService_SearchPosts(t *testing.T) {
	posts, users := seedCorpus(t)

	t.Run("unavailable without engine", func(t *testing.T) {
		svc := NewSearchService(posts, users, nil)
		_, err := svc.SearchPosts(context.Background(), "go", "", 10)
		assert.ErrorIs(t, err, apperror.ErrUnavailable)
	})

	t.Run("delegates and badges hits", func(t *testing.T) {
		ft := &fakeFullText{posts: []search.Post{{Title: "Go", TrendingScore: 85}}}
		svc := NewSearchService(posts, users, ft)

		res, err := svc.SearchPosts(context.Background(), "go", "technology", 0)
		require.NoError(t, err)
		assert.Equal(t, "go", ft.gotText)
		assert.Equal(t, "technology", ft.gotCategory)
		assert.Equal(t, int64(20), ft.gotLimit)
		require.Len(t, res.Posts, 1)
		assert.Equal(t, search.BadgeTrending, res.Posts[0].Badge)
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("engine errors surface", func(t *testing.T) {
		svc := NewSearchService(posts, users, &fakeFullText{err: errors.New("boom")})
		_, err := svc.SearchPosts(context.Background(), "go", "", 5)
		assert.EqualError(t, err, "boom")
	})
}
