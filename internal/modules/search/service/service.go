package service

import (
	"context"
	"net/http"

	"anoa.com/pencraft/internal/entity"
	postRepo "anoa.com/pencraft/internal/modules/post/repository"
	"anoa.com/pencraft/internal/modules/search"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/google/uuid"
)

// FullText is the optional external search engine.
type FullText interface {
	Search(ctx context.Context, text, category string, limit int64) ([]search.Post, int64, error)
}

type FullTextResults struct {
	Posts []search.PostHit `json:"posts"`
	Total int64            `json:"total"`
}

type SearchService interface {
	Search(ctx context.Context, q search.Query) (*search.Results, error)
	// Explore is a posts-only search.
	Explore(ctx context.Context, q search.Query) ([]search.PostHit, error)
	SearchPosts(ctx context.Context, text, category string, limit int64) (*FullTextResults, error)
}

type searchService struct {
	posts    postRepo.PostRepository
	users    userRepo.UserRepository
	fullText FullText
}

func NewSearchService(posts postRepo.PostRepository, users userRepo.UserRepository, fullText FullText) SearchService {
	return &searchService{posts: posts, users: users, fullText: fullText}
}

func (s *searchService) Search(ctx context.Context, q search.Query) (*search.Results, error) {
	corpus, err := s.corpus(ctx, q.Filter != search.FilterPosts && q.Filter != search.FilterTags)
	if err != nil {
		return nil, err
	}
	res := search.Search(q, corpus)
	return &res, nil
}

func (s *searchService) Explore(ctx context.Context, q search.Query) ([]search.PostHit, error) {
	q.Filter = search.FilterPosts
	if q.Sort == "" {
		q.Sort = search.SortTrending
	}
	res, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Posts, nil
}

func (s *searchService) SearchPosts(ctx context.Context, text, category string, limit int64) (*FullTextResults, error) {
	if s.fullText == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "full text search is not configured", apperror.ErrUnavailable)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	posts, total, err := s.fullText.Search(ctx, text, category, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]search.PostHit, 0, len(posts))
	for _, p := range posts {
		hits = append(hits, search.PostHit{Post: p, Badge: search.TrendingBadge(p.TrendingScore)})
	}
	return &FullTextResults{Posts: hits, Total: total}, nil
}

// corpus loads every post, and every user when withUsers is set.
func (s *searchService) corpus(ctx context.Context, withUsers bool) (search.Corpus, error) {
	posts, err := s.posts.FindAll(ctx, postRepo.Filter{})
	if err != nil {
		return search.Corpus{}, err
	}

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return search.Corpus{}, err
	}
	byID := make(map[uuid.UUID]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	corpus := search.Corpus{Posts: make([]search.Post, 0, len(posts))}
	for _, p := range posts {
		corpus.Posts = append(corpus.Posts, toSearchPost(p, byID[p.AuthorID]))
	}

	if withUsers {
		corpus.Users = make([]search.User, 0, len(users))
		for _, u := range users {
			corpus.Users = append(corpus.Users, search.User{
				ID:        u.ID,
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Bio:       u.Bio,
				AvatarURL: u.AvatarURL,
			})
		}
	}
	return corpus, nil
}

func toSearchPost(p *entity.Post, author *entity.User) search.Post {
	sp := search.Post{
		ID:            p.ID,
		Title:         p.Title,
		Content:       search.PlainText(p.Content),
		Category:      p.Category,
		Tags:          append([]string{}, p.Tags...),
		AuthorID:      p.AuthorID,
		Likes:         len(p.Likes),
		Comments:      len(p.Comments),
		Views:         p.Views,
		TrendingScore: p.TrendingScore,
		CreatedAt:     p.CreatedAt,
	}
	if author != nil {
		sp.AuthorUsername = author.Username
		sp.AuthorFirstName = author.FirstName
		sp.AuthorLastName = author.LastName
	}
	return sp
}
