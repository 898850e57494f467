package service

import (
	"context"

	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	postRepo "anoa.com/pencraft/internal/modules/post/repository"
	"anoa.com/pencraft/internal/modules/search"
	searchService "anoa.com/pencraft/internal/modules/search/service"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
)

type Totals struct {
	Users       int64 `json:"total_users"`
	Posts       int   `json:"total_posts"`
	Communities int   `json:"total_communities"`
}

type StatService interface {
	GetTotals(ctx context.Context) (*Totals, error)
	// GetTrendingPosts returns at most limit posts by trending score.
	GetTrendingPosts(ctx context.Context, category string, limit int) ([]search.PostHit, error)
}

type statService struct {
	userRepo      userRepo.UserRepository
	postRepo      postRepo.PostRepository
	communityRepo communityRepo.CommunityRepository
	search        searchService.SearchService
}

func NewStatService(users userRepo.UserRepository, posts postRepo.PostRepository, communities communityRepo.CommunityRepository, search searchService.SearchService) StatService {
	return &statService{
		userRepo:      users,
		postRepo:      posts,
		communityRepo: communities,
		search:        search,
	}
}

func (s *statService) GetTotals(ctx context.Context) (*Totals, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FindAll(ctx, postRepo.Filter{})
	if err != nil {
		return nil, err
	}
	communities, err := s.communityRepo.FindAll(ctx, "")
	if err != nil {
		return nil, err
	}

	return &Totals{Users: users, Posts: len(posts), Communities: len(communities)}, nil
}

func (s *statService) GetTrendingPosts(ctx context.Context, category string, limit int) ([]search.PostHit, error) {
	hits, err := s.search.Explore(ctx, search.Query{Category: category, Sort: search.SortTrending})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
