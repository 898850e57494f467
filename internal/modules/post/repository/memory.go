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

type memoryPostRepository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*entity.Post
	// comment id -> post id, for global comment id uniqueness
	comments map[uuid.UUID]uuid.UUID
}

// NewMemoryPostRepository keeps posts and their like, save and comment rows
// behind one lock. Every mutation of a post is a single critical section.
func NewMemoryPostRepository() PostRepository {
	return &memoryPostRepository{
		posts:    make(map[uuid.UUID]*entity.Post),
		comments: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *memoryPostRepository) Create(_ context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		post.ID = id
	}
	if _, exists := r.posts[post.ID]; exists {
		return apperror.ErrConflict
	}

	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	stored := clonePost(post)
	stored.Likes, stored.Saves, stored.Comments = nil, nil, nil
	r.posts[post.ID] = stored
	return nil
}

func (r *memoryPostRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *memoryPostRepository) FindAll(_ context.Context, filter Filter) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if filter.Category != "" && filter.Category != "all" && p.Category != filter.Category {
			continue
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.CommunityID != nil && (p.CommunityID == nil || *p.CommunityID != *filter.CommunityID) {
			continue
		}
		out = append(out, clonePost(p))
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memoryPostRepository) Update(_ context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[post.ID]
	if !ok {
		return apperror.ErrNotFound
	}
	p.Title = post.Title
	p.Content = post.Content
	p.Tags = append([]string(nil), post.Tags...)
	p.Category = post.Category
	p.CommunityID = post.CommunityID
	p.ImageURL = post.ImageURL
	p.UpdatedAt = time.Now()
	return nil
}

func (r *memoryPostRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return apperror.ErrNotFound
	}
	for _, c := range p.Comments {
		delete(r.comments, c.ID)
	}
	delete(r.posts, id)
	return nil
}

func (r *memoryPostRepository) ToggleLike(_ context.Context, postID, userID uuid.UUID) (bool, []uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return false, nil, apperror.ErrNotFound
	}

	liked := true
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			liked = false
			break
		}
	}
	if liked {
		p.Likes = append(p.Likes, entity.PostLike{PostID: postID, UserID: userID, CreatedAt: time.Now()})
	}
	return liked, p.LikedBy(), nil
}

func (r *memoryPostRepository) AddComment(_ context.Context, comment *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[comment.PostID]
	if !ok {
		return apperror.ErrNotFound
	}

	if comment.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		comment.ID = id
	}
	if _, exists := r.comments[comment.ID]; exists {
		return apperror.ErrConflict
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	p.Comments = append([]entity.Comment{*comment}, p.Comments...)
	r.comments[comment.ID] = p.ID
	return nil
}

func (r *memoryPostRepository) DeleteComment(_ context.Context, postID, commentID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			delete(r.comments, commentID)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPostRepository) Save(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return false, apperror.ErrNotFound
	}
	if p.IsSavedBy(userID) {
		return false, nil
	}
	p.Saves = append(p.Saves, entity.PostSave{PostID: postID, UserID: userID, CreatedAt: time.Now()})
	return true, nil
}

func (r *memoryPostRepository) Unsave(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	for i, s := range p.Saves {
		if s.UserID == userID {
			p.Saves = append(p.Saves[:i:i], p.Saves[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPostRepository) FindSavedBy(_ context.Context, userID uuid.UUID) ([]*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type saved struct {
		post *entity.Post
		at   time.Time
	}
	var hits []saved
	for _, p := range r.posts {
		for _, s := range p.Saves {
			if s.UserID == userID {
				hits = append(hits, saved{post: clonePost(p), at: s.CreatedAt})
				break
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].at.After(hits[j].at)
	})

	out := make([]*entity.Post, len(hits))
	for i, h := range hits {
		out[i] = h.post
	}
	return out, nil
}

func (r *memoryPostRepository) IncrementViews(_ context.Context, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return apperror.ErrNotFound
	}
	p.Views += delta
	return nil
}

func (r *memoryPostRepository) CountByCommunity(_ context.Context, communityIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(communityIDs))
	for _, id := range communityIDs {
		wanted[id] = true
	}

	out := make(map[uuid.UUID]int64, len(communityIDs))
	for _, p := range r.posts {
		if p.CommunityID != nil && wanted[*p.CommunityID] {
			out[*p.CommunityID]++
		}
	}
	return out, nil
}

func sortNewestFirst(posts []*entity.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID.String() > posts[j].ID.String()
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func clonePost(p *entity.Post) *entity.Post {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Likes = append([]entity.PostLike(nil), p.Likes...)
	cp.Saves = append([]entity.PostSave(nil), p.Saves...)
	cp.Comments = append([]entity.Comment(nil), p.Comments...)
	if p.CommunityID != nil {
		id := *p.CommunityID
		cp.CommunityID = &id
	}
	return &cp
}
