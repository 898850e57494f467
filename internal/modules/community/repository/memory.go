package repository

import (
	"context"
	"sync"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/google/uuid"
)

type memoryCommunityRepository struct {
	mu          sync.RWMutex
	communities map[uuid.UUID]*entity.Community
	order       []uuid.UUID
}

// NewMemoryCommunityRepository holds communities and their membership rows
// behind one lock, so membership changes are a single critical section.
func NewMemoryCommunityRepository() CommunityRepository {
	return &memoryCommunityRepository{communities: make(map[uuid.UUID]*entity.Community)}
}

func (r *memoryCommunityRepository) Create(_ context.Context, community *entity.Community) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.communities {
		if c.Name == community.Name {
			return apperror.ErrConflict
		}
	}

	if community.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		community.ID = id
	}
	if _, exists := r.communities[community.ID]; exists {
		return apperror.ErrConflict
	}

	now := time.Now()
	if community.CreatedAt.IsZero() {
		community.CreatedAt = now
	}
	community.UpdatedAt = now

	seen := make(map[uuid.UUID]bool, len(community.Members))
	members := make([]entity.CommunityMember, 0, len(community.Members))
	for _, m := range community.Members {
		if seen[m.UserID] {
			return apperror.ErrConflict
		}
		seen[m.UserID] = true
		m.CommunityID = community.ID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		members = append(members, m)
	}
	community.Members = members

	r.communities[community.ID] = cloneCommunity(community)
	r.order = append(r.order, community.ID)
	return nil
}

func (r *memoryCommunityRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.communities[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return cloneCommunity(c), nil
}

func (r *memoryCommunityRepository) FindAll(_ context.Context, category string) ([]*entity.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Community, 0, len(r.order))
	for _, id := range r.order {
		c := r.communities[id]
		if category != "" && category != "all" && c.Category != category {
			continue
		}
		out = append(out, cloneCommunity(c))
	}
	return out, nil
}

func (r *memoryCommunityRepository) AddMember(_ context.Context, member *entity.CommunityMember) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.communities[member.CommunityID]
	if !ok {
		return false, apperror.ErrNotFound
	}
	for _, m := range c.Members {
		if m.UserID == member.UserID {
			return false, nil
		}
	}

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	c.Members = append(c.Members, *member)
	return true, nil
}

func (r *memoryCommunityRepository) RemoveMember(_ context.Context, communityID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.communities[communityID]
	if !ok {
		return false, nil
	}
	for i, m := range c.Members {
		if m.UserID == userID {
			c.Members = append(c.Members[:i:i], c.Members[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryCommunityRepository) FindMembers(_ context.Context, communityID uuid.UUID) ([]entity.CommunityMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.communities[communityID]
	if !ok {
		return []entity.CommunityMember{}, nil
	}
	return append([]entity.CommunityMember(nil), c.Members...), nil
}

func (r *memoryCommunityRepository) CommunityIDsByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for _, id := range r.order {
		for _, m := range r.communities[id].Members {
			if m.UserID == userID {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func cloneCommunity(c *entity.Community) *entity.Community {
	cp := *c
	cp.Rules = append([]string(nil), c.Rules...)
	cp.Members = append([]entity.CommunityMember(nil), c.Members...)
	return &cp
}
