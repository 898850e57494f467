package repository

import (
	"context"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityRepository interface {
	// Create stores the community together with any Members set on it.
	Create(ctx context.Context, community *entity.Community) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error)
	FindAll(ctx context.Context, category string) ([]*entity.Community, error)
	// AddMember inserts the membership row. It reports false when the user
	// was already a member, leaving the existing row untouched.
	AddMember(ctx context.Context, member *entity.CommunityMember) (bool, error)
	// RemoveMember reports false when there was nothing to remove.
	RemoveMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	FindMembers(ctx context.Context, communityID uuid.UUID) ([]entity.CommunityMember, error)
	CommunityIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// Create inserts the community and its initial members in one transaction.
// community.Members is left as passed in, with CommunityID filled on success.
func (r *communityRepository) Create(ctx context.Context, community *entity.Community) error {
	members := community.Members
	community.Members = nil
	defer func() { community.Members = members }()

	return database.TranslateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}

		for i := range members {
			members[i].CommunityID = community.ID
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (r *communityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("id = ?", id).
		First(&community).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	return &community, nil
}

func (r *communityRepository) FindAll(ctx context.Context, category string) ([]*entity.Community, error) {
	query := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Order("created_at asc")

	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}

	var communities []*entity.Community
	if err := query.Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *communityRepository) AddMember(ctx context.Context, member *entity.CommunityMember) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member)
	if res.Error != nil {
		return false, database.TranslateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&entity.CommunityMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *communityRepository) FindMembers(ctx context.Context, communityID uuid.UUID) ([]entity.CommunityMember, error) {
	var members []entity.CommunityMember
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at asc").
		Find(&members).Error
	return members, err
}

func (r *communityRepository) CommunityIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.CommunityMember{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("community_id", &ids).Error
	return ids, err
}
