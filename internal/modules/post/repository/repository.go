package repository

import (
	"context"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows FindAll. Zero values match everything.
type Filter struct {
	Category    string
	AuthorID    *uuid.UUID
	CommunityID *uuid.UUID
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindAll(ctx context.Context, filter Filter) ([]*entity.Post, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ToggleLike flips the user's like and returns the new state together
	// with the resulting likedBy set.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, []uuid.UUID, error)
	AddComment(ctx context.Context, comment *entity.Comment) error
	DeleteComment(ctx context.Context, postID, commentID uuid.UUID) (bool, error)
	Save(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Unsave(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	FindSavedBy(ctx context.Context, userID uuid.UUID) ([]*entity.Post, error)

	IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error
	CountByCommunity(ctx context.Context, communityIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Preload("Saves", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc").Order("id desc")
		})
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return database.TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	if err := withChildren(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &post, nil
}

func (r *postRepository) FindAll(ctx context.Context, filter Filter) ([]*entity.Post, error) {
	query := withChildren(r.db.WithContext(ctx)).
		Order("created_at desc").
		Order("id desc")

	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.CommunityID != nil {
		query = query.Where("community_id = ?", *filter.CommunityID)
	}

	var posts []*entity.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Post{ID: post.ID}).
		Select("title", "content", "tags", "category", "community_id", "image_url", "updated_at").
		Updates(post)
	return database.TranslateError(res.Error)
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&entity.PostLike{}, &entity.PostSave{}, &entity.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&entity.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
}

// lockPost takes a row lock so concurrent toggles on one post serialize.
func lockPost(tx *gorm.DB, id uuid.UUID) error {
	var post entity.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&post).Error
	return database.TranslateError(err)
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, []uuid.UUID, error) {
	var (
		liked   bool
		likedBy []uuid.UUID
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&entity.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&entity.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
		}

		return tx.Model(&entity.PostLike{}).
			Where("post_id = ?", postID).
			Order("created_at asc").
			Pluck("user_id", &likedBy).Error
	})
	if err != nil {
		return false, nil, database.TranslateError(err)
	}
	return liked, likedBy, nil
}

func (r *postRepository) AddComment(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		return database.TranslateError(tx.Create(comment).Error)
	})
}

func (r *postRepository) DeleteComment(ctx context.Context, postID, commentID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		Delete(&entity.Comment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) Save(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.PostSave{PostID: postID, UserID: userID})
	if res.Error != nil {
		return false, database.TranslateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) Unsave(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&entity.PostSave{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) FindSavedBy(ctx context.Context, userID uuid.UUID) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := withChildren(r.db.WithContext(ctx)).
		Joins("JOIN post_saves ON post_saves.post_id = posts.id").
		Where("post_saves.user_id = ?", userID).
		Order("post_saves.created_at desc").
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *postRepository) CountByCommunity(ctx context.Context, communityIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CommunityID uuid.UUID
		Total       int64
	}
	out := make(map[uuid.UUID]int64, len(communityIDs))
	if len(communityIDs) == 0 {
		return out, nil
	}

	err := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Select("community_id, COUNT(*) AS total").
		Where("community_id IN ?", communityIDs).
		Group("community_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.CommunityID] = row.Total
	}
	return out, nil
}
