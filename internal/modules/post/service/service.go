package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"anoa.com/pencraft/internal/entity"
	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	"anoa.com/pencraft/internal/modules/post/dto"
	"anoa.com/pencraft/internal/modules/post/repository"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/events"
	"anoa.com/pencraft/pkg/metrics"
	"anoa.com/pencraft/pkg/storage"
	"github.com/google/uuid"
)

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

// Indexer mirrors posts into the full text index.
type Indexer interface {
	IndexPost(ctx context.Context, post *entity.Post, author *entity.User) error
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type ViewCounter interface {
	RecordView(ctx context.Context, postID uuid.UUID, viewerKey string) error
}

type PostService interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error)
	GetPost(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.PostResponse, error)
	ListPosts(ctx context.Context, viewerID *uuid.UUID, filter dto.PostFilter) ([]dto.PostResponse, error)
	UpdatePost(ctx context.Context, userID, id uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, userID, id uuid.UUID) error

	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*dto.LikeResponse, error)
	AddComment(ctx context.Context, postID, authorID uuid.UUID, req dto.CommentRequest) (*dto.CommentResponse, error)
	// DeleteComment is a no-op when the comment does not exist.
	DeleteComment(ctx context.Context, postID, commentID, userID uuid.UUID) error
	SavePost(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error)
	UnsavePost(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error)
	ListSavedPosts(ctx context.Context, viewerID, userID uuid.UUID) ([]dto.PostResponse, error)

	RecordView(ctx context.Context, postID uuid.UUID, viewerKey string) error
}

type postService struct {
	repo          repository.PostRepository
	userRepo      userRepo.UserRepository
	communityRepo communityRepo.CommunityRepository
	notifier      Notifier
	indexer       Indexer
	views         ViewCounter
	images        storage.ImageStorage
	publisher     events.Publisher
}

func NewPostService(repo repository.PostRepository, userRepo userRepo.UserRepository, communityRepo communityRepo.CommunityRepository, notifier Notifier, indexer Indexer, views ViewCounter, images storage.ImageStorage, publisher events.Publisher) PostService {
	return &postService{
		repo:          repo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		notifier:      notifier,
		indexer:       indexer,
		views:         views,
		images:        images,
		publisher:     publisher,
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := req.Content
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, apperror.Validation("title and content are required")
	}

	category := req.Category
	if category == "" {
		category = entity.CategoryGeneral
	}
	if !entity.IsCategory(category) {
		return nil, apperror.Validation("unknown category")
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	if req.CommunityID != nil {
		if err := s.checkCommunityMember(ctx, *req.CommunityID, authorID); err != nil {
			return nil, err
		}
	}

	post := &entity.Post{
		Title:       title,
		Content:     content,
		Tags:        cleanTags(req.Tags),
		Category:    category,
		AuthorID:    authorID,
		CommunityID: req.CommunityID,
		ImageURL:    req.ImageURL,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	s.index(ctx, created, author)
	events.Emit(ctx, s.publisher, events.PostCreated, created.ID.String(), events.PostEvent{
		PostID:   created.ID.String(),
		AuthorID: authorID.String(),
		Title:    created.Title,
		Category: created.Category,
	})

	return s.respondOne(ctx, created, &authorID)
}

func (s *postService) GetPost(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*dto.PostResponse, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respondOne(ctx, post, viewerID)
}

func (s *postService) ListPosts(ctx context.Context, viewerID *uuid.UUID, filter dto.PostFilter) ([]dto.PostResponse, error) {
	posts, err := s.repo.FindAll(ctx, repository.Filter{
		Category:    filter.Category,
		AuthorID:    filter.AuthorID,
		CommunityID: filter.CommunityID,
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, posts, viewerID)
}

func (s *postService) UpdatePost(ctx context.Context, userID, id uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperror.Forbidden("you can only update your own post")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		post.Title = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, apperror.Validation("content cannot be empty")
		}
		post.Content = *req.Content
	}
	if req.Tags != nil {
		post.Tags = cleanTags(*req.Tags)
	}
	if req.Category != nil {
		if !entity.IsCategory(*req.Category) {
			return nil, apperror.Validation("unknown category")
		}
		post.Category = *req.Category
	}

	var replacedImage string
	if req.ImageURL != nil {
		if post.ImageURL != nil && *post.ImageURL != *req.ImageURL {
			replacedImage = *post.ImageURL
		}
		post.ImageURL = req.ImageURL
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	if replacedImage != "" {
		s.deleteImage(ctx, replacedImage)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if author, err := s.userRepo.FindByID(ctx, userID); err == nil {
		s.index(ctx, updated, author)
	}

	return s.respondOne(ctx, updated, &userID)
}

func (s *postService) DeletePost(ctx context.Context, userID, id uuid.UUID) error {
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return apperror.Forbidden("you can only delete your own post")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if post.ImageURL != nil {
		s.deleteImage(ctx, *post.ImageURL)
	}
	if s.indexer != nil {
		if err := s.indexer.DeletePost(ctx, id); err != nil {
			slog.Warn("failed to remove post from index", "post_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.publisher, events.PostDeleted, id.String(), events.PostEvent{
		PostID:   id.String(),
		AuthorID: userID.String(),
	})
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*dto.LikeResponse, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, likedBy, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}
	if likedBy == nil {
		likedBy = []uuid.UUID{}
	}

	if liked {
		metrics.Engagement.WithLabelValues("like").Inc()
		s.notifyAuthor(ctx, post, userID, entity.NotificationLike, "%s liked your post \"%s\"")
	} else {
		metrics.Engagement.WithLabelValues("unlike").Inc()
	}
	events.Emit(ctx, s.publisher, events.PostLiked, postID.String(), events.PostLikedEvent{
		PostID: postID.String(),
		UserID: userID.String(),
		Liked:  liked,
		Likes:  len(likedBy),
	})

	return &dto.LikeResponse{Liked: liked, Likes: len(likedBy), LikedBy: likedBy}, nil
}

func (s *postService) AddComment(ctx context.Context, postID, authorID uuid.UUID, req dto.CommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("content is required")
	}

	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	comment := &entity.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if req.ID != nil {
		comment.ID = *req.ID
	}

	if err := s.repo.AddComment(ctx, comment); err != nil {
		switch {
		case errors.Is(err, apperror.ErrConflict):
			return nil, apperror.ErrCommentExists
		case errors.Is(err, apperror.ErrNotFound):
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}

	metrics.Engagement.WithLabelValues("comment").Inc()
	s.notifyAuthor(ctx, post, authorID, entity.NotificationComment, "%s commented on your post \"%s\"")
	events.Emit(ctx, s.publisher, events.PostCommented, postID.String(), events.CommentEvent{
		PostID:    postID.String(),
		CommentID: comment.ID.String(),
		AuthorID:  authorID.String(),
	})

	return &dto.CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		Author:    commonAuthor(author),
		CreatedAt: comment.CreatedAt,
	}, nil
}

func (s *postService) DeleteComment(ctx context.Context, postID, commentID, userID uuid.UUID) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}

	var target *entity.Comment
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			target = &post.Comments[i]
			break
		}
	}
	if target == nil {
		return nil
	}
	if target.AuthorID != userID {
		return apperror.Forbidden("you can only delete your own comment")
	}

	removed, err := s.repo.DeleteComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if removed {
		metrics.Engagement.WithLabelValues("uncomment").Inc()
	}
	return nil
}

func (s *postService) SavePost(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error) {
	if _, err := s.find(ctx, postID); err != nil {
		return nil, err
	}

	added, err := s.repo.Save(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if added {
		metrics.Engagement.WithLabelValues("save").Inc()
	}
	return s.saveState(ctx, postID, userID)
}

func (s *postService) UnsavePost(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error) {
	if _, err := s.find(ctx, postID); err != nil {
		return nil, err
	}

	removed, err := s.repo.Unsave(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if removed {
		metrics.Engagement.WithLabelValues("unsave").Inc()
	}
	return s.saveState(ctx, postID, userID)
}

func (s *postService) ListSavedPosts(ctx context.Context, viewerID, userID uuid.UUID) ([]dto.PostResponse, error) {
	if viewerID != userID {
		return nil, apperror.Forbidden("saved posts are private")
	}

	posts, err := s.repo.FindSavedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, posts, &viewerID)
}

func (s *postService) RecordView(ctx context.Context, postID uuid.UUID, viewerKey string) error {
	if s.views != nil {
		return s.views.RecordView(ctx, postID, viewerKey)
	}
	return s.repo.IncrementViews(ctx, postID, 1)
}

func (s *postService) find(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) checkCommunityMember(ctx context.Context, communityID, userID uuid.UUID) error {
	community, err := s.communityRepo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("community not found")
		}
		return err
	}
	for _, m := range community.Members {
		if m.UserID == userID {
			return nil
		}
	}
	return apperror.Forbidden("join the community before posting to it")
}

func (s *postService) saveState(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &dto.SaveResponse{Saved: post.IsSavedBy(userID), SavedBy: post.SavedBy()}, nil
}

// notifyAuthor tells the post author about engagement. Never notifies the
// actor about their own action.
func (s *postService) notifyAuthor(ctx context.Context, post *entity.Post, actorID uuid.UUID, kind, format string) {
	if s.notifier == nil || post.AuthorID == actorID {
		return
	}

	name := "Someone"
	if actor, err := s.userRepo.FindByID(ctx, actorID); err == nil {
		name = actor.FullName()
	}

	postID := post.ID
	err := s.notifier.CreateNotification(ctx, &entity.Notification{
		UserID:  post.AuthorID,
		ActorID: &actorID,
		Type:    kind,
		Message: fmt.Sprintf(format, name, post.Title),
		PostID:  &postID,
	})
	if err != nil {
		slog.Warn("failed to create notification", "post_id", post.ID, "type", kind, "error", err)
	}
}

func (s *postService) index(ctx context.Context, post *entity.Post, author *entity.User) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexPost(ctx, post, author); err != nil {
		slog.Warn("failed to index post", "post_id", post.ID, "error", err)
	}
}

func (s *postService) deleteImage(ctx context.Context, url string) {
	if s.images == nil || !s.images.Owns(url) {
		return
	}
	if err := s.images.DeleteImage(ctx, url); err != nil {
		slog.Warn("failed to delete post image", "url", url, "error", err)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
