package service

import (
	"context"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/post/dto"
	commonDto "anoa.com/pencraft/pkg/dto"
	"github.com/google/uuid"
)

func commonAuthor(u *entity.User) commonDto.AuthorResponse {
	return commonDto.NewAuthorResponse(u)
}

func (s *postService) respondOne(ctx context.Context, post *entity.Post, viewerID *uuid.UUID) (*dto.PostResponse, error) {
	out, err := s.respond(ctx, []*entity.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// respond resolves every post and comment author with one lookup.
func (s *postService) respond(ctx context.Context, posts []*entity.Post, viewerID *uuid.UUID) ([]dto.PostResponse, error) {
	var ids []uuid.UUID
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
		for _, c := range p.Comments {
			ids = append(ids, c.AuthorID)
		}
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := commonDto.AuthorLookup(users)

	out := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		comments := make([]dto.CommentResponse, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, dto.CommentResponse{
				ID:        c.ID,
				Content:   c.Content,
				Author:    lookup.Author(c.AuthorID),
				CreatedAt: c.CreatedAt,
			})
		}

		tags := []string(p.Tags)
		if tags == nil {
			tags = []string{}
		}
		likedBy := p.LikedBy()

		resp := dto.PostResponse{
			ID:            p.ID,
			Title:         p.Title,
			Content:       p.Content,
			Tags:          tags,
			Category:      p.Category,
			Author:        lookup.Author(p.AuthorID),
			CommunityID:   p.CommunityID,
			ImageURL:      p.ImageURL,
			Likes:         len(likedBy),
			LikedBy:       likedBy,
			Comments:      len(comments),
			CommentsList:  comments,
			SavedBy:       p.SavedBy(),
			Views:         p.Views,
			TrendingScore: p.TrendingScore,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		}
		if viewerID != nil {
			resp.IsLiked = p.IsLikedBy(*viewerID)
			resp.IsSaved = p.IsSavedBy(*viewerID)
		}
		out = append(out, resp)
	}
	return out, nil
}
