package handler

import (
	"context"
	"log/slog"
	"net/http"

	"anoa.com/pencraft/internal/modules/post/dto"
	post "anoa.com/pencraft/internal/modules/post/service"
	"anoa.com/pencraft/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Blog created successfully", "blog": resp})
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	var filter dto.PostFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	var ok bool
	if filter.AuthorID, ok = optionalQueryUUID(c, "author_id"); !ok {
		return
	}
	if filter.CommunityID, ok = optionalQueryUUID(c, "community_id"); !ok {
		return
	}

	posts, err := h.service.ListPosts(c.Request.Context(), response.GetOptionalUserID(c), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blogs": posts})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	viewerID := response.GetOptionalUserID(c)
	resp, err := h.service.GetPost(c.Request.Context(), viewerID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	viewerKey := c.ClientIP()
	if viewerID != nil {
		viewerKey = viewerID.String()
	}
	if err := h.service.RecordView(c.Request.Context(), id, viewerKey); err != nil {
		slog.Warn("failed to record view", "post_id", id, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"blog": resp})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.UpdatePost(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Blog updated successfully", "blog": resp})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Blog deleted successfully"})
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.AddComment(c.Request.Context(), id, userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "comment": resp})
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	commentID, ok := response.ParamUUID(c, "commentId")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), id, commentID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func (h *PostHandler) SavePost(c *gin.Context) {
	h.changeSave(c, h.service.SavePost)
}

func (h *PostHandler) UnsavePost(c *gin.Context) {
	h.changeSave(c, h.service.UnsavePost)
}

func (h *PostHandler) changeSave(c *gin.Context, op func(ctx context.Context, postID, userID uuid.UUID) (*dto.SaveResponse, error)) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := op(c.Request.Context(), id, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SavedPosts serves GET /users/:id/saved.
func (h *PostHandler) SavedPosts(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	posts, err := h.service.ListSavedPosts(c.Request.Context(), viewerID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blogs": posts})
}

func optionalQueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &id, true
}
