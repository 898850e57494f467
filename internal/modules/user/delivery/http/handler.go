package handler

import (
	"context"
	"net/http"
	"time"

	"anoa.com/pencraft/internal/modules/user/dto"
	user "anoa.com/pencraft/internal/modules/user/service"
	"anoa.com/pencraft/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	service user.AuthService
}

func NewAuthHandler(service user.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "User registered successfully",
		"user":       resp.User,
		"token":      resp.AccessToken,
		"token_type": resp.TokenType,
		"expires_in": resp.ExpiresIn,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       resp.User,
		"token":      resp.AccessToken,
		"token_type": resp.TokenType,
		"expires_in": resp.ExpiresIn,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	me, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": me})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	expiresAt := time.Now().Add(time.Hour)
	if v, ok := c.Get(response.ContextExpiry); ok {
		expiresAt = v.(time.Time)
	}

	if err := h.service.Logout(c.Request.Context(), c.GetString(response.ContextTokenID), expiresAt); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

type UserHandler struct {
	service user.UserService
}

func NewUserHandler(service user.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetUser(c.Request.Context(), response.GetOptionalUserID(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": resp})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.UpdateUser(c.Request.Context(), actorID, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": resp})
}

// AddCommunity is the idempotent PUT /users/:id/communities/:communityId.
func (h *UserHandler) AddCommunity(c *gin.Context) {
	h.changeCommunity(c, h.service.AddUserCommunity)
}

func (h *UserHandler) RemoveCommunity(c *gin.Context) {
	h.changeCommunity(c, h.service.RemoveUserCommunity)
}

func (h *UserHandler) changeCommunity(c *gin.Context, op func(ctx context.Context, actorID, userID, communityID uuid.UUID) (*dto.UserResponse, error)) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	communityID, ok := response.ParamUUID(c, "communityId")
	if !ok {
		return
	}

	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := op(c.Request.Context(), actorID, id, communityID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": resp})
}
