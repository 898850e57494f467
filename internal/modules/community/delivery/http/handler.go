package handler

import (
	"net/http"

	"anoa.com/pencraft/internal/modules/community/dto"
	community "anoa.com/pencraft/internal/modules/community/service"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	service community.CommunityService
}

func NewCommunityHandler(service community.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.CreateCommunity(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"community": resp})
}

func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	var filter dto.CommunityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.ListCommunities(c.Request.Context(), response.GetOptionalUserID(c), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"communities": resp})
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetCommunity(c.Request.Context(), response.GetOptionalUserID(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"community": resp})
}

func (h *CommunityHandler) Join(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Join(c.Request.Context(), id, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined community", "community": resp})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Leave(c.Request.Context(), id, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left community", "community": resp})
}

func (h *CommunityHandler) Members(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Members(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": resp})
}

// JoinForUser serves POST /users/:id/join-community. Only the user
// themselves may change their membership.
func (h *CommunityHandler) JoinForUser(c *gin.Context) {
	h.membershipForUser(c, true)
}

func (h *CommunityHandler) LeaveForUser(c *gin.Context) {
	h.membershipForUser(c, false)
}

func (h *CommunityHandler) membershipForUser(c *gin.Context, join bool) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if actorID != id {
		response.ResponseError(c, apperror.Forbidden("cannot change another user's memberships"))
		return
	}

	var req dto.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	op, message := h.service.Leave, "Left community"
	if join {
		op, message = h.service.Join, "Joined community"
	}

	resp, err := op(c.Request.Context(), req.CommunityID, actorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "community": resp})
}
