package handler

import (
	"net/http"
	"strconv"

	statService "anoa.com/pencraft/internal/modules/stat/service"
	"anoa.com/pencraft/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{statService: statService}
}

func (h *StatHandler) GetTotals(c *gin.Context) {
	totals, err := h.statService.GetTotals(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

func (h *StatHandler) GetTrendingPosts(c *gin.Context) {
	limit := 10
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	posts, err := h.statService.GetTrendingPosts(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
