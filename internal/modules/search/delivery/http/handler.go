package handler

import (
	"net/http"
	"strconv"

	"anoa.com/pencraft/internal/modules/search"
	"anoa.com/pencraft/internal/modules/search/service"
	"anoa.com/pencraft/pkg/response"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service service.SearchService
}

func NewSearchHandler(service service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func queryFromRequest(c *gin.Context) search.Query {
	return search.Query{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Filter:   search.ParseFilter(c.Query("filter")),
		Sort:     search.ParseSort(c.Query("sort")),
	}
}

// Search handles GET /api/search?q=&category=&filter=&sort=
func (h *SearchHandler) Search(c *gin.Context) {
	res, err := h.service.Search(c.Request.Context(), queryFromRequest(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) Explore(c *gin.Context) {
	posts, err := h.service.Explore(c.Request.Context(), queryFromRequest(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *SearchHandler) SearchPosts(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	res, err := h.service.SearchPosts(c.Request.Context(), c.Query("q"), c.Query("category"), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
