package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repute/backend/internal/feed"
)

func (h *Handler) GetFeed(c *gin.Context) {
	filter, err := feed.ParseFilter(c.Query("filter"))
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.Feed.Feed(c.Request.Context(), identity(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Trending(c *gin.Context) {
	trending, err := h.Feed.Trending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trending)
}
