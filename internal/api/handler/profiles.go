package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repute/backend/internal/profile"
)

// GetProfile віддає сторінку профілю. Власник може додати ?includeHidden=true.
func (h *Handler) GetProfile(c *gin.Context) {
	includeHidden, _ := strconv.ParseBool(c.Query("includeHidden"))
	page, err := h.Profiles.View(c.Request.Context(), identity(c), c.Param("id"), includeHidden)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) SearchProfiles(c *gin.Context) {
	profiles, err := h.Profiles.Search(c.Request.Context(), c.Query("q"), c.Query("location"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch profile.Patch
	if !h.bind(c, &patch) {
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), identity(c), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ClaimProfile(c *gin.Context) {
	p, err := h.Profiles.Claim(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h *Handler) CreateReview(c *gin.Context) {
	var req reviewRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.Reviews.Create(c.Request.Context(), identity(c), c.Param("id"), req.Rating, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) Follow(c *gin.Context) {
	if err := h.Feed.Follow(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.Feed.Unfollow(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *Handler) IsFollowing(c *gin.Context) {
	following, err := h.Feed.IsFollowing(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}
