package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repute/backend/internal/account"
)

type settingsRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	PhotoURL    *string `json:"photoUrl"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.Accounts.UpdateSettings(c.Request.Context(), identity(c), account.SettingsPatch(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) VerifyPhone(c *gin.Context) {
	user, err := h.Accounts.VerifyPhone(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) MyProfile(c *gin.Context) {
	p, err := h.Profiles.GetByOwner(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Analytics(c *gin.Context) {
	stats, err := h.Profiles.Analytics(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) MyReviews(c *gin.Context) {
	reviews, err := h.Reviews.ListByReviewer(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) MyNominations(c *gin.Context) {
	nominations, err := h.Nominations.ListByNominator(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nominations)
}
