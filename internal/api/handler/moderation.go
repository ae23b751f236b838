package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repute/backend/internal/profile"
)

type reportRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CreateReport(c *gin.Context) {
	var req reportRequest
	if !h.bind(c, &req) {
		return
	}
	report, err := h.Moderation.CreateReport(c.Request.Context(), identity(c), c.Param("id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) OpenReports(c *gin.Context) {
	reports, err := h.Moderation.OpenReports(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) CloseReport(c *gin.Context) {
	report, err := h.Moderation.CloseReport(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type resolveRequest struct {
	Hide bool `json:"hide"`
}

// ResolveReport закриває скаргу і, якщо hide, ховає відгук.
func (h *Handler) ResolveReport(c *gin.Context) {
	var req resolveRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	report, err := h.Moderation.ResolveReport(c.Request.Context(), identity(c), c.Param("id"), req.Hide)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) HideReview(c *gin.Context) {
	r, err := h.Moderation.HideReview(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) PublishReview(c *gin.Context) {
	r, err := h.Moderation.PublishReview(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ReviewHistory(c *gin.Context) {
	history, err := h.Reviews.History(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) BanUser(c *gin.Context) {
	if err := h.Moderation.BanUser(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateProfile(c *gin.Context) {
	var req profile.CreateRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.Profiles.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
