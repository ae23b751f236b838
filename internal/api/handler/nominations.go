package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type nominationRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Contact   string `json:"contactEmailOrPhone"`
}

func (h *Handler) CreateNomination(c *gin.Context) {
	var req nominationRequest
	if !h.bind(c, &req) {
		return
	}
	n, p, err := h.Nominations.Create(c.Request.Context(), identity(c), req.FirstName, req.LastName, req.Contact)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"nomination": n, "profile": p})
}

// GetInvite is public: the token itself is the credential.
func (h *Handler) GetInvite(c *gin.Context) {
	landing, err := h.Nominations.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, landing)
}

func (h *Handler) AcceptInvite(c *gin.Context) {
	n, p, err := h.Nominations.Accept(c.Request.Context(), identity(c), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nomination": n.Summary(), "profile": p})
}
