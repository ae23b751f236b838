package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repute/backend/internal/account"
)

type signupRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Location    string `json:"location"`
	AcceptTerms bool   `json:"acceptTerms"`
	InviteToken string `json:"inviteToken"`
}

// Signup створює акаунт і одразу видає токен.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.Accounts.Signup(c.Request.Context(), account.SignupRequest(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := h.Auth.Issue(c.Request.Context(), result.User)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"user":       result.User,
		"profile":    result.Profile,
		"nomination": result.Nomination,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	token, user, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Accounts.GetUser(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
