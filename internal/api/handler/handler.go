// Package handler exposes the core services over HTTP with gin.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"repute/backend/internal/account"
	"repute/backend/internal/auth"
	"repute/backend/internal/feed"
	"repute/backend/internal/moderation"
	"repute/backend/internal/nomination"
	"repute/backend/internal/profile"
	"repute/backend/internal/review"
)

// Handler містить посилання на всі сервіси ядра
type Handler struct {
	Accounts    *account.Service
	Auth        *auth.Authenticator
	Profiles    *profile.Registry
	Reviews     *review.Engine
	Nominations *nomination.Service
	Moderation  *moderation.Service
	Feed        *feed.Aggregator

	logger *zap.Logger
}

func NewHandler(h Handler, logger *zap.Logger) *Handler {
	h.logger = logger
	return &h
}

// Register вішає всі роути API на r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.Use(h.Authenticate())

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", RequireAuth(), h.Logout)
	authGroup.GET("/me", RequireAuth(), h.Me)

	me := api.Group("/me", RequireAuth())
	me.PATCH("/settings", h.UpdateSettings)
	me.POST("/verify-phone", h.VerifyPhone)
	me.GET("/profile", h.MyProfile)
	me.GET("/analytics", h.Analytics)
	me.GET("/reviews", h.MyReviews)
	me.GET("/nominations", h.MyNominations)

	api.GET("/search/profiles", h.SearchProfiles)
	api.GET("/trending", h.Trending)
	api.GET("/feed", RequireAuth(), h.GetFeed)

	profiles := api.Group("/profiles")
	profiles.GET("/:id", h.GetProfile)
	profiles.PATCH("/:id", RequireAuth(), h.UpdateProfile)
	profiles.POST("/:id/claim", RequireAuth(), h.ClaimProfile)
	profiles.POST("/:id/reviews", RequireAuth(), h.CreateReview)
	profiles.GET("/:id/follow", RequireAuth(), h.IsFollowing)
	profiles.POST("/:id/follow", RequireAuth(), h.Follow)
	profiles.DELETE("/:id/follow", RequireAuth(), h.Unfollow)

	api.POST("/reviews/:id/reports", RequireAuth(), h.CreateReport)

	api.POST("/nominations", RequireAuth(), h.CreateNomination)
	api.GET("/invites/:token", h.GetInvite)
	api.POST("/invites/:token/accept", RequireAuth(), h.AcceptInvite)

	admin := api.Group("/admin", RequireAdmin())
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:id/ban", h.BanUser)
	admin.POST("/profiles", h.CreateProfile)
	admin.GET("/reports", h.OpenReports)
	admin.POST("/reports/:id/close", h.CloseReport)
	admin.POST("/reports/:id/resolve", h.ResolveReport)
	admin.POST("/reviews/:id/hide", h.HideReview)
	admin.POST("/reviews/:id/publish", h.PublishReview)
	admin.GET("/reviews/:id/history", h.ReviewHistory)
}
