package api

import (
	"errors"
	"net/http"
	"strconv"

	"tap_miniapp/internal/middleware"
	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/auth"
	"tap_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us      service.UserServiceI
	cs      service.CatalogServiceI
	avatars AvatarFetcher
}

// NewUserRoutes registers the user endpoints. The avatar endpoint is only
// mounted when avatars is non-nil.
func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, cs service.CatalogServiceI, avatars AvatarFetcher, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &userRoutes{us: us, cs: cs, avatars: avatars}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.Onboard)

		owned := h.Group("/:telegram_id", authz.Owner())
		owned.GET("", r.GetUserByTelegramID)
		owned.GET("/referrals", r.GetUserReferrals)
		owned.GET("/tasks", r.GetCompletedTasks)
		if avatars != nil {
			owned.GET("/avatar", r.GetUserAvatar)
		}
	}
}

func (r *userRoutes) Onboard(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "Internal"})
		return
	}

	var referrerID *int64
	if raw := c.Query("referrer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			abortInvalidRequest(c, "invalid referrer_id", err)
			return
		}
		referrerID = &id
	}

	u, err := r.us.Onboard(c.Request.Context(), user.ID, referrerID)
	if err != nil {
		abortWithError(c, "failed to onboard user", err, zap.Int64("telegram_id", user.ID))
		return
	}

	log.Info("user onboarded",
		zap.Int64("telegram_id", u.TelegramID),
		zap.Bool("referred", u.ReferrerID != nil))
	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (r *userRoutes) GetUserByTelegramID(c *gin.Context) {
	id, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, "failed to get user", err, zap.Int64("telegram_id", id))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	id, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}

	referrals, err := r.us.GetUserReferrals(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, "failed to get user referrals", err, zap.Int64("telegram_id", id))
		return
	}

	out := make([]referralResponse, len(referrals))
	for i, ref := range referrals {
		out[i] = referralResponse{
			TelegramID: ref.TelegramID,
			Balance:    ref.Balance,
			JoinedAt:   ref.JoinedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetCompletedTasks(c *gin.Context) {
	id, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}

	completed, err := r.cs.GetCompletedTasks(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, "failed to get completed tasks", err, zap.Int64("telegram_id", id))
		return
	}

	out := make([]completedTaskResponse, len(completed))
	for i, tc := range completed {
		out[i] = completedTaskResponse{
			TaskID:      tc.TaskID,
			CompletedAt: tc.CompletedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetUserAvatar(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}

	if _, err := r.us.GetUserByTelegramID(c.Request.Context(), id); err != nil {
		abortWithError(c, "failed to get user", err, zap.Int64("telegram_id", id))
		return
	}

	avatarFilePath, err := r.avatars.AvatarFilePath(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNoAvatar) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "no avatar found", Code: "AvatarNotFound"})
			return
		}
		log.Error("failed to get user avatar",
			zap.Error(err),
			zap.Int64("telegram_id", id))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to fetch avatar", Code: "AvatarUnavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_file_path": avatarFilePath,
	})
}
