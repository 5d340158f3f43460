package middleware

import (
	"net/http"
	"strconv"

	"tap_miniapp/pkg/auth"
	"tap_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	TelegramIDParam = "telegram_id"
	IsAdminKey      = "is_admin"
)

type Config struct {
	EnforceOwnership bool    `mapstructure:"enforceOwnership"`
	AdminIDs         []int64 `mapstructure:"adminIDs"`
}

type Authorization struct {
	enforceOwnership bool
	admins           map[int64]struct{}
}

func NewAuthorization(cfg Config) *Authorization {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Authorization{
		enforceOwnership: cfg.EnforceOwnership,
		admins:           admins,
	}
}

// Owner rejects requests whose :telegram_id differs from the authenticated
// principal. Admins may act on any user.
func (a *Authorization) Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		telegramUser, ok := a.principal(c)
		if !ok {
			return
		}

		if !a.enforceOwnership || a.IsAdmin(telegramUser.ID) {
			c.Next()
			return
		}

		id, err := strconv.ParseInt(c.Param(TelegramIDParam), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid telegram_id",
				"code":  "InvalidRequest",
			})
			return
		}

		if id != telegramUser.ID {
			log.Info("principal does not own resource",
				zap.Int64("principal_id", telegramUser.ID),
				zap.Int64("telegram_id", id))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access to another user's resources is not allowed",
				"code":  "Forbidden",
			})
			return
		}

		c.Next()
	}
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		telegramUser, ok := a.principal(c)
		if !ok {
			return
		}

		if !a.IsAdmin(telegramUser.ID) {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.Int64("telegram_id", telegramUser.ID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
				"code":  "Forbidden",
			})
			return
		}

		c.Set(IsAdminKey, true)
		c.Next()
	}
}

func (a *Authorization) IsAdmin(telegramID int64) bool {
	_, ok := a.admins[telegramID]
	return ok
}

func (a *Authorization) principal(c *gin.Context) (*auth.TelegramUserData, bool) {
	telegramUser, ok := auth.UserFromContext(c)
	if !ok {
		logger.Logger().Error("telegram user data not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "unauthorized",
			"code":  "MissingPrincipal",
		})
		return nil, false
	}
	return telegramUser, true
}
