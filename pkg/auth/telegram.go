package auth

import (
	"net/http"

	"tap_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	HeaderName = "Authorization"
	ContextKey = "telegram_user"
)

type TelegramAuth struct {
	botToken  string
	validator *Validator
}

func NewTelegramAuth(cfg Config, opts ...Option) *TelegramAuth {
	return &TelegramAuth{
		botToken:  cfg.BotToken,
		validator: NewValidator(cfg, opts...),
	}
}

func (t *TelegramAuth) TelegramAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader(HeaderName)
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header is required",
				"code":  "MalformedHeader",
			})
			return
		}

		user, err := t.validator.Validate(authHeader)
		if err != nil {
			reason := Reason(err)
			log.Info("rejected telegram init data",
				zap.String("reason", reason),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err))
			c.AbortWithStatusJSON(statusFor(err), gin.H{
				"error": err.Error(),
				"code":  reason,
			})
			return
		}

		c.Set(ContextKey, user)
		c.Next()
	}
}

func (t *TelegramAuth) GetBotToken() string {
	return t.botToken
}

// UserFromContext returns the principal stored by TelegramAuthMiddleware.
func UserFromContext(c *gin.Context) (*TelegramUserData, bool) {
	userData, exists := c.Get(ContextKey)
	if !exists {
		return nil, false
	}

	user, ok := userData.(*TelegramUserData)
	return user, ok
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrStaleSignature), errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
