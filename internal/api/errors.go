package api

import (
	"errors"
	"net/http"
	"strconv"

	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const codeInvalidRequest = "InvalidRequest"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrBoostNotFound, http.StatusNotFound},
	{service.ErrTaskNotFound, http.StatusNotFound},
	{service.ErrInvalidLevel, http.StatusBadRequest},
	{service.ErrInsufficientBalance, http.StatusPaymentRequired},
	{service.ErrAlreadyCompleted, http.StatusConflict},
	{service.ErrAlreadyExists, http.StatusConflict},
	{service.ErrUserInactive, http.StatusForbidden},
	{service.ErrStorageUnavailable, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// abortWithError writes the tagged outcome of a failed service call. Client
// caused failures are logged at info, everything else at error.
func abortWithError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	log := logger.Logger()

	status := statusFor(err)
	code := service.Reason(err)
	if code == "" {
		code = "Internal"
	}

	fields = append(fields, zap.String("reason", code), zap.Error(err))
	if status >= http.StatusInternalServerError {
		log.Error(msg, fields...)
	} else {
		log.Info(msg, fields...)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: code})
}

func abortInvalidRequest(c *gin.Context, msg string, err error) {
	logger.Logger().Info(msg, zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: codeInvalidRequest})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		abortInvalidRequest(c, "invalid "+name, err)
		return 0, false
	}
	return id, true
}
