package api

import (
	"net/http"

	"tap_miniapp/internal/middleware"
	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/auth"
	"tap_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ledgerRoutes struct {
	ls service.LedgerServiceI
}

func NewLedgerRoutes(handler *gin.RouterGroup, ls service.LedgerServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &ledgerRoutes{ls: ls}

	h := handler.Group("/users/:telegram_id")
	h.Use(a.TelegramAuthMiddleware(), authz.Owner())
	{
		h.POST("/boosts/:boost_id/upgrade", r.UpgradeBoost)
		h.POST("/tasks/:task_id/complete", r.CompleteTask)
	}

	admin := handler.Group("/admin")
	admin.Use(a.TelegramAuthMiddleware(), authz.AdminOnly())
	{
		admin.POST("/users/:telegram_id/balance", r.AdjustBalance)
	}
}

type UpgradeBoostRequest struct {
	TargetLevel *int `json:"target_level" binding:"required"`
}

func (r *ledgerRoutes) UpgradeBoost(c *gin.Context) {
	log := logger.Logger()

	telegramID, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}
	boostID, ok := parseIDParam(c, "boost_id")
	if !ok {
		return
	}

	var req UpgradeBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, "invalid request", err)
		return
	}

	res, err := r.ls.UpgradeBoost(c.Request.Context(), telegramID, boostID, *req.TargetLevel)
	if err != nil {
		abortWithError(c, "failed to upgrade boost", err,
			zap.Int64("telegram_id", telegramID),
			zap.Int64("boost_id", boostID),
			zap.Int("target_level", *req.TargetLevel))
		return
	}

	log.Info("boost upgraded",
		zap.Int64("telegram_id", telegramID),
		zap.String("boost", res.BoostName),
		zap.Int("level", res.Level),
		zap.Int64("cost", res.Cost))

	c.JSON(http.StatusOK, upgradeResponse{
		balanceResponse: newBalanceResponse(res.BalanceChange),
		BoostID:         res.BoostID,
		BoostName:       res.BoostName,
		PreviousLevel:   res.PreviousLevel,
		Level:           res.Level,
		Cost:            res.Cost,
	})
}

func (r *ledgerRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	telegramID, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	res, err := r.ls.CompleteTask(c.Request.Context(), telegramID, taskID)
	if err != nil {
		abortWithError(c, "failed to complete task", err,
			zap.Int64("telegram_id", telegramID),
			zap.Int64("task_id", taskID))
		return
	}

	log.Info("task completed",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("task_id", taskID),
		zap.Int64("reward", res.Reward))

	c.JSON(http.StatusOK, taskRewardResponse{
		balanceResponse: newBalanceResponse(res.BalanceChange),
		TaskID:          res.TaskID,
		Reward:          res.Reward,
	})
}

type AdjustBalanceRequest struct {
	Delta *int64 `json:"delta" binding:"required"`
}

func (r *ledgerRoutes) AdjustBalance(c *gin.Context) {
	log := logger.Logger()

	telegramID, ok := parseIDParam(c, middleware.TelegramIDParam)
	if !ok {
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, "invalid request", err)
		return
	}

	res, err := r.ls.AdjustBalance(c.Request.Context(), telegramID, *req.Delta)
	if err != nil {
		abortWithError(c, "failed to adjust balance", err,
			zap.Int64("telegram_id", telegramID),
			zap.Int64("delta", *req.Delta))
		return
	}

	admin, _ := auth.UserFromContext(c)
	log.Info("balance adjusted",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("delta", res.Delta),
		zap.Int64("admin_id", admin.ID))

	c.JSON(http.StatusOK, newBalanceResponse(*res))
}
