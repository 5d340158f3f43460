package api

import (
	"net/http"

	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/auth"

	"github.com/gin-gonic/gin"
)

type catalogRoutes struct {
	cs service.CatalogServiceI
}

func NewCatalogRoutes(handler *gin.RouterGroup, cs service.CatalogServiceI, a *auth.TelegramAuth) {
	r := &catalogRoutes{cs: cs}
	handler.GET("/boosts", a.TelegramAuthMiddleware(), r.ListBoosts)
	handler.GET("/tasks", a.TelegramAuthMiddleware(), r.ListTasks)
}

func (r *catalogRoutes) ListBoosts(c *gin.Context) {
	boosts, err := r.cs.ListBoosts(c.Request.Context())
	if err != nil {
		abortWithError(c, "failed to list boosts", err)
		return
	}

	out := make([]boostResponse, len(boosts))
	for i, b := range boosts {
		out[i] = boostResponse{
			ID:            b.ID,
			Name:          b.Name,
			Description:   b.Description,
			BaseCost:      b.BaseCost,
			CostPerLevel:  b.CostPerLevel,
			BaseValue:     b.BaseValue,
			ValuePerLevel: b.ValuePerLevel,
			MaxLevel:      b.MaxLevel,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *catalogRoutes) ListTasks(c *gin.Context) {
	tasks, err := r.cs.ListTasks(c.Request.Context())
	if err != nil {
		abortWithError(c, "failed to list tasks", err)
		return
	}

	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Icon:        t.Icon,
			Reward:      t.Reward,
		}
	}

	c.JSON(http.StatusOK, out)
}
