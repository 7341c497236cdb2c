package controller

import (
	"net/http"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary Health check
// @Description Reports database and recovery-store connectivity
// @Tags System
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	components["database"] = "up"

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["recoveryStore"] = "down"
		} else {
			components["recoveryStore"] = "up"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
