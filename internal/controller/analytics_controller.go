package controller

import (
	"errors"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/service"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Service *service.AnalyticsService
}

func NewAnalyticsController(svc *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Service: svc}
}

// @Summary Aggregate attempt statistics for a quiz
// @Tags Quiz analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/analytics [get]
func (c *AnalyticsController) QuizAnalytics(ctx *gin.Context) {
	stats, err := c.Service.QuizAnalytics(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary List attempts for a quiz
// @Tags Quiz analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param userId query string false "Filter by learner"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/attempts [get]
func (c *AnalyticsController) ListAttempts(ctx *gin.Context) {
	attempts, err := c.Service.ListAttempts(ctx.Param("id"), ctx.Query("userId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}
