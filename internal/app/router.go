package app

import (
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/config"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/middleware"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerLearnerRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}
}

// Learner surface: delivery sessions and own attempt history.
func (a *App) registerLearnerRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/quizzes/:id/sessions", c.delivery.StartSession)
	group.GET("/quizzes/:id/attempts", c.delivery.ListMyAttempts)

	sessions := group.Group("/sessions")
	{
		sessions.GET("/:id", c.delivery.GetSession)
		sessions.PUT("/:id/answer", c.delivery.Answer)
		sessions.POST("/:id/flag", c.delivery.ToggleFlag)
		sessions.POST("/:id/goto", c.delivery.GoTo)
		sessions.POST("/:id/submit", c.delivery.Submit)
		sessions.POST("/:id/abandon", c.delivery.Abandon)
	}
}

// Instructor surface: authoring, activation and analytics.
func (a *App) registerInstructorRoutes(group *gin.RouterGroup, c *controllers) {
	instructor := group.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware("instructor", "admin"))
	{
		quizzes := instructor.Group("/quizzes")
		{
			quizzes.POST("", c.quiz.CreateQuiz)
			quizzes.GET("", c.quiz.ListQuizzes)
			quizzes.GET("/:id", c.quiz.GetQuiz)
			quizzes.PUT("/:id", c.quiz.UpdateQuiz)
			quizzes.DELETE("/:id", c.quiz.DeleteQuiz)
			quizzes.POST("/:id/activate", c.quiz.ActivateQuiz)
			quizzes.POST("/:id/deactivate", c.quiz.DeactivateQuiz)

			quizzes.POST("/:id/questions", c.quiz.AddQuestion)
			quizzes.PUT("/:id/questions/:index", c.quiz.UpdateQuestion)
			quizzes.DELETE("/:id/questions/:index", c.quiz.DeleteQuestion)
			quizzes.POST("/:id/questions/:index/duplicate", c.quiz.DuplicateQuestion)
			quizzes.POST("/:id/questions/reorder", c.quiz.ReorderQuestion)
			quizzes.POST("/:id/questions/parse", c.quiz.ParseQuestions)

			quizzes.GET("/:id/analytics", c.analytics.QuizAnalytics)
			quizzes.GET("/:id/attempts", c.analytics.ListAttempts)
		}
	}
}
