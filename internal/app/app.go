package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/config"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/controller"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/repository"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/service"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/database"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/logger"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/monitoring"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/security"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	quiz     *repository.QuizRepository
	attempt  *repository.AttemptRepository
	recovery *repository.RecoveryRepository
}

type services struct {
	quiz        *service.QuizService
	delivery    *service.DeliveryService
	certificate *service.CertificateService
	analytics   *service.AnalyticsService
}

type controllers struct {
	quiz      *controller.QuizController
	delivery  *controller.DeliveryController
	analytics *controller.AnalyticsController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// OnConfigReload swaps the active config and notifies registered callbacks.
// Connection settings still require a restart; only tunables are hot-applied.
func (a *App) OnConfigReload(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		quiz:     repository.NewQuizRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		recovery: repository.NewRecoveryRepository(rdb, time.Duration(cfg.Delivery.DraftTTLHours)*time.Hour),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.quiz = service.NewQuizService(repos.quiz)

	s.delivery = service.NewDeliveryService(repos.attempt, repos.recovery, nil)
	s.delivery.SetIntervals(
		time.Duration(cfg.Delivery.AutosaveSeconds)*time.Second,
		time.Duration(cfg.Delivery.IdleLimitMinutes)*time.Minute,
	)

	var issuer service.CertificateIssuer = service.NoopCertificateIssuer{}
	if cfg.Certificate.Endpoint != "" {
		issuer = service.NewHTTPCertificateIssuer(cfg.Certificate.Endpoint)
	}
	s.certificate = service.NewCertificateService(issuer, s.delivery.CertificateRequests())

	s.analytics = service.NewAnalyticsService(repos.quiz, repos.attempt)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		quiz:      controller.NewQuizController(s.quiz),
		delivery:  controller.NewDeliveryController(s.delivery, s.quiz, repos.attempt),
		analytics: controller.NewAnalyticsController(s.analytics),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go s.delivery.Run()
	go s.certificate.Run()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("quiz-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// No request handlers remain; stop the tick/autosave/reaper loop, which
	// closes the certificate queue behind the last producer.
	if a.services != nil && a.services.delivery != nil {
		a.services.delivery.Stop()
	}

	log.Println("Server exiting")
}
