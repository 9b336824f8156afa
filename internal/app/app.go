package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unix_companion/internal/classifier"
	"unix_companion/internal/config"
	"unix_companion/internal/controller"
	"unix_companion/internal/event"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/service"
	"unix_companion/internal/tap"
	"unix_companion/pkg/database"
	"unix_companion/pkg/logger"
	"unix_companion/pkg/monitoring"
	"unix_companion/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Store
	Router   *gin.Engine
	DB       *gorm.DB
	services *services
}

type repositories struct {
	state      *repository.StateRepository
	credential *repository.CredentialRepository
	answer     *repository.AnswerRepository
}

type services struct {
	page   *service.PageService
	notify *service.NotifyService
	state  *service.StateService
	auth   *service.AuthService
	answer *service.AnswerService
	watch  *service.WatchService
	proxy  *service.ProxyService
}

type controllers struct {
	state        *controller.StateController
	answer       *controller.AnswerController
	auth         *controller.AuthController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		state:      repository.NewStateRepository(db),
		credential: repository.NewCredentialRepository(db),
		answer:     repository.NewAnswerRepository(db),
	}
}

func (a *App) initServices(repos *repositories, store *config.Store) *services {
	s := &services{}
	cfg := store.Load()

	s.page = service.NewPageService()
	s.notify = service.NewNotifyService()
	s.state = service.NewStateService(repos.state, repos.credential, s.notify)
	s.auth = service.NewAuthService(repos.state, store)
	s.answer = service.NewAnswerService(repos.answer, s.notify)

	bus := event.NewBus()
	cls := classifier.New(s.page, bus)

	// The submitter's own POST goes through the tapped callback client; its
	// /watched response matches the tap predicate but is excluded by the
	// classifier, so it never loops back as a lesson event.
	client := tap.WrapClient(
		tap.NewHTTPCallbackClient(&http.Client{Timeout: cfg.Upstream.Timeout()}),
		cls.Match,
		cls.Observe,
	)
	s.watch = service.NewWatchService(store, s.page, s.auth, repos.credential, s.notify, client)

	bus.Subscribe(model.TopicLessonLoaded, s.watch.HandleLessonLoaded)
	bus.Subscribe(model.TopicQuizChecked, s.answer.HandleQuizChecked)

	proxy, err := service.NewProxyService(cfg.Upstream.BaseURL, cls.Match, cls.Observe)
	if err != nil {
		logger.Log.Fatal("Failed to initialize upstream proxy", zap.Error(err))
	}
	s.proxy = proxy

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		state:        controller.NewStateController(s.state, s.page),
		answer:       controller.NewAnswerController(s.answer),
		auth:         controller.NewAuthController(s.auth),
		notification: controller.NewNotificationController(s.notify),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) startBackgroundTasks(s *services) {
	// Keep the anti-forgery cookie fresh while a session exists.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := s.auth.BearerToken(); err != nil {
				continue
			}
			if err := s.auth.RefreshXSRF(context.Background()); err != nil {
				logger.Log.Debug("periodic csrf refresh failed", zap.Error(err))
			}
		}
	}()
}

// OnConfigReload publishes a hot-reloaded configuration snapshot. Settings
// read per request (upstream URL, reload delay, shim key) take effect on the
// next Load; server port and database path still need a restart.
func (a *App) OnConfigReload(cfg *config.Config) {
	a.Config.Swap(cfg)
	logger.Log.Info("configuration reloaded")
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	store := config.NewStore(cfg)
	app := &App{
		Config: store,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, store)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("unix-companion", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services, store)

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Load().Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Companion running on port %s", a.Config.Load().Server.Port)
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

	log.Println("Server exiting")
}
