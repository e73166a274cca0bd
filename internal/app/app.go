package app

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/controller"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/service"
	"codenest_backend/pkg/database"
	"codenest_backend/pkg/logger"
	"codenest_backend/pkg/monitoring"
	"codenest_backend/pkg/security"
	"codenest_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	course        *repository.CourseRepository
	lesson        *repository.LessonRepository
	enrollment    *repository.EnrollmentRepository
	progress      *repository.ProgressRepository
	post          *repository.PostRepository
	comment       *repository.CommentRepository
	forumCategory *repository.ForumCategoryRepository
	forumThread   *repository.ForumThreadRepository
	forumReply    *repository.ForumReplyRepository
}

type services struct {
	tokens     *service.TokenService
	auth       *service.AuthService
	user       *service.UserService
	course     *service.CourseService
	enrollment *service.EnrollmentService
	community  *service.CommunityService
	forum      *service.ForumService
	storage    *service.StorageService
	media      *service.MediaService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	course     *controller.CourseController
	enrollment *controller.EnrollmentController
	community  *controller.CommunityController
	forum      *controller.ForumController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 由配置监听器调用，依次执行已注册的回调
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		course:        repository.NewCourseRepository(db),
		lesson:        repository.NewLessonRepository(db),
		enrollment:    repository.NewEnrollmentRepository(db),
		progress:      repository.NewProgressRepository(db),
		post:          repository.NewPostRepository(db),
		comment:       repository.NewCommentRepository(db),
		forumCategory: repository.NewForumCategoryRepository(db),
		forumThread:   repository.NewForumThreadRepository(db),
		forumReply:    repository.NewForumReplyRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.tokens = service.NewTokenService(cfg.JWT)

	// 未开启时保持 nil 接口，refresh token 只做签名和过期校验
	var refreshStore service.RefreshTokenStore
	if rdb != nil && cfg.Auth.RevokeRotatedRefreshTokens {
		refreshStore = repository.NewRedisRefreshTokenStore(rdb)
	}
	s.auth = service.NewAuthService(
		repos.user,
		s.tokens,
		service.NewBcryptHasher(cfg.Auth.BcryptCost),
		service.NewGoogleIdentityVerifier(cfg.OAuth.GoogleClientID),
		refreshStore,
	)

	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(db, repos.course, repos.lesson, repos.enrollment, repos.progress, s.user)
	s.enrollment = service.NewEnrollmentService(db, repos.course, repos.lesson, repos.enrollment, repos.progress)
	s.community = service.NewCommunityService(db, repos.post, repos.comment, s.user)
	s.forum = service.NewForumService(db, repos.forumCategory, repos.forumThread, repos.forumReply, s.user)

	s.storage = service.NewStorageService(&cfg.Storage)
	s.media = service.NewMediaService(repos.user, s.course, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user),
		user:       controller.NewUserController(s.user, s.media),
		course:     controller.NewCourseController(s.course, s.media),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		community:  controller.NewCommunityController(s.community),
		forum:      controller.NewForumController(s.forum),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode == gin.DebugMode
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("initialize redis: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}
	app.RegisterConfigCallback(logger.ApplyConfig)

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("codenest", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := tracing.Shutdown(ctx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
	return nil
}
