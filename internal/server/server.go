// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	cache           *cache.Cache
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	authService     *service.AuthService
	categoryService *service.CategoryService
	postService     *service.PostService
	commentService  *service.CommentService
	uploadService   *service.UploadService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case nothing is cached.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if db == nil {
		return nil, errors.New("server: database is required")
	}

	c := cache.New(redisClient)

	userRepo := repository.NewUserRepository(db, c)
	categoryRepo := repository.NewCategoryRepository(db, c)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	return &Server{
		config:          cfg,
		db:              db,
		cache:           c,
		promMiddleware:  middleware.InitMetrics("inkwell-api"),
		authService:     service.NewAuthService(userRepo, cfg),
		categoryService: service.NewCategoryService(categoryRepo),
		postService:     service.NewPostService(postRepo, categoryRepo),
		commentService:  service.NewCommentService(commentRepo),
		uploadService:   service.NewUploadService(cfg),
	}, nil
}

// App builds the Fiber application with middleware and routes. It is built
// once; later calls return the same app.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName: "Inkwell API",
		// Multipart overhead on top of the largest accepted image.
		BodyLimit:    int(s.uploadService.MaxBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors that escape handlers in the API error shape.
// Only uploads can legitimately exceed the body limit, so an oversized body
// is reported the way the upload service reports an oversized file.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return models.RespondWithError(c, fe.Code, &models.AppError{Code: models.CodeNotFound, Message: fe.Message})
		case fe.Code == fiber.StatusRequestEntityTooLarge:
			if s.uploadService != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest, s.uploadService.TooLarge())
			}
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Request body too large"))
		case fe.Code < fiber.StatusInternalServerError:
			return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(recover.Config{EnableStackTrace: !s.config.IsProduction()}))
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	// Uploaded images are embedded by other origins.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(strings.TrimSuffix(service.UploadURLPrefix, "/"), s.uploadService.Dir(), fiber.Static{
		ByteRange: true,
		MaxAge:    3600,
	})

	api := app.Group("/api")
	api.Get("/", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.authService)
	optionalAuth := middleware.OptionalAuth(s.authService)

	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)
	auth.Get("/me", authRequired, s.Me)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", optionalAuth, s.CreateCategory)
	categories.Delete("/:categoryId", authRequired, s.DeleteCategory)

	// Specific /slug route before generic /:postId
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/slug/:slug", s.GetPostBySlug)
	posts.Get("/:postId", s.GetPost)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Put("/:postId", authRequired, s.UpdatePost)
	posts.Delete("/:postId", authRequired, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/post/:postId", s.GetComments)
	comments.Post("/post/:postId", authRequired, s.CreateComment)
	comments.Get("/:commentId/post/:postId", s.GetComment)
	comments.Put("/:commentId/post/:postId", authRequired, s.UpdateComment)
	comments.Delete("/:commentId/post/:postId", authRequired, s.DeleteComment)

	api.Post("/upload", authRequired, s.UploadImage)
}

// HealthCheck handles GET /api/
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("Inkwell API is running")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: a
// missing client reports "disabled", a failing one makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.cache.Enabled() {
		redisStatus = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until the app is shut down.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and releases the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := database.Close(s.db); err != nil {
		errs = append(errs, err)
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, err)
	}
	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
