package server

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/handler"
	"github.com/mansoorceksport/tripdesk/internal/middleware"
	"github.com/mansoorceksport/tripdesk/internal/repository"
	"github.com/mansoorceksport/tripdesk/internal/service"
	"github.com/mansoorceksport/tripdesk/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// AppDependencies holds the dependencies required to start the application.
// The document store backend is chosen by the caller.
type AppDependencies struct {
	Config      *config.Config
	PackageRepo domain.PackageRepository
	MemberRepo  domain.TripMemberRepository
	SchemaRepo  domain.DetailSchemaRepository
	FileRepo    domain.FileRepository // nil disables media endpoints
	RedisClient *redis.Client
	AuthClient  middleware.FirebaseTokenVerifier // nil when Firebase is not configured
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config

	// Initialize repositories
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)
	packageRepo := repository.NewCachedPackageRepository(deps.PackageRepo, cacheRepo, cfg.Server.PackageCacheTTL)
	locker := repository.NewRedisLocker(deps.RedisClient, cfg.Sync.EnrollLockWait)

	// Initialize services
	syncService := service.NewSyncService(packageRepo, deps.MemberRepo, cfg.Sync.Concurrency, cfg.Sync.ConflictRetries)
	packageService := service.NewPackageService(packageRepo, deps.MemberRepo, deps.SchemaRepo, syncService, cfg.Sync.ConflictRetries)
	dateRangeService := service.NewDateRangeService(packageRepo, deps.MemberRepo, cfg.Sync.ConflictRetries)
	ledgerService := service.NewLedgerService(packageRepo, deps.MemberRepo, syncService, locker, cfg.Sync.EnrollLockTTL)
	schemaService := service.NewDetailSchemaService(deps.SchemaRepo, packageRepo, cfg.Sync.ConflictRetries)

	var tokenService *service.AdminTokenService
	if cfg.Auth.AdminJWTSecret != "" {
		tokenService = service.NewAdminTokenService(cfg.Auth.AdminJWTSecret)
	}

	// Initialize handlers
	packageHandler := handler.NewPackageHandler(packageService)
	dateRangeHandler := handler.NewDateRangeHandler(dateRangeService)
	memberHandler := handler.NewMemberHandler(ledgerService)
	schemaHandler := handler.NewSchemaHandler(schemaService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TripDesk API",
		BodyLimit:    int(cfg.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "tripdesk",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// ===========================================
	// PUBLIC CATALOGUE - /v1/packages/*
	// ===========================================
	public := v1.Group("/packages")
	public.Get("/:type", packageHandler.ListPackages)
	public.Get("/:type/:id", packageHandler.GetPackage)

	// ===========================================
	// ADMIN API - /v1/admin/*
	// ===========================================
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(tokenService, deps.AuthClient, cfg.Auth.AdminEmails))
	admin.Use(middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Server.IdempotencyTTL))

	packages := admin.Group("/packages")
	packages.Get("/:type", packageHandler.ListPackages)
	packages.Post("/:type", packageHandler.CreatePackage)
	packages.Post("/:type/sync", packageHandler.SyncPackages)
	packages.Get("/:type/:id", packageHandler.GetPackage)
	packages.Put("/:type/:id", packageHandler.UpdatePackage)
	packages.Delete("/:type/:id", packageHandler.DeletePackage)

	dateRanges := packages.Group("/:type/:id/date-ranges")
	dateRanges.Post("/", dateRangeHandler.AddDateRange)
	dateRanges.Patch("/:rangeId", dateRangeHandler.UpdateDateRange)
	dateRanges.Delete("/:rangeId", dateRangeHandler.DeleteDateRange)
	dateRanges.Get("/:rangeId/members", memberHandler.ListMembers)
	dateRanges.Get("/:rangeId/stats", memberHandler.GetStats)
	dateRanges.Post("/:rangeId/members", memberHandler.AddMember)

	members := admin.Group("/members")
	members.Put("/:id", memberHandler.UpdateMember)
	members.Delete("/:id", memberHandler.DeleteMember)

	schemas := admin.Group("/schemas")
	schemas.Get("/:type", schemaHandler.GetSchema)
	schemas.Post("/:type/categories", schemaHandler.AddCategory)
	schemas.Delete("/:type/categories/:categoryId", schemaHandler.RemoveCategory)
	schemas.Post("/:type/categories/:categoryId/fields", schemaHandler.AddField)
	schemas.Delete("/:type/categories/:categoryId/fields/:field", schemaHandler.RemoveField)

	if deps.FileRepo != nil {
		mediaService := service.NewMediaService(deps.FileRepo, cfg.Server.MaxUploadSizeMB*1024*1024)
		mediaHandler := handler.NewMediaHandler(mediaService, cfg.Server.MaxUploadSizeMB)

		media := admin.Group("/media")
		media.Post("/images", mediaHandler.UploadImage)
		media.Post("/videos", mediaHandler.UploadVideo)
		media.Delete("/images/+", mediaHandler.DeleteImage)
		media.Delete("/videos/+", mediaHandler.DeleteVideo)
	} else {
		log.Println("Warning: blob store not configured, media endpoints disabled")
	}

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Error: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": strings.TrimSpace(message),
	})
}
