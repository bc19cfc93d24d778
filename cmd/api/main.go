package main

import (
	"context"
	"fmt"
	"log"
	common_api "notisync/internal/common/api"
	"notisync/internal/config"
	"notisync/internal/database"
	"notisync/internal/features/account"
	"notisync/internal/features/audit"
	"notisync/internal/features/content"
	"notisync/internal/features/export"
	"notisync/internal/features/mirror"
	"notisync/internal/features/notion"
	"notisync/internal/features/schedule"
	"notisync/internal/features/syncer"
	"notisync/internal/features/target"
	"notisync/internal/logger"
	"notisync/internal/middleware"
	"notisync/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// NewNotionClient wires the remote API client from config.
func NewNotionClient(cfg *config.Config, auditService audit.Service, logger *zap.Logger) notion.Client {
	return notion.NewClient(cfg.NotionURL, auditService, logger)
}

// scheduleRunnerAdapter adapts the sync orchestrator to the schedule
// package's Runner without coupling the two packages.
type scheduleRunnerAdapter struct {
	orchestrator syncer.Orchestrator
}

func (a *scheduleRunnerAdapter) RunAll(ctx context.Context, ownerID string) error {
	_, err := a.orchestrator.Run(ctx, ownerID, "")
	return err
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Databases
			database.NewDatabase,
			database.NewDestination,

			// Initialize Repository
			audit.NewCallLogRepository,
			account.NewRepository,
			target.NewDataSourceRepository,
			target.NewRepository,
			syncer.NewRepository,
			schedule.NewRepository,
			content.NewRepository,

			// Initialize Services
			audit.NewService,
			account.NewService,
			NewNotionClient,
			mirror.NewTableNamingPolicy,
			mirror.NewSynchronizer,
			mirror.NewWriter,
			syncer.NewDriver,
			syncer.NewOrchestrator,
			target.NewService,
			content.NewService,
			export.NewService,
			schedule.NewService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(o syncer.Orchestrator) schedule.Runner {
				return &scheduleRunnerAdapter{orchestrator: o}
			},

			// Initialize Controller
			audit.NewController,
			account.NewController,
			target.NewController,
			syncer.NewController,
			schedule.NewController,
			content.NewController,
			export.NewController,

			// Initialize API Routes
			AsRoute(audit.NewApi),
			AsRoute(account.NewApi),
			AsRoute(target.NewApi),
			AsRoute(syncer.NewApi),
			AsRoute(schedule.NewApi),
			AsRoute(content.NewApi),
			AsRoute(export.NewApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, scheduleService schedule.Service) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return scheduleService.Initialize(ctx)
					},
					OnStop: func(ctx context.Context) error {
						scheduleService.Stop()
						return nil
					},
				})
			},
			func(lc fx.Lifecycle, contentRepo content.Repository) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return contentRepo.EnsureTable(ctx)
					},
				})
			},
		),
	)

	app.Run()
}
