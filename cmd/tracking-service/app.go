package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"beacon/internal/admin"
	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/dispatch"
	"beacon/internal/funnel"
	"beacon/internal/lifecycle"
	"beacon/internal/logger"
	"beacon/internal/rules"
	"beacon/internal/track"
	"beacon/pkg/bootstrap"
	"beacon/pkg/health"
	"beacon/pkg/metrics"
	"beacon/pkg/middleware"
	"beacon/pkg/migrations"
	"beacon/pkg/ratelimit"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client
	custom      *rules.CustomService
	dispatcher  *dispatch.Dispatcher
	manager     *lifecycle.Manager
	server      *http.Server
	router      *gin.Engine
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.initServer()
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.db != nil && a.config.Database.RunMigrations {
		if err := migrations.RunPostgres(a.db, "migrations/postgres"); err != nil {
			return err
		}
		a.logger.InfowCtx(ctx, "Database migrations applied")
	}

	if a.config.Funnel.Backend == "redis" {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = redisClient
	}

	if a.config.Database.MongoDB.URI != "" {
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		mongoClient, err := a.dbConnector.InitMongoDB(initCtx)
		if err != nil {
			a.logger.WarnwCtx(initCtx, "MongoDB connection failed, continuing without archive and audit trail", "error", err)
		} else if mongoClient != nil {
			a.mongoClient = mongoClient
			if err := migrations.EnsureMongoCollections(initCtx, mongoClient.Database(a.mongoDBName()), a.archiveCollection()); err != nil {
				a.logger.WarnwCtx(initCtx, "Failed to ensure MongoDB indexes", "error", err)
			}
		}
	}

	return nil
}

func (a *App) initPipeline(ctx context.Context) error {
	var store funnel.Store
	if a.redisClient != nil {
		store = funnel.NewRedisStore(a.redisClient)
		a.logger.InfowCtx(ctx, "Funnel store backend", "backend", "redis")
	} else {
		store = funnel.NewMemoryStore()
		a.logger.InfowCtx(ctx, "Funnel store backend", "backend", "memory")
	}

	if a.db != nil {
		repo := rules.NewRepository(a.db)
		custom, err := rules.NewCustomService(repo, a.config.Rules, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create custom rule service: %w", err)
		}
		if err := custom.ReloadRules(ctx, true); err != nil {
			a.logger.WarnwCtx(ctx, "Initial custom rule load failed, starting with empty set", "error", err)
		}
		a.custom = custom
	}

	engine := rules.NewEngine(store, a.custom, a.logger)

	transport, err := dispatch.NewTransport(a.config.Collector, a.config.CircuitBreaker, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create collector transport: %w", err)
	}

	var archiver *dispatch.Archiver
	if a.mongoClient != nil && a.config.Archive.Enabled {
		archiver = dispatch.NewArchiver(a.mongoClient, a.mongoDBName(), a.archiveCollection(), a.logger)
	}

	a.dispatcher = dispatch.NewDispatcher(transport, nil, archiver, a.config.Tracking, a.logger)
	a.manager = lifecycle.NewManager(engine, a.dispatcher, a.config.Tracking, a.logger)
	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.Admin.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.Admin.RateLimit.RPS,
			Burst:           a.config.Admin.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.Admin.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.Admin.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.Infow("Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	trackService := track.NewService(a.manager, a.logger)
	trackHandler := track.NewHandler(trackService, a.logger)
	trackHandler.RegisterRoutes(router)

	if a.db != nil {
		opts := []admin.ServiceOption{
			admin.WithVersioning(admin.NewVersioningRepository(a.db)),
		}
		if a.mongoClient != nil {
			opts = append(opts, admin.WithAudit(admin.NewAuditStore(a.mongoClient, a.mongoDBName(), "rule_audit_logs")))
		}
		if a.custom != nil {
			opts = append(opts, admin.WithReloadNotifier(admin.NewReloadNotifier(a.custom, a.logger)))
		}

		adminService := admin.NewService(admin.NewRepository(a.db), opts...)
		adminHandler := admin.NewHandler(adminService, a.logger)
		adminHandler.RegisterRoutes(router)
	}

	metrics.RegisterTrackingMetrics()
	metrics.RegisterCustomRuleMetrics()
	metrics.RegisterTransportMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	metrics.RegisterAdminMetrics()

	healthRegistry := health.NewCheckerRegistry()
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeoutSeconds) * time.Second,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(gctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.custom != nil {
		g.Go(func() error {
			if err := a.custom.StartReloader(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(gctx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher close error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(shutdownCtx, a.redisClient, a.db, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}

func (a *App) mongoDBName() string {
	if a.config.Database.MongoDB.Database != "" {
		return a.config.Database.MongoDB.Database
	}
	return constants.DefaultArchiveDBName
}

func (a *App) archiveCollection() string {
	if a.config.Archive.Collection != "" {
		return a.config.Archive.Collection
	}
	return constants.DefaultArchiveCollection
}
