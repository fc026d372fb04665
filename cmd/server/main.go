package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/familyreg/backend/docs"
	appfamily "github.com/familyreg/backend/internal/application/family"
	identityapp "github.com/familyreg/backend/internal/application/identity"
	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/cache"
	"github.com/familyreg/backend/internal/infrastructure/config"
	"github.com/familyreg/backend/internal/infrastructure/event"
	"github.com/familyreg/backend/internal/infrastructure/imaging"
	"github.com/familyreg/backend/internal/infrastructure/logger"
	"github.com/familyreg/backend/internal/infrastructure/metrics"
	"github.com/familyreg/backend/internal/infrastructure/persistence"
	"github.com/familyreg/backend/internal/infrastructure/printing"
	"github.com/familyreg/backend/internal/infrastructure/storage"
	"github.com/familyreg/backend/internal/infrastructure/telemetry"
	"github.com/familyreg/backend/internal/interfaces/http/handler"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/familyreg/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			Masjid Family Registration API
//	@version		1.0
//	@description	Household registration wizard, family dashboard and exports

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	// jsonBodyLimit applies to every route except the photo upload
	jsonBodyLimit = 1 << 20
	photoRoute    = "/api/v1/registrations/:id/photo"
	statsTTL      = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry first so the rebuilt logger feeds the collector
	otelProviders, err := telemetry.Setup(ctx, telemetry.ConfigFrom(cfg.Telemetry, version), cfg.Telemetry.LogsEnabled, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if otelProviders.LogsEnabled() {
		log, err = logger.New(logCfg, otelProviders.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		otelProviders.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting family registration backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	location, err := time.LoadLocation(cfg.Registration.TimeZone)
	if err != nil {
		log.Fatal("Invalid registration time zone", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Warn("Schema created with auto-migrate; use regctl migrate outside development")
	}
	log.Info("Database connected successfully")

	familyRepo := persistence.NewGormFamilyRepository(db.DB)
	adminRepo := persistence.NewGormAdminRepository(db.DB)

	// Drafts and token revocations live in redis when configured
	checks := []handler.HealthCheck{{Name: "database", Check: db.Ping}}
	var (
		drafts    registration.WizardStore
		blacklist auth.TokenBlacklist
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		drafts = cache.NewRedisDraftStore(redisClient, "")
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	} else {
		memDrafts := cache.NewInMemoryDraftStore(time.Minute)
		defer func() {
			_ = memDrafts.Close()
		}()
		drafts = memDrafts
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Redis disabled; drafts and revoked tokens are kept in process memory")
	}

	// Photo storage
	var photos regapp.PhotoStorage
	switch cfg.Storage.Type {
	case "s3":
		s3Photos, err := storage.NewS3PhotoStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to create photo storage", zap.Error(err))
		}
		if err := s3Photos.EnsureBucket(ctx); err != nil {
			log.Warn("Photo bucket check failed", zap.String("bucket", s3Photos.Bucket()), zap.Error(err))
		}
		photos = s3Photos
	default:
		photos = storage.NewMemoryPhotoStorage("")
		log.Warn("Photos are kept in process memory")
	}
	var submitPhotos regapp.PhotoStorage
	if cfg.Registration.PhotoEnabled {
		submitPhotos = photos
	}

	// PDF export needs a Chrome binary; CSV and Excel work without it
	var reportPrinter appfamily.ReportPrinter
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		Timeout:   cfg.Export.PDFTimeout,
		ExecPath:  cfg.Export.ChromePath,
		Headful:   !cfg.Export.ChromeHeadless,
		NoSandbox: true,
		MaxTabs:   cfg.Export.PDFConcurrency,
		Logger:    log,
	})
	if err != nil {
		log.Warn("PDF export disabled", zap.Error(err))
	} else {
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		reportPrinter = printing.NewFamilyReportPrinter(renderer, location)
	}

	// Metrics: prometheus for scraping, OTLP when telemetry is on
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(promRegistry)
	observers := regapp.Observers{appMetrics}
	if otelProviders.Enabled() {
		otelMetrics, err := telemetry.NewRegistrationMetrics(otelProviders.Meter(telemetry.TracerName))
		if err != nil {
			log.Fatal("Failed to create registration metrics", zap.Error(err))
		}
		observers = append(observers, otelMetrics)
	}

	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	guard := regapp.NewDraftGuard()
	wizardService := regapp.NewWizardService(
		drafts,
		imaging.NewCropper(imaging.WithLogger(log)),
		guard,
		registration.WizardConfig{
			RosterMode:         registration.RosterMode(cfg.Registration.RosterMode),
			RequireHouseNumber: cfg.Registration.RequireHouseNumber,
			RequireWhatsApp:    cfg.Registration.RequireWhatsApp,
			PhotoEnabled:       cfg.Registration.PhotoEnabled,
		},
		cfg.Registration.DraftTTL,
		log,
	)
	submissionService := regapp.NewSubmissionService(
		drafts, familyRepo, submitPhotos, eventBus, guard, observers,
		regapp.SubmissionConfig{
			DraftTTL: cfg.Registration.DraftTTL,
			Timeout:  cfg.Registration.SubmitTimeout,
			Location: location,
		},
		log,
	)
	familyService := appfamily.NewService(familyRepo, photos, eventBus, appfamily.ServiceConfig{
		PhotoURLTTL:   cfg.Storage.PresignExpiration,
		PublishEvents: true,
	}, log)
	exportService := appfamily.NewExportService(familyRepo, reportPrinter, cfg.Export.MaxRows, location, log)
	statsService := appfamily.NewStatsService(familyRepo, statsTTL)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(familyRepo, adminRepo, jwtService, blacklist, log)

	// Event subscribers
	eventBus.Subscribe(appMetrics.NewFamilyEventCounter())
	eventBus.Subscribe(appfamily.NewPhotoCleanupHandler(photos, log))
	eventBus.Subscribe(appfamily.NewSessionRevocationHandler(blacklist, cfg.JWT.RefreshTokenExpiration))
	eventBus.Subscribe(appfamily.NewStatsInvalidator(statsService))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Admin.BootstrapEmail != "" {
		created, err := authService.EnsureAdmin(ctx, identityapp.CreateAdminInput{
			Email:       cfg.Admin.BootstrapEmail,
			Password:    cfg.Admin.BootstrapPassword,
			DisplayName: cfg.Admin.BootstrapName,
		})
		if err != nil {
			log.Fatal("Failed to create bootstrap admin", zap.Error(err))
		}
		if created {
			log.Info("Bootstrap admin created", zap.String("email", cfg.Admin.BootstrapEmail))
		}
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order: request ID, recovery, access log, headers, CORS, body limit,
	// tracing span, span status, prometheus, rate limit
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(security))
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimitWithOverrides(jsonBodyLimit, map[string]int64{
		photoRoute: cfg.HTTP.MaxBodySize,
	}))
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(appMetrics.GinMiddleware())

	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiters = append(limiters, limiter)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	var authRateLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		limiters = append(limiters, limiter)
		authRateLimit = middleware.AuthRateLimit(limiter)
	}
	defer func() {
		for _, l := range limiters {
			l.Stop()
		}
	}()

	authenticate := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks...)

	// Probes and docs live outside the versioned API
	engine.GET("/health", systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	docs.SwaggerInfo.Version = version
	swaggerChain := []gin.HandlerFunc{middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	})}
	if cfg.Swagger.RequireAuth {
		swaggerChain = append(swaggerChain, authenticate, middleware.RequireRole(auth.RoleAdmin))
	}
	swaggerChain = append(swaggerChain, ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/swagger/*any", swaggerChain...)

	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = profiler.IsEnabled()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.Register(r, router.Handlers{
		Registration: handler.NewRegistrationHandler(wizardService, submissionService),
		Auth:         handler.NewAuthHandler(authService),
		Family:       handler.NewFamilyHandler(familyService, exportService),
		Stats:        handler.NewStatsHandler(statsService),
		System:       systemHandler,
	}, router.Guards{
		Authenticate:  authenticate,
		AuthRateLimit: authRateLimit,
		Request: []gin.HandlerFunc{
			middleware.TracingAttributeInjector(),
			middleware.ProfilingWithConfig(profilingConfig),
		},
	})
	routes := r.Setup()
	log.Debug("API routes mounted", zap.String("base_path", r.BasePath()), zap.Int("routes", len(routes)))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}
