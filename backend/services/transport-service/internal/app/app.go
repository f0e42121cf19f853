package app

import (
	"context"
	"database/sql"
	"net/http"
	"slices"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libredis "transporte/backend/libs/redis"
	"transporte/backend/services/transport-service/internal/auth"
	"transporte/backend/services/transport-service/internal/cache"
	"transporte/backend/services/transport-service/internal/config"
	"transporte/backend/services/transport-service/internal/db"
	"transporte/backend/services/transport-service/internal/etup"
	httpserver "transporte/backend/services/transport-service/internal/http"
	"transporte/backend/services/transport-service/internal/http/handlers"
	"transporte/backend/services/transport-service/internal/http/middleware"
	"transporte/backend/services/transport-service/internal/ingest"
	"transporte/backend/services/transport-service/internal/repository"
	"transporte/backend/services/transport-service/internal/service"
	"transporte/backend/services/transport-service/internal/ws"
)

// App wires transport-service dependencies.
type App struct {
	server      *httpserver.Server
	scheduler   *ingest.Scheduler
	hub         *ws.Hub
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	var (
		redisClient *redis.Client
		queryCache  *cache.RedisCache
	)
	if cfg.CacheEnabled() {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		queryCache = cache.NewRedisCache(redisClient, cfg.CacheTTL(), logger)
	}

	transportRepo := repository.NewTransportRepository(sqlDB)
	runRepo := repository.NewRunRepository(sqlDB)

	hub := ws.NewHub(0, logger)

	fetcher := etup.NewClient(cfg.ExternalAPI.URL, &http.Client{Timeout: cfg.FetchTimeout()}, logger)
	opts := []ingest.Option{
		ingest.WithBatchSize(cfg.Ingestion.BatchSize),
		ingest.WithRunStore(runRepo),
		ingest.WithNotifier(hub),
	}
	var transportService *service.TransportService
	if queryCache != nil {
		opts = append(opts, ingest.WithInvalidator(queryCache))
		transportService = service.NewTransportService(transportRepo, runRepo, queryCache, logger)
	} else {
		transportService = service.NewTransportService(transportRepo, runRepo, nil, logger)
	}
	ingestor := ingest.NewIngestor(fetcher, transportRepo, logger, opts...)

	transportHandlers := handlers.NewTransportHandlers(transportService, ingestor, logger)
	wsServer := ws.NewServer(hub, 0, originAllowed(cfg.CORS.AllowedOrigins), logger)

	routes := httpserver.Routes{
		List:           transportHandlers.List,
		Load:           transportHandlers.Load,
		Probe:          transportHandlers.Probe,
		Statistics:     transportHandlers.Statistics,
		TransportTypes: transportHandlers.TransportTypes,
		Runs:           transportHandlers.Runs,
		Events:         wsServer.HandleWS,
		Health:         handlers.NewHealthHandler(sqlDB),
	}

	if cfg.AuthEnabled() {
		hasher, err := auth.NewBcryptHasher(0)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
		authenticator := auth.NewOperatorAuthenticator(cfg.Auth.OperatorUsername, cfg.Auth.OperatorPasswordHash, hasher, tokens, logger)
		routes.Login = handlers.NewLoginHandler(authenticator)
		routes.LoadGuard = middleware.RequireRole(tokens, auth.RoleOperator)
	} else {
		logger.Warn("auth disabled, ingestion endpoint is unprotected")
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger,
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimitWindow()),
	)

	return &App{
		server:      server,
		scheduler:   ingest.NewScheduler(ingestor, cfg.IngestionInterval(), cfg.Ingestion.RunOnStart, logger),
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server, event hub and ingestion scheduler.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})
	g.Go(func() error {
		return a.server.Run(ctx)
	})
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

func originAllowed(origins []string) func(string) bool {
	return func(origin string) bool {
		return slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}
