package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/backend"
	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/dashboard"
	"github.com/MrSnakeDoc/marks/internal/httpserver"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/redis"
	"github.com/MrSnakeDoc/marks/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
	"github.com/MrSnakeDoc/marks/internal/utils"
	"github.com/MrSnakeDoc/marks/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	pages       *index.PageIndex
	collector   *scheduler.PageCollector
	relay       *scheduler.EventRelay // nil without Redis
}

// New loads the configuration from the environment and wires the service.
func New() (*App, error) {
	cfg := config.Load()
	return build(cfg, logger.New(cfg.LogLevel, cfg.PrettyLog))
}

func build(cfg *config.Config, log logger.Logger) (*App, error) {
	api, err := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		AnonKey: cfg.BackendAnonKey,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	hub := auth.NewHub()
	var (
		store       auth.Store     = auth.NewMemoryStore()
		publisher   auth.Publisher = hub
		redisClient *goredis.Client
		relay       *scheduler.EventRelay
	)

	if cfg.RedisEnabled() {
		// Fail fast: a configured but unreachable Redis would silently lose sessions.
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		store = redisstore.NewStore(redisClient)
		bus := redisstore.NewEventBus(redisClient, hub, log)
		publisher = bus
		relay = scheduler.NewEventRelay(bus, log)
	} else {
		log.Warn("redis not configured, sessions are kept in memory")
	}

	authClient := auth.NewClient(api, store, hub, publisher, auth.NewTokenInspector(cfg.BackendJWTSecret), auth.Options{
		Provider:      cfg.OAuthProvider,
		RedirectURL:   cfg.CallbackURL(),
		SessionTTL:    cfg.SessionTTL,
		VerifierTTL:   cfg.VerifierTTL,
		RefreshMargin: cfg.RefreshMargin,
	}, log)

	pages := index.NewBoundedPageIndex(cfg.PageLimit)
	collectTrigger := make(chan struct{}, 1)
	collector := scheduler.NewPageCollector(pages, log, cfg.GCInterval, cfg.PageIdleTTL, collectTrigger)

	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CookieSecure:   cfg.CookieSecure,
		AuthRateBurst:  cfg.AuthRateBurst,
		AuthRatePerMin: cfg.AuthRatePerMin,
		Pages:          pages,
		NewPage: func(sid string) *dashboard.Page {
			return dashboard.New(sid, authClient, api, log)
		},
		Callback:       authClient,
		Backend:        api,
		CollectTrigger: collectTrigger,
	}
	if redisClient != nil {
		d.RedisClient = redisClient
	}

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      httpserver.New(cfg.ListenPort, d),
		redisClient: redisClient,
		pages:       pages,
		collector:   collector,
		relay:       relay,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.collector.Start(ctx)
	a.logger.Info("page collector started",
		logger.Duration("interval", a.cfg.GCInterval),
		logger.Duration("idle_ttl", a.cfg.PageIdleTTL))

	if a.relay != nil {
		a.relay.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.collector.Stop()
	if a.relay != nil {
		a.relay.Stop()
	}
	a.pages.CloseAll()

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	_ = a.logger.Sync()
	if runErr == nil {
		a.logger.Info("✅ marks stopped cleanly")
	}
	return runErr
}
