package main

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/internal/config"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/etcd"
	"github.com/imtaco/livecast/internal/httputil"
	wsrpc "github.com/imtaco/livecast/internal/jsonrpc/websocket"
	"github.com/imtaco/livecast/internal/jwt"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/internal/otel"
	"github.com/imtaco/livecast/internal/redis"
	"github.com/imtaco/livecast/internal/retry"
	"github.com/imtaco/livecast/internal/scheduler"
	"github.com/imtaco/livecast/internal/storage"
	"github.com/imtaco/livecast/internal/workflow"
	"github.com/imtaco/livecast/presence"
	"github.com/imtaco/livecast/sessions"
	"github.com/imtaco/livecast/sessions/capture"
	"github.com/imtaco/livecast/sessions/lifecycle"
	"github.com/imtaco/livecast/sessions/store"
	"github.com/imtaco/livecast/sessions/transport"
	"github.com/imtaco/livecast/signaling"
)

// multipartSlack leaves room for multipart boundaries and headers on top of the
// recording size limit.
const multipartSlack = 1 << 20

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type Config struct {
	App          config.App      `mapstructure:"app"`
	HTTPAPI      httputil.Config `mapstructure:"http_api"`
	WSHttp       httputil.Config `mapstructure:"ws_http"`
	WebSocket    wsrpc.Config    `mapstructure:"websocket"`
	JWT          JWTConfig       `mapstructure:"jwt"`
	SessionStore store.Config    `mapstructure:"session_store"`
	Etcd         etcd.Config     `mapstructure:"etcd"`
	Redis        redis.Config    `mapstructure:"redis"`
	Otel         otel.Config     `mapstructure:"otel"`

	Recording  lifecycle.RecordingConfig  `mapstructure:"recording"`
	Disconnect lifecycle.DisconnectConfig `mapstructure:"disconnect"`
	Signaling  signaling.Config           `mapstructure:"signaling"`
	Upload     storage.Config             `mapstructure:"upload"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("jwt.secret", "MY-secret-key-change-in-production")
		v.SetDefault("jwt.issuer", "")

		config.Setup(v, "app")
		httputil.Setup(v, "http_api", "0.0.0.0:8080")
		httputil.Setup(v, "ws_http", "0.0.0.0:8081")
		wsrpc.Setup(v, "websocket")
		store.Setup(v, "session_store")
		etcd.Setup(v, "etcd")
		redis.Setup(v, "redis")
		otel.Setup(v, "otel")
		lifecycle.SetupRecording(v, "recording")
		lifecycle.SetupDisconnect(v, "disconnect")
		signaling.Setup(v, "signaling")
		storage.Setup(v, "upload")
	})
}

// openStore connects the configured driver. The returned step closes its client.
func openStore(ctx context.Context, cfg *Config, logger *log.Logger) (sessions.Store, workflow.Step, error) {
	switch cfg.SessionStore.Driver {
	case store.DriverEtcd:
		client, err := etcd.NewClient(&cfg.Etcd)
		if err != nil {
			return nil, workflow.Step{}, errors.Wrap(errors.ErrServer, err, "create etcd client")
		}
		if err := etcd.Ping(ctx, client, cfg.Etcd.DialTimeout); err != nil {
			_ = client.Close()
			return nil, workflow.Step{}, errors.Wrap(errors.ErrServer, err, "connect to etcd")
		}
		s := store.NewEtcdStore(client, cfg.SessionStore.EtcdPrefix, logger)
		return s, workflow.Step{Name: "etcd client", Run: func(context.Context) error { return client.Close() }}, nil

	case store.DriverRedis:
		client := redis.NewClient(&cfg.Redis)
		if err := redis.Ping(ctx, client, cfg.Redis.DialTimeout); err != nil {
			_ = client.Close()
			return nil, workflow.Step{}, errors.Wrap(errors.ErrServer, err, "connect to redis")
		}
		s := store.NewRedisStore(client, cfg.SessionStore.RedisPrefix, logger)
		return s, workflow.Step{Name: "redis client", Run: func(context.Context) error { return client.Close() }}, nil
	}
	return nil, workflow.Step{}, errors.Newf(errors.ErrValidation, "unknown session store driver %q", cfg.SessionStore.Driver)
}

func newJWTAuth(cfg JWTConfig) jwt.Auth {
	var opts []jwt.Option
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return jwt.NewAuth(cfg.Secret, opts...)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(cfg.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	otelShutdown, err := otel.Init(ctx, &cfg.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting livecast...",
		log.String("store", cfg.SessionStore.Driver),
		log.String("upload", cfg.Upload.Driver),
		log.Float64("signalRate", cfg.Signaling.RatePerSec))

	sessionStore, closeStore, err := openStore(ctx, cfg, logger.Module("Store"))
	if err != nil {
		logger.Fatal("Failed to open session store", log.Error(err))
	}

	uploader, err := storage.New(ctx, cfg.Upload, logger.Module("Storage"))
	if err != nil {
		logger.Fatal("Failed to create uploader", log.Error(err))
	}

	clock := clockwork.NewRealClock()
	registry := presence.NewRegistry(logger.Module("Presence"))

	manager, err := lifecycle.NewManager(
		sessionStore,
		registry,
		cfg.Recording,
		cfg.SessionStore.CacheSize,
		clock,
		logger.Module("Lifecycle"),
	)
	if err != nil {
		logger.Fatal("Failed to create lifecycle manager", log.Error(err))
	}

	autoEnder := lifecycle.NewAutoEnder(
		manager,
		registry,
		scheduler.NewKeyedTimer(clock, logger.Module("GraceTimer")),
		retry.New(logger.Module("Retry"), cfg.Disconnect.Retry, retry.WithRetryIf(lifecycle.Retryable)),
		cfg.Disconnect,
		logger.Module("AutoEnd"),
	)
	registry.SetHooks(autoEnder)

	capturer := capture.NewCoordinator(
		manager,
		uploader,
		cfg.Recording.MaxBytes,
		clock,
		logger.Module("Capture"),
	)

	tokens := auth.NewTokens(newJWTAuth(cfg.JWT))

	relay := signaling.NewRelay(registry, cfg.Signaling, logger.Module("Relay"))
	hook := signaling.NewWSHook(registry, relay, tokens, logger.Module("WSHook"))

	wsCfg := cfg.WebSocket
	wsCfg.AllowedOrigins = cfg.WSHttp.AllowedOrigins
	wsRPCServer := wsrpc.NewServer(hook, wsCfg, logger.Module("WSRPC"))
	signalServer := signaling.NewServer(
		wsRPCServer,
		manager,
		registry,
		relay,
		logger.Module("Signal"),
	)
	if err := signalServer.Open(ctx); err != nil {
		logger.Fatal("Failed to open Signal Server", log.Error(err))
	}

	routerCfg := transport.Config{
		AllowedOrigins: cfg.HTTPAPI.AllowedOrigins,
		MaxBodyBytes:   cfg.Recording.MaxBytes + multipartSlack,
	}
	if cfg.Upload.Driver == storage.DriverLocal {
		routerCfg.FilesRoot = cfg.Upload.Local.BasePath
	}
	router := transport.NewRouter(manager, capturer, tokens, routerCfg, logger.Module("API"))
	apiServer := httputil.NewServer(&cfg.HTTPAPI, router.Handler())

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", wsRPCServer.HandleWebSocket)
	wsServer := httputil.NewServer(&cfg.WSHttp, wsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting API server", log.String("addr", cfg.HTTPAPI.Addr))
		return apiServer.Listen()
	})
	g.Go(func() error {
		logger.Info("Starting WebSocket server", log.String("addr", cfg.WSHttp.Addr))
		return wsServer.Listen()
	})

	steps := []workflow.Step{
		{Name: "api server", Run: apiServer.Shutdown},
		{Name: "websocket server", Run: wsServer.Shutdown},
		{Name: "signal server", Run: func(context.Context) error { return signalServer.Close() }},
		{Name: "grace timers", Run: func(context.Context) error {
			autoEnder.Stop()
			return nil
		}},
		closeStore,
		{Name: "otel", Run: otelShutdown},
	}
	// a listener failure cancels gctx and starts the shutdown as well
	workflow.WaitGracefulShutdown(gctx, logger.Module("CleanUp"), steps, cfg.App.ShutdownTimeout)

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.Error(err))
	}
}
