package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medplus/medplus-client/config"
	"github.com/medplus/medplus-client/internal/adapters/filestore"
	"github.com/medplus/medplus-client/internal/adapters/memstore"
	oidcadapter "github.com/medplus/medplus-client/internal/adapters/oidc"
	redisadapter "github.com/medplus/medplus-client/internal/adapters/redis"
	"github.com/medplus/medplus-client/internal/api"
	"github.com/medplus/medplus-client/internal/gateway"
	"github.com/medplus/medplus-client/internal/observability/notify"
	"github.com/medplus/medplus-client/internal/observability/notify/slack"
	"github.com/medplus/medplus-client/internal/observability/statsd"
	"github.com/medplus/medplus-client/internal/ports"
	"github.com/medplus/medplus-client/internal/service"
	"github.com/redis/go-redis/v9"
)

// App is the explicit application context: one owned instance of every
// session component, built once and passed to whatever presents it.
type App struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Store   ports.TokenStore
	Gateway *gateway.Gateway
	Session *service.SessionManager
	Decoder *service.Decoder
	API     *api.Client
	Notices notify.Sink
	Metrics *statsd.Client

	redis      redis.UniversalClient
	removeHook func()
}

// TokenStoreDeps groups dependencies for BuildTokenStore.
type TokenStoreDeps struct {
	Session config.SessionConfig
	Redis   config.RedisConfig
	Decoder *service.Decoder
	Logger  *slog.Logger
}

// BuildTokenStore constructs the configured token store. The returned Redis
// client is non-nil only for the redis backend and must be closed by the caller.
//
//nolint:ireturn // the backend is chosen from configuration.
func BuildTokenStore(ctx context.Context, deps TokenStoreDeps) (ports.TokenStore, redis.UniversalClient, error) {
	switch deps.Session.Store {
	case config.StoreBackendMemory:
		return memstore.New(), nil, nil
	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, deps.Redis, deps.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		opts := redisadapter.TokenStoreOptions{
			Client: client,
			Prefix: deps.Redis.KeyPrefix,
			Key:    deps.Session.StorageKey,
		}
		if deps.Decoder != nil {
			opts.Expiry = deps.Decoder.ExpiresAt
		}
		store, err := redisadapter.NewTokenStore(opts)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("create redis token store: %w", err)
		}
		return store, client, nil
	case config.StoreBackendFile, "":
		store, err := filestore.New(deps.Session.StorePath(), deps.Session.StorageKey)
		if err != nil {
			return nil, nil, fmt.Errorf("create file token store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", deps.Session.Store)
	}
}

// NewApp wires every component from cfg and restores the session before
// returning, so nothing can issue a protected call ahead of initialisation.
// Extra sinks receive user notices alongside the log and Slack sinks.
func NewApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, extra ...notify.Sink) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	app.Metrics = buildMetrics(logger, cfg.Observability.Metrics)
	app.Notices = append(buildNotices(logger, cfg.Observability.Notifications), extra...)
	app.Decoder = service.NewDecoder(service.DecoderOptions{})

	store, redisClient, err := BuildTokenStore(ctx, TokenStoreDeps{
		Session: cfg.Session,
		Redis:   cfg.Redis,
		Decoder: app.Decoder,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	app.Store = store
	app.redis = redisClient

	app.Gateway, err = gateway.New(gateway.Options{
		BaseURL:        cfg.API.BaseURL,
		Store:          store,
		Timeout:        cfg.API.Timeout,
		UserAgent:      cfg.API.UserAgent,
		MessageExpr:    cfg.API.ErrorMessageExpr,
		ValidationExpr: cfg.API.ValidationErrorsExpr,
		Logger:         logger,
		Metrics:        app.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create gateway: %w", err), app.Close())
	}

	var verifier ports.SignatureVerifier
	if cfg.Session.VerifySignatures() {
		v, verr := oidcadapter.NewKeySetVerifier(ctx, oidcadapter.VerifierConfig{JWKSURL: cfg.Session.JWKSURL})
		if verr != nil {
			return nil, errors.Join(fmt.Errorf("create signature verifier: %w", verr), app.Close())
		}
		verifier = v
	}

	app.Session, err = service.NewSessionManager(service.SessionManagerOptions{
		Store:    store,
		Decoder:  app.Decoder,
		Gateway:  app.Gateway,
		Verifier: verifier,
		Notifier: app.Notices,
		Logger:   logger,
		Metrics:  app.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create session manager: %w", err), app.Close())
	}
	session := app.Session
	app.removeHook = app.Gateway.OnAuthFailure(func(ctx context.Context, credential string, err error) {
		_ = session.HandleRejection(ctx, credential, err)
	})

	app.API, err = api.New(api.Options{Requester: app.Gateway, BaseURL: app.Gateway.BaseURL(), Logger: logger})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create api client: %w", err), app.Close())
	}

	if err := app.Session.Init(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("initialise session: %w", err), app.Close())
	}
	logger.DebugContext(ctx, "application ready",
		"store", string(cfg.Session.Store),
		"state", app.Session.State().String(),
	)
	return app, nil
}

// NewRefresher builds a polling refresher using the app's logger, notices and metrics.
func NewRefresher[T any](app *App, name string, interval time.Duration, fetch service.FetchFunc[T]) (*service.Refresher[T], error) {
	if interval <= 0 {
		interval = app.Config.Session.RefreshInterval
	}
	return service.NewRefresher(service.RefresherOptions[T]{
		Name:     name,
		Fetch:    fetch,
		Interval: interval,
		Logger:   app.Logger,
		Notifier: app.Notices,
		Metrics:  app.Metrics,
	})
}

// Close releases the connections owned by the app. The stored credential is kept.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.removeHook != nil {
		a.removeHook()
		a.removeHook = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		a.redis = nil
	}
	if a.Metrics != nil {
		if err := a.Metrics.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statsd: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildNotices(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) notify.Fanout {
	sinks := notify.Fanout{notify.LogSink{Logger: logger.With("component", "notices")}}
	if !cfg.Enabled || !cfg.Slack.Enabled {
		return sinks
	}
	client, err := slack.NewClient(slack.Config{
		WebhookURL: cfg.Slack.WebhookURL,
		Channel:    cfg.Slack.Channel,
		Username:   cfg.Slack.Username,
		Timeout:    cfg.Timeout,
		RetryLimit: cfg.RetryLimit,
	})
	if err != nil {
		logger.Error("failed to initialise slack notifier", "error", err)
		return sinks
	}
	return append(sinks, client)
}
