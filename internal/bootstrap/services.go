package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partyshop/config"
	"github.com/nikolayk812/partyshop/internal/account"
	"github.com/nikolayk812/partyshop/internal/devauth"
	"github.com/nikolayk812/partyshop/internal/firebase"
	"github.com/nikolayk812/partyshop/internal/metrics"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/nikolayk812/partyshop/internal/profile"
	"github.com/nikolayk812/partyshop/internal/repository"
	"github.com/nikolayk812/partyshop/internal/session"
	"github.com/nikolayk812/partyshop/internal/storage"
	"github.com/nikolayk812/partyshop/internal/viacep"
)

type gateway interface {
	port.CredentialGateway
	Close()
}

// App holds the wired shop services.
type App struct {
	Session  *session.Manager
	Accounts *account.Service
	Profiles *profile.Service
	Metrics  *metrics.Metrics

	closers []func() error
}

// ServicesConfig contains what NewApp needs to wire the shop.
type ServicesConfig struct {
	Config config.AppConfig
	Logger *slog.Logger

	// KV overrides the configured device storage when set.
	KV port.KeyValueStore
	// HTTPClient overrides the default client for Firebase and ViaCEP.
	HTTPClient *http.Client
}

func NewApp(ctx context.Context, sc ServicesConfig) (_ *App, err error) {
	cfg := sc.Config
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Metrics: metrics.New()}
	defer func() {
		if err != nil {
			err = errors.Join(err, app.Close())
		}
	}()

	kv := sc.KV
	if kv == nil {
		store, closeStore, openErr := OpenStorage(ctx, cfg.Storage, logger)
		if openErr != nil {
			return nil, fmt.Errorf("open storage: %w", openErr)
		}
		kv = store
		app.closers = append(app.closers, closeStore)
	}

	gw, tokens, err := newGateway(ctx, cfg, kv, httpClient(sc.HTTPClient, cfg.Firebase.Timeout), logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { gw.Close(); return nil })

	store, err := app.newProfileStore(ctx, cfg, kv, tokens, httpClient(sc.HTTPClient, cfg.Firebase.Timeout))
	if err != nil {
		return nil, err
	}

	lookup := viacep.New(viacep.Config{
		BaseURL:         cfg.Lookup.BaseURL,
		Timeout:         cfg.Lookup.Timeout,
		RatePerSecond:   cfg.Lookup.RatePerSecond,
		Burst:           cfg.Lookup.Burst,
		BreakerFailures: cfg.Lookup.BreakerFailures,
		BreakerTimeout:  cfg.Lookup.BreakerTimeout,
	}, httpClient(sc.HTTPClient, cfg.Lookup.Timeout), logger, app.Metrics)

	app.Session, err = session.NewManager(session.Options{
		Storage:     storage.NewCart(kv),
		Gateway:     gw,
		Logger:      logger,
		Metrics:     app.Metrics,
		SlowRestore: cfg.Session.SlowRestore,
	})
	if err != nil {
		return nil, fmt.Errorf("session.NewManager: %w", err)
	}

	app.Accounts = account.NewService(gw, app.Session, logger)
	app.Profiles = profile.NewService(store, lookup, logger)

	return app, nil
}

func newGateway(ctx context.Context, cfg config.AppConfig, kv port.KeyValueStore, client *http.Client, logger *slog.Logger) (gateway, port.TokenSource, error) {
	if cfg.AuthMode == config.AuthModeFirebase {
		auth, err := firebase.NewAuth(ctx, firebase.AuthConfig{
			APIKey:   cfg.Firebase.APIKey,
			AuthURL:  cfg.Firebase.AuthURL,
			TokenURL: cfg.Firebase.TokenURL,
		}, kv, client, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("firebase.NewAuth: %w", err)
		}
		return auth, auth, nil
	}

	gw, err := devauth.New(ctx, kv, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("devauth.New: %w", err)
	}
	return gw, nil, nil
}

func (a *App) newProfileStore(ctx context.Context, cfg config.AppConfig, kv port.KeyValueStore, tokens port.TokenSource, client *http.Client) (port.ProfileStore, error) {
	switch cfg.Profile.Backend {
	case config.ProfileFirestore:
		if tokens == nil {
			return nil, errors.New("firestore profiles require firebase auth")
		}
		store, err := firebase.NewProfileStore(firebase.FirestoreConfig{
			ProjectID: cfg.Firebase.ProjectID,
			BaseURL:   cfg.Firebase.FirestoreURL,
		}, tokens, client)
		if err != nil {
			return nil, fmt.Errorf("firebase.NewProfileStore: %w", err)
		}
		return store, nil

	case config.ProfilePostgres:
		if cfg.Profile.DatabaseURL == "" {
			return nil, errors.New("profile database url is empty")
		}

		pool, err := pgxpool.New(ctx, cfg.Profile.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := pool.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return repository.NewProfile(pool), nil

	default:
		return devauth.NewProfiles(kv), nil
	}
}

func httpClient(override *http.Client, timeout time.Duration) *http.Client {
	if override != nil {
		return override
	}
	return &http.Client{Timeout: timeout}
}

// Close stops the session, waiting for pending cart writes, then releases everything NewApp opened.
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Close()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
