// Package app wires all Vaani subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithTurnStore,
// WithEscalator, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/BharatDhande/Vaani/internal/config"
	"github.com/BharatDhande/Vaani/internal/escalate"
	"github.com/BharatDhande/Vaani/internal/health"
	"github.com/BharatDhande/Vaani/internal/router"
	"github.com/BharatDhande/Vaani/internal/rules"
	"github.com/BharatDhande/Vaani/internal/server"
	"github.com/BharatDhande/Vaani/internal/session"
	"github.com/BharatDhande/Vaani/pkg/memory"
	"github.com/BharatDhande/Vaani/pkg/memory/inmem"
	"github.com/BharatDhande/Vaani/pkg/memory/postgres"
	"github.com/BharatDhande/Vaani/pkg/memory/redis"
	"github.com/BharatDhande/Vaani/pkg/provider/llm"
)

// Default turn-store bounds, used when the config leaves them zero.
const (
	defaultMaxTurns = 10
	defaultTurnTTL  = time.Hour
)

// shutdownGrace bounds the HTTP server drain when the context is cancelled.
const shutdownGrace = 10 * time.Second

// Providers holds one interface value per provider slot. Populated by main.go
// from the config.
type Providers struct {
	LLM llm.Provider
}

// App owns all subsystem lifetimes and serves the Vaani assistant API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	store     memory.TurnStore
	guard     *session.StoreGuard
	escalator router.Escalator
	router    *router.Router
	httpSrv   *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithTurnStore injects a turn store instead of creating one from config.
// The store is still wrapped in the degradation guard.
func WithTurnStore(s memory.TurnStore) Option {
	return func(a *App) { a.store = s }
}

// WithEscalator injects an escalation client instead of creating one from the
// LLM provider.
func WithEscalator(e router.Escalator) Option {
	return func(a *App) { a.escalator = e }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go. Use Option functions to inject test doubles.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initMemory(ctx); err != nil {
		return nil, fmt.Errorf("app: init memory: %w", err)
	}
	if err := a.initEscalator(); err != nil {
		return nil, fmt.Errorf("app: init escalator: %w", err)
	}
	a.initRouter()
	a.initServer()

	return a, nil
}

// initMemory sets up the configured turn store and wraps it in the
// degradation guard so a storage outage never fails a request.
func (a *App) initMemory(ctx context.Context) error {
	if a.store == nil {
		maxTurns := a.cfg.Memory.MaxTurns
		if maxTurns == 0 {
			maxTurns = defaultMaxTurns
		}
		ttl := a.cfg.Memory.TTL.Std()
		if ttl == 0 {
			ttl = defaultTurnTTL
		}

		switch a.cfg.Memory.Backend {
		case config.BackendRedis:
			store, err := redis.New(ctx, a.cfg.Memory.RedisURL, maxTurns, ttl)
			if err != nil {
				return err
			}
			a.store = store
			a.closers = append(a.closers, store.Close)

		case config.BackendPostgres:
			store, err := postgres.New(ctx, a.cfg.Memory.PostgresDSN, maxTurns, ttl)
			if err != nil {
				return err
			}
			a.store = store
			a.closers = append(a.closers, func() error {
				store.Close()
				return nil
			})

		default:
			a.store = inmem.New(maxTurns, ttl)
		}
	}

	a.guard = session.NewStoreGuard(a.store)
	slog.Info("turn store ready", "backend", a.cfg.Memory.Backend)
	return nil
}

// initEscalator builds the LLM escalation client.
func (a *App) initEscalator() error {
	if a.escalator != nil {
		return nil
	}
	if a.providers == nil || a.providers.LLM == nil {
		return fmt.Errorf("an LLM provider is required when no escalator is injected")
	}

	var opts []escalate.Option
	if d := a.cfg.LLM.Timeout.Std(); d > 0 {
		opts = append(opts, escalate.WithTimeout(d))
	}
	if n := a.cfg.LLM.MaxTokens; n > 0 {
		opts = append(opts, escalate.WithMaxTokens(n))
	}
	if t := a.cfg.LLM.Temperature; t > 0 {
		opts = append(opts, escalate.WithTemperature(t))
	}
	a.escalator = escalate.New(a.providers.LLM, opts...)
	return nil
}

// initRouter assembles the two-tier routing pipeline.
func (a *App) initRouter() {
	var opts []router.Option
	if t := a.cfg.Router.RuleThreshold; t > 0 {
		opts = append(opts, router.WithThreshold(t))
	}
	if say := a.cfg.Router.Apology; say != "" {
		opts = append(opts, router.WithApology(say))
	}
	a.router = router.New(rules.NewEngine(), a.escalator, a.guard, opts...)
}

// initServer builds the HTTP handler tree.
func (a *App) initServer() {
	// Injected escalators may not expose their model name.
	model := func() string { return "unknown" }
	if c, ok := a.escalator.(interface{ Model() string }); ok {
		model = c.Model
	}

	checks := health.New(
		health.StoreChecker(a.guard),
		health.ProviderChecker(model),
	)

	srv := server.New(a.router, a.guard,
		server.WithAPIKey(a.cfg.Server.APIKey),
		server.WithHealth(checks),
		server.WithScrapeHandler(promhttp.Handler()),
	)

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler exposes the HTTP handler tree, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpSrv.Handler
}

// Run serves the assistant API and blocks until ctx is cancelled or the
// listener fails. On cancellation the server drains in-flight requests for up
// to shutdownGrace before returning.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.httpSrv.Addr, "tls", a.cfg.Server.TLS != nil)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.httpSrv.Shutdown(drainCtx); err != nil {
			slog.Warn("http drain error", "err", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
