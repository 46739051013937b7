package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/config-console/internal/actuator"
	"github.com/eugenenazirov/config-console/internal/api"
	"github.com/eugenenazirov/config-console/internal/config"
	"github.com/eugenenazirov/config-console/internal/console"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	client    *actuator.Client
	component *console.Component
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// NewClient builds the management endpoint client described by cfg.
func NewClient(cfg config.Config, logger *zap.Logger) (*actuator.Client, error) {
	opts := []actuator.ClientOption{
		actuator.WithPaths(cfg.BeansPath, cfg.EnvPath),
		actuator.WithTimeout(cfg.RequestTimeout),
		actuator.WithRetry(uint(cfg.RetryAttempts), cfg.RetryDelay),
		actuator.WithLogger(logger.Named("actuator")),
	}
	if cfg.ManagementToken != "" {
		opts = append(opts, actuator.WithBearerToken(cfg.ManagementToken))
	}
	client, err := actuator.NewClient(cfg.ManagementURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create management client: %w", err)
	}
	return client, nil
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	client, err := NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	comp := console.New(client, logger.Named("console"))
	handler := api.NewHandler(comp)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		client:    client,
		component: comp,
		handler:   handler,
		router:    apiRouter,
		logger:    logger,
		server:    NewServer(cfg, BuildRootHandler(apiRouter, configurationPage(comp, logger))),
	}, nil
}

// BuildRootHandler routes API requests to apiHandler and everything else to page.
func BuildRootHandler(apiHandler, page http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", page)
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start triggers the initial configuration load and starts the HTTP server in
// a goroutine. The load runs in the background; the page shows whatever has
// arrived so far.
func (a *App) Start(ctx context.Context) error {
	a.component.OnInit(ctx)

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Component returns the configuration view.
func (a *App) Component() *console.Component {
	return a.component
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
