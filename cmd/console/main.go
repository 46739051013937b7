package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/config-console/internal/application"
	"github.com/eugenenazirov/config-console/internal/cli"
	"github.com/eugenenazirov/config-console/internal/config"
	"github.com/eugenenazirov/config-console/internal/console"
	"github.com/eugenenazirov/config-console/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("config-console", "Configuration console - shows the beans and property sources of a Spring Boot application")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	managementURL := kingpinApp.Flag("management-url", "Base URL of the management endpoints").String()
	managementToken := kingpinApp.Flag("management-token", "Bearer token sent to the management endpoints").String()
	requestTimeout := kingpinApp.Flag("request-timeout", "Timeout of a single management request").Duration()
	retryAttempts := kingpinApp.Flag("retry-attempts", "Attempts per management request").Default("-1").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	serveCmd := kingpinApp.Command("serve", "Serve the configuration view and API").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	showCmd := kingpinApp.Command("show", "Fetch the configuration once and print it")
	output := showCmd.Flag("output", "Output format (table, json, yaml)").Short('o').Default("table").Enum(cli.SupportedOutputFormats...)
	filter := showCmd.Flag("filter", "Only show beans whose prefix contains this text").String()
	descending := showCmd.Flag("desc", "Sort beans by prefix in descending order").Bool()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:      *configFile,
		Port:            port,
		ManagementURL:   managementURL,
		ManagementToken: managementToken,
		LogLevel:        logLevel,
	}
	if *requestTimeout > 0 {
		overrides.RequestTimeout = requestTimeout
	}
	if *retryAttempts > 0 {
		overrides.RetryAttempts = retryAttempts
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case showCmd.FullCommand():
		if err := show(cfg, logger, os.Stdout, *output, *filter, !*descending); err != nil {
			logger.Error("failed to show configuration", zap.Error(err))
			os.Exit(1)
		}
	default:
		serve(cfg, logger)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(context.Background()); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// show loads beans and property sources once and prints both.
func show(cfg config.Config, logger *zap.Logger, out io.Writer, format, filter string, ascending bool) error {
	client, err := application.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	comp := console.New(client, logger.Named("console"))
	comp.OnInit(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout(cfg))
	defer cancel()
	if err := comp.Wait(ctx); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	beans := comp.Beans()
	if filter != "" || !ascending {
		beans = comp.FilterAndSortBeans(filter, ascending)
	}
	if err := cli.RenderConfiguration(out, format, beans, comp.PropertySources()); err != nil {
		return fmt.Errorf("render configuration: %w", err)
	}
	return nil
}

// loadTimeout bounds a full load: every attempt may time out and is followed by a retry delay.
func loadTimeout(cfg config.Config) time.Duration {
	attempts := time.Duration(cfg.RetryAttempts)
	return attempts*(cfg.RequestTimeout+cfg.RetryDelay) + time.Second
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
