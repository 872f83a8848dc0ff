package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/http/api"
	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	app "github.com/okian/tenderdesk/internal/app"
	"github.com/okian/tenderdesk/internal/config"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/okian/tenderdesk/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	files, err := openFileSink(ctx, cfg)
	if err != nil {
		return err
	}
	mailer, err := openMailer(cfg, log)
	if err != nil {
		return err
	}

	svc, err := newService(cfg, store, files, mailer, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := newHTTPServer(cfg, mux)

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	// Queued emails are drained after the listener stops accepting new ones.
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore selects the record store and returns a release function.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := repository.Migrate(cfg.MigrationsURL, cfg.PostgresDSN); err != nil {
				return nil, nil, err
			}
			log.Info(ctx, "database migrations applied", logger.String("source", cfg.MigrationsURL))
		}
		pg, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info(ctx, "using postgres store")
		return repository.Instrumented(pg), pg.Close, nil
	default:
		mem := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			var err error
			if mem, err = repository.LoadSeed(cfg.SeedFile); err != nil {
				return nil, nil, err
			}
		}
		log.Info(ctx, "using memory store", logger.String("seed", cfg.SeedFile))
		return repository.Instrumented(mem), func() {}, nil
	}
}

// openFileSink returns nil when exports are disabled.
func openFileSink(ctx context.Context, cfg *config.Config) (sink.FileSink, error) {
	switch cfg.FileSink {
	case config.FileSinkLocal:
		return sink.NewLocalDirSink(cfg.ExportDir)
	case config.FileSinkMinio:
		ms, err := sink.NewMinioSink(sink.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			Prefix:        cfg.MinioPrefix,
			UseSSL:        cfg.MinioUseSSL,
			PresignExpiry: cfg.MinioPresignExpiry,
		})
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return ms, nil
	default:
		return nil, nil
	}
}

// openMailer falls back to logging messages when no SMTP host is set.
func openMailer(cfg *config.Config, log logger.Logger) (sink.Mailer, error) {
	if cfg.SMTPHost == "" {
		return sink.NewLogMailer(log), nil
	}
	return sink.NewSMTPMailer(sink.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.SMTPTimeout,
	})
}

func newService(cfg *config.Config, store repository.Store, files sink.FileSink, mailer sink.Mailer, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithFileSink(files),
		app.WithMailer(mailer),
		app.WithExcludedAccounts(cfg.ExcludedAccounts...),
		app.WithPublicBaseURL(cfg.PublicBaseURL),
		app.WithLocation(loc),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDeliveryTimeout(cfg.DeliveryTimeout),
	), nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the queue and worker gauges.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
