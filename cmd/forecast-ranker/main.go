package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/forecast-ranker/internal/adapter/forecast"
	httpadapter "github.com/couchcryptid/forecast-ranker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/forecast-ranker/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-ranker/internal/adapter/storage"
	"github.com/couchcryptid/forecast-ranker/internal/config"
	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/observability"
	"github.com/couchcryptid/forecast-ranker/internal/pipeline"
	"github.com/couchcryptid/forecast-ranker/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "forecast-ranker",
		Short:         "Rank locations by daytime temperature and dry hours",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Fetch, reduce, persist and select favorites once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runOnce(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run on a schedule and serve health, metrics and favorites over HTTP",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "inspect [path]",
			Short: "Rank a previously persisted artifact",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return inspect(cmd.Context(), cmd.OutOrStdout(), args)
			},
		},
	)
	return root
}

// app holds the wired components shared by run and serve.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	pipeline  *pipeline.Pipeline
	closers   []io.Closer
	logCloser io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()

	a := &app{cfg: cfg, logger: logger, logCloser: logCloser}

	source := newSource(cfg, metrics, logger)
	persister, err := newPersister(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	// Left as a nil interface when publishing is disabled.
	var publisher pipeline.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(cfg, logger)
		publisher = w
		a.closers = append(a.closers, w)
		logger.Info("ratings publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	a.pipeline = pipeline.New(source, persister, publisher, logger, metrics, pipeline.Options{
		FetchTimeout:     cfg.FetchTimeout,
		FetchConcurrency: cfg.FetchConcurrency,
		ReduceWorkers:    cfg.ReduceWorkers,
		RequireAll:       cfg.RequireAllLocations,
	})
	return a, nil
}

func newSource(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.ForecastSource {
	var source domain.ForecastSource
	if cfg.ForecastDir != "" {
		source = forecast.NewDirSource(cfg.ForecastDir)
		logger.Info("reading forecasts from directory", "dir", cfg.ForecastDir)
	} else {
		source = forecast.NewClient(forecast.Options{
			BaseURL:        cfg.ForecastBaseURL,
			APIKey:         cfg.ForecastAPIKey,
			AttemptTimeout: cfg.FetchAttemptTimeout,
			Retries:        cfg.FetchRetries,
			Backoff:        cfg.FetchBackoff,
			RateLimit:      cfg.FetchRateLimit,
		}, metrics, logger)
		logger.Info("fetching forecasts over http", "base_url", cfg.ForecastBaseURL)
	}

	if cfg.CacheSize > 0 {
		source = forecast.NewCachedSource(source, cfg.CacheSize, cfg.CacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("forecast cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}
	return source
}

func newPersister(cfg *config.Config, logger *slog.Logger) (pipeline.Persister, error) {
	file := storage.NewFileStore(cfg.ArtifactPath)
	if cfg.ArtifactBucket == "" {
		return file, nil
	}

	obj, err := storage.NewObjectStore(storage.ObjectStoreConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.ArtifactBucket,
		Object:    filepath.Base(cfg.ArtifactPath),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	logger.Info("artifact mirror enabled", "bucket", cfg.ArtifactBucket, "endpoint", cfg.MinioEndpoint)
	return storage.Multi{file, obj}, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
	if a.logCloser != nil {
		a.logCloser.Close() //nolint:errcheck // nothing left to log to
	}
}

func runOnce(parent context.Context, out io.Writer) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.pipeline.Run(ctx, a.cfg.Locations)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		a.logger.Warn("location skipped", "error", f)
	}
	printFavorites(out, res.Favorites)
	return nil
}

func serve(parent context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, a.pipeline, a.logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
			stop()
		}
	}()

	sched := scheduler.New(a.pipeline, a.cfg.Locations, a.cfg.RunInterval, a.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

func inspect(ctx context.Context, out io.Writer, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.ArtifactPath
	}

	collection, err := storage.NewFileStore(path).Load(ctx)
	if err != nil {
		return err
	}

	ranked := domain.Rank(collection)
	printRanking(out, ranked)
	printFavorites(out, domain.SelectFavorites(ranked))
	return nil
}
