package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/turforacle/internal/adapters/blobstore"
	"github.com/okian/turforacle/internal/adapters/http/api"
	"github.com/okian/turforacle/internal/adapters/http/swagger"
	"github.com/okian/turforacle/internal/adapters/ledger"
	app "github.com/okian/turforacle/internal/app"
	"github.com/okian/turforacle/internal/config"
	"github.com/okian/turforacle/internal/domain/dedupe"
	"github.com/okian/turforacle/internal/domain/purse"
	"github.com/okian/turforacle/internal/domain/valuation"
	"github.com/okian/turforacle/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	redisPingTimeout  = 5 * time.Second
)

func main() {
	// Initialize logging with defaults; reconfigured once the config is loaded.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "oracle stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is canceled, then drains the pipeline.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	oracle, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer oracle.close(ctx)

	if err := oracle.svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           oracle.mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var failed error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			failed = fmt.Errorf("http server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := oracle.svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "pipeline drain failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return failed
}

// oracle is the wired process: service, routes and the resources to release.
type oracle struct {
	svc     *app.Service
	mux     *http.ServeMux
	closers []func() error
	log     logger.Logger
}

func (o *oracle) close(ctx context.Context) {
	for _, c := range o.closers {
		if err := c(); err != nil {
			o.log.Warn(ctx, "failed to release resource", logger.Error(err))
		}
	}
}

// build wires the oracle from cfg without starting it.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*oracle, error) {
	o := &oracle{log: log}
	opts := []app.Option{
		app.WithLogger(log.Named("oracle")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithXFactorDepth(cfg.XFactorMaxDepth),
		app.WithPredictionAgent(cfg.PredictionAgent),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		o.closers = append(o.closers, client.Close)
		opts = append(opts, app.WithDeduper(dedupe.NewRedisDeduper(client, dedupe.WithTTL(cfg.DedupeTTL))))
		log.Info(ctx, "using redis replay guard", logger.String("addr", cfg.RedisAddr))
	}

	var predictions ledger.Ledger
	if cfg.LedgerPath != "" {
		l, err := ledger.NewFileLedger(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open prediction ledger: %w", err)
		}
		predictions = l
		opts = append(opts, app.WithLedger(l))
	}

	blobs, err := blobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if blobs != nil {
		opts = append(opts, app.WithBlobStore(blobs))
	}

	opts = append(opts, app.WithValuer(valuation.NewFormValuer(valuation.WithLatencyRange(
		time.Duration(cfg.ValuationLatencyMinMS)*time.Millisecond,
		time.Duration(cfg.ValuationLatencyMaxMS)*time.Millisecond,
	))))

	fee, err := cfg.JockeyFee()
	if err != nil {
		return nil, fmt.Errorf("invalid flat jockey fee: %w", err)
	}

	o.svc = app.New(opts...)

	apiOpts := []api.Option{
		api.WithDistributor(purse.NewDistributor(purse.WithFlatJockeyFee(fee))),
		api.WithMaxTopLimit(cfg.MaxTopLimit),
		api.WithMaxXFactorDepth(cfg.XFactorMaxDepth),
		api.WithLogger(log.Named("api")),
	}
	if predictions != nil {
		apiOpts = append(apiOpts, api.WithLedger(predictions))
	}

	o.mux = http.NewServeMux()
	swagger.Register(ctx, o.mux)
	api.NewServer(o.svc, apiOpts...).Register(ctx, o.mux)
	return o, nil
}

// blobStore picks S3 when a bucket is configured, else a local directory,
// else none.
func blobStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch {
	case cfg.S3Bucket != "":
		s, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3 blob store: %w", err)
		}
		return s, nil
	case cfg.BlobDir != "":
		s, err := blobstore.NewLocalStore(cfg.BlobDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob directory: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}
