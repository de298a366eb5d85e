// Package main runs the avatar service: the public image, metadata and share API,
// the live render feed, and the render analytics recorder.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"solana-avatar-lab/internal/analytics"
	"solana-avatar-lab/internal/api"
	"solana-avatar-lab/internal/assets"
	"solana-avatar-lab/internal/balance"
	"solana-avatar-lab/internal/config"
	"solana-avatar-lab/internal/feed"
	"solana-avatar-lab/internal/logger"
	"solana-avatar-lab/internal/metadata"
	"solana-avatar-lab/internal/raster"
	"solana-avatar-lab/internal/render"
	"solana-avatar-lab/internal/solana"
	"solana-avatar-lab/internal/storage"
	chstore "solana-avatar-lab/internal/storage/clickhouse"
	"solana-avatar-lab/internal/storage/memory"
	"solana-avatar-lab/internal/storage/migrations"
	pgstore "solana-avatar-lab/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env-file", ".env", "KEY=VALUE file loaded into the environment if present")
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "TOML config file")
	addr := flag.String("addr", "", "Public API listen address (overrides config)")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	// Load .env file if exists
	config.LoadEnvFile(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *printConfig {
		out, err := cfg.Encode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	log, closer := logger.New(cfg.Log.File, logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	defer closer.Close()
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Error("received second signal, forcing immediate shutdown", "signal", sig.String())
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)
	close(done)
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fail(log, "server error", "error", err)
		closer.Close()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// run wires every component and blocks until ctx is cancelled or a listener fails.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	stores, cleanup, err := createStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	provider, err := createBalanceProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	assetCache := assets.NewCache(cfg.Assets.Dir, log.With("component", "assets"))
	if cfg.Assets.Warm {
		if err := assetCache.Warm(); err != nil {
			return fmt.Errorf("warm assets from %s: %w", cfg.Assets.Dir, err)
		}
		log.Info("assets loaded", "dir", cfg.Assets.Dir, "count", assetCache.Len())
	}

	rasterizer, err := raster.New()
	if err != nil {
		return fmt.Errorf("create rasterizer: %w", err)
	}

	brand := render.Brand{Name: cfg.Brand.Name, FooterURL: cfg.Brand.FooterURL}

	hub := feed.NewHub(feed.DefaultConfig(), log.With("component", "feed"), originAllowed(cfg.Server.CORSOrigins))
	defer hub.Close()

	recorder := analytics.NewRecorder(analytics.RecorderOptions{
		Store:         stores.events,
		Publisher:     hub,
		BufferSize:    cfg.Analytics.BufferSize,
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.FlushInterval(),
		Logger:        log.With("component", "analytics"),
	})

	srv, err := api.New(api.Options{
		Tier:          render.NewTierRenderer(brand, assetCache),
		Classic:       render.NewClassicRenderer(brand, assetCache),
		Blob:          render.NewBlobRenderer(brand, assetCache),
		Rasterizer:    rasterizer,
		RasterDensity: float64(cfg.Render.RasterDensity),
		Balance:       provider,
		AllowOverride: cfg.Balance.AllowOverride,
		ShareLinks:    stores.shareLinks,
		Events:        stores.events,
		Recorder:      recorder,
		Feed:          hub,
		Brand:         brand,
		Metadata: metadata.Options{
			Name:        cfg.Brand.Name,
			Symbol:      cfg.Brand.Symbol,
			Description: cfg.Brand.Description,
			BaseURL:     cfg.Server.BaseURL,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		CacheSize:   cfg.Render.OutputCacheSize,
		Logger:      log.With("component", "api"),
	})
	if err != nil {
		return fmt.Errorf("create api: %w", err)
	}

	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	go recorder.Run(recorderCtx)

	errCh := make(chan error, 2)
	servers := []*http.Server{{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}}
	if cfg.Server.MetricsAddr != "" && cfg.Server.MetricsAddr != cfg.Server.Addr {
		servers = append(servers, &http.Server{
			Addr:         cfg.Server.MetricsAddr,
			Handler:      srv.OpsHandler(),
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
		})
	}
	for _, hs := range servers {
		go func(hs *http.Server) {
			log.Info("starting HTTP server", "addr", hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server %s: %w", hs.Addr, err)
			}
		}(hs)
	}

	log.Info("avatar service started",
		"base_url", cfg.Server.BaseURL,
		"balance_source", provider.Name(),
		"share_links", cfg.Storage.ShareLinks,
		"events", cfg.Storage.Events,
	)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, hs := range servers {
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server shutdown", "addr", hs.Addr, "error", err)
		}
	}

	// Requests are drained; flush the remaining render events.
	stopRecorder()
	select {
	case <-recorder.Done():
	case <-shutdownCtx.Done():
		log.Warn("render events not flushed before shutdown deadline")
	}

	return runErr
}

// allStores holds the storage implementations.
type allStores struct {
	shareLinks storage.ShareLinkStore
	events     storage.RenderEventStore
}

// createStores creates the configured stores and runs migrations for database backends.
func createStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*allStores, func(), error) {
	stores := &allStores{}
	var closers []io.Closer

	cleanup := func() {
		for _, c := range slices.Backward(closers) {
			c.Close()
		}
	}

	switch cfg.Storage.ShareLinks {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, closerFunc(pool.Close))
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if len(applied) > 0 {
			log.Info("postgres migrations applied", "files", applied)
		}
		stores.shareLinks = pgstore.NewShareLinkStore(pool)
		log.Info("share links stored in postgres")
	default:
		stores.shareLinks = memory.NewShareLinkStore()
	}

	switch cfg.Storage.Events {
	case "clickhouse":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, conn)
		stores.events = chstore.NewRenderEventStore(conn)
		log.Info("render events stored in clickhouse")
	default:
		stores.events = memory.NewRenderEventStore()
	}

	return stores, cleanup, nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// createBalanceProvider returns the configured balance source. An unreachable
// RPC endpoint is logged, not fatal: lookups degrade to a zero balance.
func createBalanceProvider(ctx context.Context, cfg *config.Config, log *slog.Logger) (balance.Provider, error) {
	if cfg.Balance.Source != "rpc" {
		return balance.Static{}, nil
	}

	client := solana.NewHTTPClient(cfg.Balance.RPCEndpoint,
		solana.WithCommitment(cfg.Balance.Commitment),
		solana.WithMaxDelay(cfg.RPCRetryMaxDelay()),
	)

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if slot, err := client.GetSlot(probeCtx); err != nil {
		log.Warn("solana rpc unreachable at startup", "endpoint", cfg.Balance.RPCEndpoint, "error", err)
	} else {
		log.Info("solana rpc connected", "endpoint", cfg.Balance.RPCEndpoint, "slot", slot)
	}

	return balance.NewRPCProvider(client, cfg.Balance.Mint, log.With("component", "balance"),
		balance.WithCache(balance.DefaultCacheSize, cfg.BalanceCacheTTL()),
		balance.WithLookupTimeout(cfg.BalanceLookupTimeout()),
	), nil
}

// originAllowed builds the websocket origin check from the CORS origin list.
func originAllowed(origins []string) func(string) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(string) bool { return true }
	}
	return func(origin string) bool {
		return slices.Contains(origins, origin)
	}
}
