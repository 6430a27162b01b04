package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/tap-woocommerce/pkg/client"
	"github.com/Sternrassler/tap-woocommerce/pkg/config"
	"github.com/Sternrassler/tap-woocommerce/pkg/logging"
	"github.com/Sternrassler/tap-woocommerce/pkg/metrics"
	"github.com/Sternrassler/tap-woocommerce/pkg/ratelimit"
	"github.com/Sternrassler/tap-woocommerce/pkg/singer"
	"github.com/Sternrassler/tap-woocommerce/pkg/state"
	"github.com/Sternrassler/tap-woocommerce/pkg/tap"
)

var version = "1.0.0"

// runOptions are the command line inputs of one invocation.
type runOptions struct {
	ConfigFile  string
	StateFile   string
	CatalogFile string
	Discover    bool
	MetricsAddr string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts runOptions

	root := &cobra.Command{
		Use:   "tap-woocommerce",
		Short: "Singer tap extracting WooCommerce REST API data",
		Long: `tap-woocommerce extracts orders, products, coupons, customers, subscriptions,
store settings, product variations, order notes and order refunds from a WooCommerce
store and writes Singer SCHEMA, RECORD and STATE messages to stdout.

Example:
  tap-woocommerce --config config.json --discover > catalog.json
  tap-woocommerce --config config.json --catalog catalog.json --state state.json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, stdout)
		},
	}

	root.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the tap configuration JSON file")
	root.Flags().StringVarP(&opts.StateFile, "state", "s", "", "Path to the state JSON file (read at start, rewritten after each stream)")
	root.Flags().StringVar(&opts.CatalogFile, "catalog", "", "Path to a catalog JSON file selecting streams")
	root.Flags().BoolVarP(&opts.Discover, "discover", "d", false, "Write the catalog to stdout and exit")
	root.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tap-woocommerce v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	return root
}

// run executes discovery or a sync. Output still buffered when it returns is
// flushed, and a failed flush is part of the returned error.
func run(ctx context.Context, opts runOptions, stdout io.Writer) (err error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("main")

	writer := singer.NewWriter(stdout)
	defer func() {
		if flushErr := writer.Flush(); flushErr != nil {
			logger.Error().Err(flushErr).Msg("Failed to flush output")
			err = errors.Join(err, fmt.Errorf("flush output: %w", flushErr))
		}
	}()

	if opts.Discover {
		t, err := tap.New(tap.Options{Writer: writer})
		if err != nil {
			return err
		}
		return t.Discover()
	}

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	logger.Debug().Interface("config", cfg.Redacted()).Msg("Configuration loaded")

	metricsAddr := opts.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if metricsAddr != "" {
		srv := startMetricsServer(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Metrics server shutdown failed")
			}
		}()
	}

	var redisClient *redis.Client
	if cfg.StateBackend == config.StateBackendRedis {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
	}

	store, err := newStore(ctx, cfg, opts.StateFile, redisClient)
	if err != nil {
		return err
	}

	clientCfg := client.DefaultConfig(cfg.SiteURL, cfg.ConsumerKey, cfg.ConsumerSecret)
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Timeout = cfg.Timeout
	clientCfg.QueryStringAuth = cfg.QueryStringAuth
	clientCfg.RateLimit = cfg.RateLimit
	clientCfg.Retry = client.RetryPolicy(cfg.MaxAttempts)
	if redisClient != nil {
		clientCfg.Tracker = ratelimit.NewTracker(redisClient, redisPrefix(cfg.SiteURL), logging.NewLogger("ratelimit"))
	}
	wooClient, err := client.New(clientCfg)
	if err != nil {
		return err
	}
	defer wooClient.Close()

	var selection map[string]bool
	if opts.CatalogFile != "" {
		cat, err := singer.ReadCatalog(opts.CatalogFile)
		if err != nil {
			return err
		}
		selection = tap.SelectionFromCatalog(cat)
	}

	startDate, err := cfg.StartTime()
	if err != nil {
		return err
	}

	t, err := tap.New(tap.Options{
		Fetcher:   wooClient,
		Selection: selection,
		Store:     store,
		Writer:    writer,
		StartDate: startDate,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("site", cfg.SiteURL).Msg("Sync started")
	if err := t.Sync(ctx); err != nil {
		logger.Error().Err(err).Msg("Sync finished with errors")
		return err
	}
	logger.Info().Msg("Sync complete")
	return nil
}

// newStore picks the state backend: Redis when configured, the state file
// when given, memory otherwise. A state file seeds the Redis store on first use.
func newStore(ctx context.Context, cfg *config.Config, stateFile string, redisClient *redis.Client) (state.Store, error) {
	if redisClient == nil {
		if stateFile == "" {
			return state.NewMemoryStore(nil), nil
		}
		return state.NewFileStore(stateFile), nil
	}

	store := state.NewRedisStore(redisClient, state.Key{Site: cfg.SiteURL}, 0)
	if stateFile == "" {
		return store, nil
	}

	current, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(current.Bookmarks) > 0 {
		return store, nil
	}
	seed, err := state.NewFileStore(stateFile).Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, seed); err != nil {
		return nil, err
	}
	log.Info().Str("state_file", stateFile).Str("key", store.Key()).Msg("Seeded Redis state from file")
	return store, nil
}

// redisPrefix namespaces shared keys per store host.
func redisPrefix(siteURL string) string {
	host := siteURL
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return state.KeyPrefix + ":" + host
}

func startMetricsServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: metrics.NewServeMux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
