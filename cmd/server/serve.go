package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/auth/basic"
	"github.com/rhuss/coursehub/pkg/auth/jwt"
	"github.com/rhuss/coursehub/pkg/config"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/storage"
	"github.com/rhuss/coursehub/pkg/storage/memory"
	"github.com/rhuss/coursehub/pkg/storage/postgres"
	"github.com/rhuss/coursehub/pkg/transport"
	transporthttp "github.com/rhuss/coursehub/pkg/transport/http"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. The server runs until it receives
SIGINT or SIGTERM and then drains in-flight requests.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps, err := newDeps(cfg, store, slog.Default())
	if err != nil {
		return err
	}

	srv := transporthttp.NewServer(deps, serverOptions(cfg)...)

	slog.Info("coursehub starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"jwt", cfg.Auth.JWT.Enabled(),
		"global_error_logging", cfg.Server.GlobalErrorLogging,
	)
	return srv.Run(ctx)
}

// newStore opens the configured storage backend.
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Storage.Postgres.MaxConns)
		return s, nil
	default:
		slog.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}
}

// newDeps wires the password hasher, authenticator chain, rate limiter and
// fault sink around store.
func newDeps(cfg *config.Config, store storage.Store, logger *slog.Logger) (transporthttp.Deps, error) {
	bcryptHasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return transporthttp.Deps{}, fmt.Errorf("creating password hasher: %w", err)
	}
	hasher := auth.NewPooledHasher(bcryptHasher, cfg.Auth.HashWorkers)

	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{basic.New(store, hasher)},
	}
	if cfg.Auth.JWT.Enabled() {
		chain.Authenticators = append(chain.Authenticators, jwt.New(jwt.Config{
			Issuer:    cfg.Auth.JWT.Issuer,
			Audience:  cfg.Auth.JWT.Audience,
			JWKSURL:   cfg.Auth.JWT.JWKSURL,
			UserClaim: cfg.Auth.JWT.UserClaim,
			CacheTTL:  cfg.Auth.JWT.CacheTTL,
		}, store))
	}

	deps := transporthttp.Deps{
		Store:         store,
		Hasher:        hasher,
		Authenticator: chain,
		Sink:          transport.NewLogSink(logger, cfg.Server.GlobalErrorLogging),
	}
	if rpm := cfg.Auth.RateLimit.RequestsPerMinute; rpm > 0 {
		deps.Limiter = auth.NewInProcessLimiter(rpm)
	}
	return deps, nil
}

func serverOptions(cfg *config.Config) []transporthttp.ServerOption {
	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}
	return []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(slog.Default()),
	}
}

