package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/config"
	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/events"
	"github.com/gosuda/taskboard/internal/server"
	"github.com/gosuda/taskboard/internal/store/file"
	"github.com/gosuda/taskboard/internal/store/postgres"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
	"github.com/gosuda/taskboard/internal/store/sqlite"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Single-user task board server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("taskboard failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live feed (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token signed with TASKBOARD_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return errors.New("token: TASKBOARD_JWT_SECRET is not set")
			}

			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = cfg.JWT.TTL
			}

			tok, err := auth.IssueToken(cfg.JWT.Secret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringP("subject", "s", "operator", "Token subject")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (default TASKBOARD_JWT_TTL)")

	return cmd
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	repo, closeRepo, err := openRepository(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeRepo()

	// Redis fans events out across processes; otherwise stay in-process.
	var broker events.Broker
	if rdb != nil {
		broker = redisstore.NewPubSub(rdb)
	} else {
		local := events.NewLocal()
		defer local.Close()
		broker = local
	}

	engine := board.New(repo, cfg.Board.Columns,
		board.WithBroker(broker, events.BoardChannel(cfg.Board.Name)),
		board.WithSaveTimeout(cfg.Storage.SaveTimeout),
	)
	defer engine.Close()

	b := engine.Initialize(ctx)
	log.Info().
		Str("board", cfg.Board.Name).
		Str("storage", cfg.Storage.Backend).
		Int("columns", len(b.Columns)).
		Int("tasks", b.TaskCount()).
		Bool("auth", cfg.AuthEnabled()).
		Msg("board ready")

	srv := server.New(ctx, cfg, engine, broker)

	// Start server in background goroutine.
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or listener failure.
	select {
	case <-ctx.Done():
	case startErr := <-errCh:
		if startErr != nil {
			return startErr
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// openRepository builds the configured storage gateway and its closer.
func openRepository(ctx context.Context, cfg *config.Config, rdb *redis.Client) (domain.BoardRepository, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		s, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.Board.Name)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.StoragePostgres:
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		s, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), cfg.Board.Name) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, err
		}
		return s.Boards(), s.Close, nil

	case config.StorageRedis:
		return redisstore.NewBoardStore(rdb, cfg.Board.Name), func() {}, nil

	default:
		return file.New(cfg.Storage.FilePath), func() {}, nil
	}
}
