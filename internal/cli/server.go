package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/amqp"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	rediscache "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/logger"
	"live-quiz-service/internal/metrics"
	transport "live-quiz-service/internal/transport/http"
)

const hubBuffer = 64

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func resolvePort(flag string, cfg config.Config) string {
	for _, p := range []string{flag, os.Getenv("PORT"), cfg.Server.Port} {
		if p != "" {
			return p
		}
	}
	return "8080"
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	var catalog app.Catalog = memory.SampleCatalog()
	var archive app.Archive = memory.NewArchive()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		catalog = postgres.NewCatalog(pool)
		archive = postgres.NewArchive(pool)
	} else {
		log.Warn().Msg("postgres url not set, serving sample catalog with in-memory archive")
	}

	if cfg.AMQP.URL != "" {
		pub, err := amqp.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn().Err(err).Msg("close amqp publisher")
			}
		}()
		archive = amqp.NewAnnouncingArchive(archive, pub, log)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var sessions app.SessionRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		catalog = rediscache.NewCatalog(client, catalog, quizTTL)
		sessions = rediscache.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour),
			memory.WithCodeLength(cfg.Quiz.CodeLength))
	} else {
		catalog = memory.NewCachedCatalog(catalog, quizTTL)
		sessions = memory.NewSessionStore(memory.WithCodeLength(cfg.Quiz.CodeLength))
	}

	recorder := metrics.New()
	hub := transport.NewHub(hubBuffer, log)
	persistTimeout := config.TTLDuration(cfg.Quiz.PersistTimeout, 10*time.Second)
	ctrl := app.NewController(sessions, catalog, archive, hub, app.Options{
		PointsCorrect:  cfg.Quiz.PointsCorrect,
		DefaultSeconds: cfg.Quiz.DefaultSeconds,
		CatalogTimeout: config.TTLDuration(cfg.Quiz.CatalogTimeout, 3*time.Second),
		PersistTimeout: persistTimeout,
		Logger:         log,
		Observer:       recorder,
	})
	ws := transport.NewWSHandler(ctrl, hub, cfg.Server.AllowedOrigins, log)

	addr := ":" + resolvePort(portFlag, cfg)
	server := &http.Server{
		Addr:              addr,
		Handler:           transport.NewRouter(ws, recorder.Handler()),
		ReadHeaderTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("starting live quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		return shutdown(server, ctrl, persistTimeout, log)
	})
	return g.Wait()
}

func shutdown(server *http.Server, ctrl *app.Controller, persistTimeout time.Duration, log zerolog.Logger) error {
	httpCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(httpCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	persistCtx, cancelPersist := context.WithTimeout(context.Background(), persistTimeout)
	defer cancelPersist()
	return ctrl.Shutdown(persistCtx)
}
