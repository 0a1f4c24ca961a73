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

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/taskboard/tasktracker/internal/api"
	"github.com/taskboard/tasktracker/internal/api/handler"
	"github.com/taskboard/tasktracker/internal/api/metrics"
	"github.com/taskboard/tasktracker/internal/core/auth"
	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
	"github.com/taskboard/tasktracker/internal/core/service"
	"github.com/taskboard/tasktracker/internal/infrastructure/db/mongo"
	"github.com/taskboard/tasktracker/internal/infrastructure/db/postgres"
	"github.com/taskboard/tasktracker/internal/infrastructure/db/redis"
	"github.com/taskboard/tasktracker/internal/infrastructure/queue"
	"github.com/taskboard/tasktracker/internal/pkg/config"
	"github.com/taskboard/tasktracker/internal/pkg/telemetry"
	"github.com/taskboard/tasktracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: cfg.Tracing.ServiceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}
	defer flush(log, "tracing", shutdownTracing)

	// --- Postgres (required) ---
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Postgres.URL,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Postgres.MigrateOnStartup {
		if err := postgres.Migrate(db, log); err != nil {
			return err
		}
	}

	readiness := map[string]handler.Check{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	// --- Audit trail (optional) ---
	var audit ports.AuditSink = ports.NopAuditSink{}
	if cfg.Mongo.URI != "" {
		client, mdb, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer disconnectMongo(log, client)

		repo := mongo.NewAuditRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit index creation failed")
		}

		dispatcher := queue.NewDispatcher(cfg.Audit.Workers, repo, log)
		dispatcher.OnDrop(metrics.AuditEventsDroppedTotal.Inc)
		dispatcher.Start()
		defer flush(log, "audit dispatcher", dispatcher.Close)

		audit = dispatcher
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit trail enabled")
	}

	// --- Idempotency store (optional) ---
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(log, rdb)

		idem = redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency store enabled")
	}

	// --- Core ---
	users := postgres.NewUserRepository(db)
	tasks := postgres.NewTaskRepository(db)

	authn, tokens, err := buildAuth(cfg.Auth, users, log)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Log:             log,
		Authenticator:   authn,
		Users:           service.NewUserService(users, tokens, cfg.Auth.TokenTTL(), log),
		Tasks:           service.NewTaskService(tasks, users, audit, idem, log),
		Readiness:       readiness,
		AllowAllOrigins: cfg.Debug,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("auth_mode", cfg.Auth.Mode).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildAuth selects the authenticator for the configured mode. The token
// service is always built so login keeps working in debug mode.
func buildAuth(cfg config.AuthConfig, users *postgres.UserRepository, log zerolog.Logger) (ports.Authenticator, *auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.Mode == config.AuthModeDebug {
		secret = "debug-only-secret"
	}
	tokens, err := auth.NewTokenService(secret, cfg.JWTAlgorithm)
	if err != nil {
		return nil, nil, err
	}

	debugIdentity := auth.DefaultDebugIdentity
	if cfg.DebugUserID != "" {
		debugIdentity.ID = cfg.DebugUserID
	}
	if cfg.DebugUsername != "" {
		debugIdentity.Username = cfg.DebugUsername
	}
	if cfg.DebugUserRole != "" {
		role, err := domain.ParseRole(cfg.DebugUserRole)
		if err != nil {
			return nil, nil, fmt.Errorf("DEBUG_USER_ROLE: %w", err)
		}
		debugIdentity.Role = role
	}

	authn, err := auth.NewAuthenticator(cfg.Mode, tokens, users, debugIdentity, log)
	if err != nil {
		return nil, nil, err
	}
	return authn, tokens, nil
}

func flush(log zerolog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Str("component", name).Msg("shutdown failed")
	}
}

func disconnectMongo(log zerolog.Logger, client *mongodriver.Client) {
	flush(log, "mongodb", client.Disconnect)
}

func closeRedis(log zerolog.Logger, rdb *goredis.Client) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Str("component", "redis").Msg("shutdown failed")
	}
}
