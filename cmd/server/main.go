// Command server runs the interaction service: the human-facing login and
// consent surface in front of the authorization engine.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"parley/internal/audit"
	"parley/internal/engine"
	"parley/internal/engine/redisstore"
	"parley/internal/grant"
	"parley/internal/identity"
	identitystore "parley/internal/identity/store"
	"parley/internal/interaction"
	"parley/internal/interaction/handler"
	"parley/internal/platform/config"
	"parley/internal/platform/httpserver"
	"parley/internal/platform/logger"
	"parley/internal/platform/metrics"
	platformredis "parley/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Identity store: postgres when configured, in-memory otherwise.
	var userStore identitystore.UserStore
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		userStore = identitystore.NewPostgres(db)
		log.Info("identity store: postgres")
	} else {
		mem := identitystore.NewInMemory()
		mem.Seed(&identitystore.UserRecord{
			SubjectID: "dev-user",
			Email:     "dev@example.com",
			FirstName: "Dev",
			LastName:  "User",
		})
		userStore = mem
		log.Info("identity store: in-memory")
	}

	// Engine stores: redis when configured, in-memory otherwise. The
	// interaction state machine itself is always local; only grants and
	// codes are shared across instances.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}

	eng := engine.NewInMemoryEngine()
	var grantStore engine.GrantStore
	var codeStore engine.CodeStore
	if redisClient != nil {
		defer redisClient.Close()
		grantStore = redisstore.NewGrantStore(redisClient.Client)
		codeStore = redisstore.NewCodeStore(redisClient.Client)
		log.Info("engine stores: redis")
	} else {
		grantStore = engine.NewInMemoryGrantStore()
		codeStore = engine.NewInMemoryCodeStore()
		log.Info("engine stores: in-memory")
	}

	clients := engine.NewStaticClientRegistry(map[string][]string{
		cfg.DirectCode.ClientID: cfg.DirectCode.RedirectURIs,
	})

	auditor := audit.NewPublisher(audit.NewInMemoryStore(), audit.WithAsyncBuffer(cfg.Audit.Buffer))
	defer auditor.Close()

	m := metrics.New()
	resolver := identity.NewResolver(userStore, identity.NewCache(), log)
	service := interaction.NewService(
		eng,
		codeStore,
		clients,
		resolver,
		grant.NewAccumulator(grantStore),
		cfg.DirectCode,
		auditor,
		m,
		log,
	)

	router := chi.NewRouter()
	handler.New(service, handler.NewJSONRenderer(), log, m, cfg.HTTP.RequestTimeout).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.HTTP.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
