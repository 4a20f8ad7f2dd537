// Command console runs the print proxy operator console.
//
// @title        Print Proxy Console API
// @version      1.0
// @description  Operator console for the print proxy service.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/printproxy/console/internal/api"
	"github.com/printproxy/console/internal/api/handler"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
	"github.com/printproxy/console/internal/core/service"
	mongodb "github.com/printproxy/console/internal/infrastructure/db/mongo"
	redisdb "github.com/printproxy/console/internal/infrastructure/db/redis"
	"github.com/printproxy/console/internal/infrastructure/queue"
	"github.com/printproxy/console/internal/infrastructure/session"
	"github.com/printproxy/console/internal/pkg/config"
	"github.com/printproxy/console/internal/retry"
	"github.com/printproxy/console/internal/upstream"
	"github.com/printproxy/console/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	flags := pflag.NewFlagSet("console", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", os.Getenv(config.EnvConfigFile), "path to a YAML config file")
	addr := flags.String("addr", "", "listen address, overrides PORT (e.g. :8080)")
	upstreamURL := flags.String("upstream", "", "print proxy backend base URL, overrides UPSTREAM_URL")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
	if *upstreamURL != "" {
		cfg.Upstream.BaseURL = *upstreamURL
	}
	listen := *addr
	if listen == "" {
		listen = net.JoinHostPort("", cfg.Port)
	}

	log := logger.Init(logger.OptionsFor(cfg.Env, cfg.LogLevel))
	if err := run(cfg, listen, log); err != nil {
		log.Fatal().Err(err).Msg("console stopped")
	}
}

func run(cfg *config.Config, listen string, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Session scopes ---
	var rdb *goredis.Client
	var persistent ports.SessionStore
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		persistent = redisdb.NewSessionStore(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, remembered sessions will not survive a restart")
	}
	ephemeral := session.NewMemoryStore()
	go sweepSessions(ctx, ephemeral, cfg.Session.SweepEvery, logger.Component("session"))
	sessions := session.NewPersistence(persistent, ephemeral, cfg.Session.RememberTTL, cfg.Session.EphemeralTTL, logger.Component("session"))

	// --- Audit journal ---
	var (
		db         *gomongo.Database
		auditRepo  ports.AuditRepository
		recorder   ports.AuditRecorder
		dispatcher *queue.Dispatcher
	)
	if cfg.Mongo.URI != "" {
		mclient, database, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = mclient.Disconnect(dctx)
		}()
		db = database
		repo := mongodb.NewAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit indexes not created")
		}
		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, logger.Component("audit"))
		dispatcher.Start()
		auditRepo, recorder = repo, dispatcher
	} else {
		log.Warn().Msg("MONGO_URI not set, audit journal disabled")
	}

	// --- Upstream client and per-session state ---
	var auth *service.AuthService
	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout,
		upstream.WithLogger(logger.Component("upstream")),
		upstream.WithUnauthorizedHandler(func(ctx context.Context) {
			s := domain.SessionFrom(ctx)
			if s == nil {
				return
			}
			// The 401 may come from the session's own log poller, which the
			// logout waits for; run it outside the caller.
			go func() {
				if err := auth.Logout(context.Background(), s.ID); err != nil {
					log.Warn().Err(err).Str("session_id", s.ID).Msg("logout after 401 failed")
				}
			}()
		}),
		upstream.WithErrorHandler(func(ctx context.Context, req upstream.Request, err *domain.Error) {
			if recorder != nil {
				recorder.Record(upstreamAuditEntry(ctx, req, err))
			}
		}),
	)

	reader := service.NewReader(retry.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Backoff:     retry.Backoff(cfg.Retry.Backoff),
	}, logger.Component("store"))
	workspaces := service.NewWorkspaces(service.APIs{
		Printers: upstream.NewPrinterAPI(client),
		Jobs:     upstream.NewJobAPI(client),
		Logs:     upstream.NewLogAPI(client),
	}, reader, service.LogStoreConfig{
		Capacity:     cfg.LogStream.Capacity,
		PollInterval: cfg.LogStream.PollInterval,
	}, logger.Component("workspace"))
	auth = service.NewAuthService(upstream.NewAuthAPI(client), sessions, workspaces, cfg.SessionSecret, logger.Component("auth"))

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:        logger.Component("http"),
		Auth:       auth,
		Workspaces: workspaces,
		Cookies:    handler.CookieConfig{Secure: cfg.Session.SecureCookie, RememberTTL: cfg.Session.RememberTTL},
		Audit:      recorder,
		AuditLog:   auditRepo,
		Mongo:      db,
		Redis:      rdb,
		Upstream:   client,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", listen).Str("upstream", client.BaseURL()).Str("env", cfg.Env).Msg("console listening")
		if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	client.CancelAll()
	workspaces.Close()
	if dispatcher != nil {
		if err := dispatcher.Close(sctx); err != nil {
			log.Warn().Err(err).Msg("audit drain incomplete")
		}
	}
	return nil
}

func sweepSessions(ctx context.Context, m *session.MemoryStore, every time.Duration, log zerolog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("expired", n).Int("remaining", m.Len()).Msg("swept sessions")
			}
		}
	}
}

func upstreamAuditEntry(ctx context.Context, req upstream.Request, err *domain.Error) domain.AuditEntry {
	entry := domain.AuditEntry{
		Action:    "upstream " + req.Method + " " + req.Path,
		Method:    req.Method,
		Path:      req.Path,
		Status:    err.Status,
		ErrorKind: err.Kind,
		Message:   err.Error(),
	}
	if s := domain.SessionFrom(ctx); s != nil {
		entry.SessionID = s.ID
		entry.Username = s.User.Username
	}
	return entry
}
