package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/broker"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/myrjola/whodunit/internal/pprofserver"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/scenarios"
	"github.com/myrjola/whodunit/internal/sqlite"
	"github.com/myrjola/whodunit/internal/sse"
	"golang.org/x/sync/errgroup"
)

const (
	sessionStoreSQLite = "sqlite"
	sessionStoreMemory = "memory"
)

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"WHODUNIT_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the pprof server on a loopback address when set.
	PprofAddr string `env:"WHODUNIT_PPROF_ADDR" envDefault:""`
	// SqliteURL is the path to the SQLite database file or ":memory:". It is only opened by the sqlite session store.
	SqliteURL string `env:"WHODUNIT_SQLITE_URL" envDefault:"./whodunit.sqlite3"`
	// SessionStore keeps the games and cookie sessions in SQLite with "sqlite" or in process memory with "memory".
	SessionStore string `env:"WHODUNIT_SESSION_STORE" envDefault:"sqlite"`
	// ScenarioDir holds scenario documents that are served in addition to the embedded ones.
	ScenarioDir string `env:"WHODUNIT_SCENARIO_DIR" envDefault:""`
	// StreamTimeout bounds the lifetime of a streamed reply, including the wait for its consumer.
	StreamTimeout time.Duration `env:"WHODUNIT_STREAM_TIMEOUT" envDefault:"2m"`
	// RequestTimeout bounds the non-streaming requests. Synchronous chat waits for the language model.
	RequestTimeout time.Duration `env:"WHODUNIT_REQUEST_TIMEOUT" envDefault:"60s"`
	AI             ai.Config
}

type application struct {
	logger         *slog.Logger
	games          *mystery.Service
	scenarios      *scenarios.Provider
	sessionManager *scs.SessionManager
	streams        *broker.ChannelBroker[string, sse.Event]
	cancels        *streamCancels
	// baseCtx outlives the requests. Streams are produced on it so that they survive the POST that started them.
	baseCtx        context.Context
	streamTimeout  time.Duration
	requestTimeout time.Duration
}

func run(ctx context.Context, logger *slog.Logger, environ map[string]string) error {
	var cfg config
	if err := envstruct.Populate(&cfg, environ); err != nil {
		return errors.Wrap(err, "populate config")
	}

	provider, err := scenarios.NewProvider(cfg.ScenarioDir, logger)
	if err != nil {
		return errors.Wrap(err, "new scenario provider")
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = 12 * time.Hour //nolint:mnd // half a day is enough to finish a game.
	var sessions repositories.SessionRepository
	switch cfg.SessionStore {
	case sessionStoreSQLite:
		var db *sqlite.Database
		if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
			return errors.Wrap(err, "new database", slog.String("sqlite_url", cfg.SqliteURL))
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
			}
		}()
		store := sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, time.Hour)
		defer store.StopCleanup()
		sessionManager.Store = store
		sessions = repositories.NewSQLiteSessionRepository(db, logger)
	case sessionStoreMemory:
		sessions = repositories.NewInMemorySessionRepository()
	default:
		return errors.Wrap(envstruct.ErrInvalidValue, "unknown session store",
			slog.String("session_store", cfg.SessionStore))
	}

	var aiClient ai.Client
	if aiClient, err = ai.NewClient(ctx, cfg.AI, logger); err != nil {
		return errors.Wrap(err, "new text generation client")
	}
	defer func() {
		if closeErr := aiClient.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close text generation client", errors.SlogError(closeErr))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	app := application{
		logger:         logger,
		games:          mystery.NewService(provider, sessions, aiClient, logger),
		scenarios:      provider,
		sessionManager: sessionManager,
		streams:        broker.NewChannelBroker[string, sse.Event](),
		cancels:        newStreamCancels(),
		baseCtx:        gctx,
		streamTimeout:  cfg.StreamTimeout,
		requestTimeout: cfg.RequestTimeout,
	}

	g.Go(func() error {
		app.streams.Start(gctx)
		return nil
	})
	if cfg.PprofAddr != "" {
		g.Go(func() error {
			return pprofserver.ListenAndServe(gctx, cfg.PprofAddr, logger)
		})
	}
	g.Go(func() error {
		return app.configureAndStartServer(gctx, cfg.Addr)
	})

	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "run application")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env file", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, envstruct.Environ()); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
