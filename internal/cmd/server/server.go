// Package server parses server command flags and starts the HTTP service.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/app"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/broadcast"
	entrypoint "github.com/keepgoing-228/tennis-scorekeeper/internal/platform/cmd"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage/memory"
	redisstore "github.com/keepgoing-228/tennis-scorekeeper/internal/storage/redis"
	sqlitestore "github.com/keepgoing-228/tennis-scorekeeper/internal/storage/sqlite"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Config holds server command configuration.
type Config struct {
	Port       int    `env:"TENNIS_SCOREKEEPER_PORT" envDefault:"8080"`
	Addr       string `env:"TENNIS_SCOREKEEPER_ADDR"`
	Storage    string `env:"TENNIS_SCOREKEEPER_STORAGE" envDefault:"memory"`
	SQLitePath string `env:"TENNIS_SCOREKEEPER_SQLITE_PATH" envDefault:"scorekeeper.db"`
	RedisAddr  string `env:"TENNIS_SCOREKEEPER_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The server listen address (overrides -port)")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Event store driver: memory, sqlite, or redis")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path (storage=sqlite)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address (storage=redis)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the scorekeeper HTTP service and blocks until ctx is done
// or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, cleanup, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		hub := broadcast.NewHub()
		service, err := app.NewService(store, app.WithNotifier(hubNotifier{hub}))
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		web.NewHandler(service, hub).RegisterRoutes(mux)

		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		srv := &http.Server{Addr: addr, Handler: mux}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("scorekeeper listening on %s (storage=%s)", addr, cfg.Storage)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	})
}

type hubNotifier struct{ hub *broadcast.Hub }

func (n hubNotifier) Broadcast(matchID string, payload []byte) {
	n.hub.Broadcast(matchID, payload)
}

func openStore(cfg Config) (storage.EventStore, func(), error) {
	switch cfg.Storage {
	case "", "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "redis":
		client := redisstore.NewGoRedisScripter(cfg.RedisAddr)
		store, err := redisstore.New(client)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
}
