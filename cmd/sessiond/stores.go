package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionkit/pkg/session/pgstore"
)

// sweepInterval is how often expired entries are removed from stores
// without native expiry.
const sweepInterval = 10 * time.Minute

var (
	errUnknownStore = errors.New("unknown SESSION_STORE")
	errMissingUser  = errors.New("user is required")
)

// backend is an opened session store with its readiness checks and the
// function releasing its connections.
type backend struct {
	name   string
	store  session.Store
	checks []httpserver.Check
	closer []func()
}

func (b *backend) close() {
	for i := len(b.closer) - 1; i >= 0; i-- {
		b.closer[i]()
	}
}

func openStore(ctx context.Context, kind string, log *slog.Logger) (*backend, error) {
	switch kind {
	case "", "memory":
		return openMemory(), nil
	case "redis":
		return openRedis(ctx)
	case "postgres", "pg":
		return openPostgres(ctx, log)
	case "mongo", "mongodb":
		return openMongo(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStore, kind)
	}
}

func openMemory() *backend {
	store := session.NewMemoryStore(time.Minute)
	return &backend{
		name:   "memory",
		store:  store,
		closer: []func(){func() { _ = store.Close() }},
	}
}

func openRedis(ctx context.Context) (*backend, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &backend{
		name:   "redis",
		store:  session.NewRedisStore(client),
		checks: []httpserver.Check{redis.Healthcheck(client)},
		closer: []func(){func() { _ = client.Close() }},
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*backend, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
		pool.Close()
		return nil, err
	}

	store := pgstore.New(pool)
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go sweep(sweepCtx, log, store)

	return &backend{
		name:   "postgres",
		store:  store,
		checks: []httpserver.Check{pg.Healthcheck(pool)},
		closer: []func(){pool.Close, cancel},
	}, nil
}

func openMongo(ctx context.Context) (*backend, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	db, err := mongo.NewWithDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	disconnect := func() { _ = db.Client().Disconnect(context.Background()) }

	store := mongostore.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, err
	}

	return &backend{
		name:   "mongo",
		store:  store,
		checks: []httpserver.Check{mongo.Healthcheck(db.Client())},
		closer: []func(){disconnect},
	}, nil
}

// sweep prunes expired postgres rows until ctx is cancelled.
func sweep(ctx context.Context, log *slog.Logger, store *pgstore.Store) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Prune(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to prune expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "pruned expired sessions", slog.Int64("count", n))
			}
		}
	}
}
