// Command sessiond is a demo service sharing express-session compatible
// sessions with Node.js applications.
//
// Configuration comes from the environment (and a .env file). SESSIOND_CONFIG
// may point to a YAML file whose keys override session settings.
// SESSION_STORE selects the backend: memory, redis, postgres or mongo.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type appConfig struct {
	Store      string `env:"SESSION_STORE" envDefault:"memory"`
	ConfigFile string `env:"SESSIOND_CONFIG"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnv(); err != nil {
		return err
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
	logger.SetAsDefault(log)

	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}

	var sessCfg session.Config
	if err := config.Load(&sessCfg); err != nil {
		return err
	}
	if app.ConfigFile != "" {
		if err := config.LoadYAML(app.ConfigFile, &sessCfg); err != nil {
			return err
		}
	}

	backend, err := openStore(ctx, app.Store, log)
	if err != nil {
		return err
	}
	defer backend.close()

	mgr, err := session.New(sessCfg,
		session.WithStore(backend.store),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer mgr.Close()

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	log.InfoContext(ctx, "starting sessiond",
		logger.Store(backend.name),
		slog.String("cookie", sessCfg.CookieName),
	)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, newRouter(mgr, backend, log))
}
