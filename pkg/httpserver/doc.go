// Package httpserver runs the demo HTTP service with graceful shutdown.
//
// Run binds the listener, serves until the context is cancelled (wire it to
// signal.NotifyContext) and then drains in-flight requests within the
// shutdown timeout. HealthCheckHandler serves liveness and readiness probes
// backed by the store health checks of pkg/redis, pkg/pg and pkg/mongo.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
