// Package httpserver runs an http.Handler with configured timeouts, stops it
// gracefully on context cancellation or SIGINT/SIGTERM, and provides liveness
// and readiness probe handlers.
//
//	cfg, _ := config.Load[httpserver.Config]()
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
