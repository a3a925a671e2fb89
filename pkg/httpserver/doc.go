// Package httpserver runs the process's HTTP listener with graceful
// shutdown.
//
// Run blocks until the supplied context is cancelled (cmd/tenantd cancels it
// on SIGINT/SIGTERM) or the listener fails, then drains in-flight requests
// within the shutdown timeout. Construction uses functional options, with
// NewFromConfig bridging from the env-tagged Config:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, mux); err != nil {
//		return err
//	}
//
// Liveness and Readiness return probe handlers; Readiness runs dependency
// checks such as pg.Healthcheck and redis.Healthcheck against the request
// context. Listen errors wrap ErrStart and shutdown errors wrap ErrShutdown,
// distinguishable with errors.Is.
package httpserver
