// Package app wires the dashboard API together: tracing, metrics, the
// analysis and health services, the chi middleware chain and the HTTP
// server with graceful shutdown.
//
// Typical use from a command:
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
