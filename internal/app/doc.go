// Package app wires configuration, storage, services and transports into a
// runnable server and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from .env, environment and an optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Open the store selected by the store driver
//	4. Create the WebSocket hub, upload and health services
//	5. Create the watch-folder ingester when ingest is enabled
//	6. Build the chi router and the HTTP server
//
// # Routes
//
//	GET  /ws                     upload status stream (requires ?owner_id=)
//	GET  /health                 liveness summary
//	GET  /metrics                Prometheus exposition
//	GET  /metrics/websocket      hub counters
//	GET  /api/version            build information
//	GET  /api/health[/ready|/live]
//	POST /api/upload/validate    structural report for a spreadsheet
//	POST /api/upload/excel       upload a spreadsheet for the owner
//	POST /api/upload/sheet       upload a pre-decoded JSON sheet
//	GET  /api/upload/products    stored products of the owner
//	GET  /api/upload/history     uploads of the owner
//
// # Lifecycle
//
// Serve runs the HTTP server, the hub and the ingester under one errgroup.
// The first failure or the cancellation of ctx shuts everything down:
//
//	app, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return app.Run()
package app
