/*
Package httpserver implements the demo services that sit around a provisioned
realm and gateway: the protected data service behind the gateway route and the
single-page client that logs users in and calls it.

Both run on the same chi server, which also carries health and drain
endpoints, optional pprof and a separate Prometheus metrics listener.

# Endpoints

  - GET /data - Demo resource; see DataHandler
  - GET / - Embedded client page
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Mark server as not ready
  - GET /undrain - Mark server as ready

# Data access

The gateway verifies the bearer token before forwarding, so DataHandler only
decodes it. A token carrying the configured role under
resource_access.<client>.roles gets the item list, any other decodable token
an empty list. A request without an Authorization header gets an empty 200
response and an undecodable token a 401.

# Example Usage

	cfg := &httpserver.HTTPServerConfig{
		ListenAddr:               ":3001",
		MetricsAddr:              ":9090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             10 * time.Second,
	}

	handler := httpserver.NewDataHandler(httpserver.DefaultClientID, httpserver.DefaultRole, logger)
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
