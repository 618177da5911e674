// Package http is the inbound HTTP adapter of the awaymail daemon.
//
// The hosting chat server calls it for every in-flight message and routes
// the returned decision into its own delivery pipeline.
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	metrics := http.NewMetrics(reg)
//	transport := http.NewHTTPTransport(dispatcher,
//	    http.WithAddr("127.0.0.1:8085"),
//	    http.WithMetrics(metrics, reg),
//	    http.WithHealthChecker(health),
//	    http.WithLogger(logger),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	POST /v1/intercept  - Evaluate one message, returns the decision
//	GET  /health        - Component checks and decision counters
//	GET  /metrics       - Prometheus metrics
//
// # Intercept request
//
//	{
//	  "message": {"id": "m1", "type": "chat", "from": "bob@example.com/phone",
//	              "to": "alice@example.com", "body": "hello"},
//	  "processed": false,
//	  "read": false
//	}
//
// # Intercept response
//
//	{"accepted": true, "action": "forward", "reason": "forwarded", "request_id": "..."}
//
// accepted is false when an interceptor rejected the message; error then
// carries the rejection. The decision fields are empty when no gate is
// registered.
package http
