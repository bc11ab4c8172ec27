// Package api exposes the turn engine over HTTP.
//
// Endpoints:
//   - POST /api/turn  - run one support turn, returns the render payload
//   - GET  /health    - liveness probe
//   - GET  /ready     - readiness probe (pings the database)
//
// The turn route sits behind the middleware stack (recovery, request ID,
// logging, CORS, per-IP rate limiting); the probes bypass it so load
// balancers are never rate limited.
package api
