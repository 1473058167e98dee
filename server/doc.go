// Package server is the HTTP server shared by voxrelay binaries: a Gin engine
// mounted on a ServeMux, wrapped in server-level middleware and served with
// h2c so HTTP/2 clients work without TLS.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the context
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body cap
//   - RequestLogger: one log line per request
//   - Auth: bearer token check for Gin route groups
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health and /info.
package server
