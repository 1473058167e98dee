// Package bootstrap runs a voxrelay binary: it validates the config,
// initializes logging, starts registered components, blocks until a
// shutdown signal, and stops everything within a graceful timeout.
package bootstrap
