// Package errors defines the structured error type shared by the voxrelay
// services: a machine-readable code, an HTTP status hint, and a retryable flag.
package errors
