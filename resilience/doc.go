// Package resilience provides retry with exponential backoff and a circuit
// breaker. The HTTP client retries transient provider failures with Retry;
// the transcription chain puts each provider behind a CircuitBreaker so a
// provider that keeps failing is skipped without paying its timeout.
package resilience
