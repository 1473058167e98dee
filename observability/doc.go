// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP exporters when enabled and returns a shutdown
// function; when disabled the global no-op providers stay in place and every
// helper here remains safe to call.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "voxrelay", version.Short())
//	defer shutdown(context.Background())
//
//	ctx, span := observability.StartSpan(ctx, "whisper.transcribe")
//	defer span.End()
package observability
