// Package logger provides structured logging on top of zerolog.
//
// A Logger carries the service name and any fields attached with
// WithComponent or WithFields. Log methods take optional field maps:
//
//	log := logger.New(&cfg, "voxrelay")
//	log.WithComponent("dispatcher").Info("job finished", logger.Fields(logger.FieldJobID, id))
//
// A process-wide logger is available through Init and the package-level
// Debug/Info/Warn/Error functions.
package logger
