// Package logger builds the service's *slog.Logger.
//
// New applies a set of Option functions (output format, level, static
// attributes, environment presets) and wraps the resulting handler with a
// decorator that pulls request-scoped values such as the request id out of
// context.Context on every log call.
//
//	log := logger.New(
//		logger.WithEnvironment("production", "behaviortrace"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "batch stored", logger.SessionID(id), logger.RecordID(rid))
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Error and the id helpers return an empty slog.Attr for nil/empty input, so
// they can be passed unconditionally.
//
// Noop returns a logger that discards everything; library types use it when
// no logger is supplied.
package logger
