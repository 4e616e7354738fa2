// Package logger builds log/slog loggers and provides attribute helpers for
// multicast dispatch.
//
// # Creating a logger
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "billing"),
//	    logger.WithOutput(os.Stderr),
//	)
//
// Defaults are JSON to stdout at info level. WithEnvironment switches to text
// at debug level for development.
//
// # Attributes
//
// Helpers return empty attributes for nil or empty values, which slog drops:
//
//	log.ErrorContext(ctx, "listener call failed",
//	    logger.Contract("app.Notify"),
//	    logger.Method("OnEvent"),
//	    logger.Tag(tag),
//	    logger.Error(err))
package logger
