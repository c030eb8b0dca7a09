// Package logger builds the log/slog loggers used across sessionkit.
//
// New returns a *slog.Logger configured by options: output format (JSON or
// text), level, static attributes and ContextExtractor callbacks. Extractors
// run through a ContextHandler on every record, which is how request ids
// reach the session warnings logged with a request context.
//
//	log := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "session load failed",
//		logger.StoreKey(key),
//		logger.Error(err),
//	)
//
// Config carries APP_ENV, APP_NAME and LOG_LEVEL tags for pkg/config.
// Development logs text at DEBUG, staging and production log JSON at INFO.
//
// Attribute helpers (Error, Errors, SessionID, StoreKey, Component, ...) keep
// key names consistent. Error and Errors return an empty attribute for nil
// errors, so they can be passed unconditionally.
package logger
