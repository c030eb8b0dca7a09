// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUIDv4,
// stores it in the request context and echoes it in the response.
// LoggerExtractor plugs the id into logs built by pkg/logger, so session
// warnings logged with the request context carry a request_id attribute.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
