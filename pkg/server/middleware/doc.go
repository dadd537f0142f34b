// Package middleware provides the HTTP middleware chain for the
// extraction server: panic recovery, request logging, Prometheus
// instrumentation, request ID propagation, CORS, and request deadlines.
//
// The server applies them innermost to outermost as
//
//	Timeout -> CORS -> RequestID -> Metrics -> Logging -> Recovery
//
// so Recovery catches panics from everything below it and Logging sees
// the final status code of every request, including CORS preflights.
package middleware
