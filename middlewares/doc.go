// Package middlewares provides middleware for blazeweb applications.
//
// Middleware wraps the whole request lifecycle: session loading, request
// hooks, routing and the response cycle. The first middleware registered is
// the outermost one.
//
// # Request ID
//
// RequestID makes an upstream request ID (X-Request-ID, X-Correlation-ID)
// the request ident, or generates one, and echoes it in the response.
// The ident is attached to every log record and to error pages.
//
//	app, err := blazeweb.New(
//	    blazeweb.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// # Recover
//
// Recover converts panics raised outside views (inner middleware, request
// hooks) into a PanicError, which then escapes like any other error.
// Panics raised by views are converted by the dispatcher and go through the
// exception handling policies.
//
// # Request logger
//
// RequestLogger writes one record per request. Filters restrict it to some
// paths or methods; RequestLoggerFromSettings reads them from
// "logs.http_requests.filters":
//
//	logs:
//	  http_requests:
//	    enabled: true
//	    filters:
//	      path_info: ["^/api/"]
//	      request_method: [POST, PUT, DELETE]
//
// blazeweb.New installs Recover and RequestID, plus RequestLogger when
// "logs.http_requests.enabled" is true.
package middlewares
