// Package internal implements the blazeweb request/response lifecycle.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/blazeweb" instead, which re-exports the public API.
//
// # Building an App
//
// New assembles the application in a fixed order and emits a signal after
// each stage: events, settings, logging, routing, templating. Plugins are
// registered after the application, so their signal handlers run after the
// application's.
//
//	app, err := internal.New(
//	    internal.WithSettingsFile("settings.yaml", os.Getenv("APP_PROFILE")),
//	    internal.WithRoutes(
//	        internal.Rule("/", "index"),
//	        internal.Rule("/articles/{id}", "ShowArticle", http.MethodGet),
//	        internal.Rule("/about", "about.html"),
//	    ),
//	    internal.WithViews(map[string]internal.ViewFactory{
//	        "index":       internal.ViewFunc(index),
//	        "ShowArticle": func() internal.Viewer { return &ShowArticle{} },
//	    }),
//	    internal.WithPlugins(news.Plugin()),
//	)
//
// # Request Lifecycle
//
// Each request gets a Registry holding the request globals (RG), the
// application globals (AG), the settings and the session user. The request
// setup hooks run first, then one or more response cycles, then the request
// teardown hooks. A response cycle runs its setup hooks, dispatches the
// endpoint at the tail of the forward queue and runs its teardown hooks.
//
// Views end a cycle early by returning one of the control signals:
//
//   - Forward: re-dispatch to another endpoint within the same request
//   - Redirect: send the client elsewhere
//   - Abort: end the request with a status, text or response
//
// # Views
//
// A view embeds View and answers with Get, Post, XHR or Default. Init
// registers argument processors and call methods. The call stack runs
// before the action; SendResponse stops it and responds with the current
// retval.
//
// Return values are converted to responses: strings and byte slices become
// the body, *Response is served as built, http.Handler and Component are
// served directly, nil keeps the response context.
//
// # Errors
//
// HTTPError values are rendered through "error_docs" when an endpoint is
// configured for their status. Any other error goes through the
// "exception_handling" policies: email mails the report to the programmers,
// format shows it on the 500 page, handle renders the 500 error doc. With no
// policy the error escapes: Dispatch returns it and ServeHTTP panics.
//
// # Plugins
//
// A plugin is a named set of packages. Views, templates and static files
// are looked up in the application first, then in each package in
// registration order. Plugin settings are the package defaults overridden
// by "plugins.<name>".
package internal
