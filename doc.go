// Package blazeweb is a web micro-framework built around a request/response
// lifecycle: settings, plugins, routing to endpoints, class-style views with
// argument processing, error docs and exception policies.
//
// # Quick Start
//
//	app, err := blazeweb.New(
//	    blazeweb.WithSettingsFile("settings.yaml", os.Getenv("APP_PROFILE")),
//	    blazeweb.WithRoutes(
//	        blazeweb.Rule("/", "index"),
//	        blazeweb.Rule("/articles/{id}", "ShowArticle"),
//	    ),
//	    blazeweb.WithViews(map[string]blazeweb.ViewFactory{
//	        "index":       blazeweb.ViewFunc(index),
//	        "ShowArticle": func() blazeweb.Viewer { return &ShowArticle{} },
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Views
//
// A view embeds [View]. Init declares argument processors; Get, Post, XHR
// or Default answer the request:
//
//	type ShowArticle struct {
//	    blazeweb.View
//	}
//
//	func (v *ShowArticle) Init(c blazeweb.Context) error {
//	    v.AddProcessor("id", blazeweb.IntArg, blazeweb.Required())
//	    return nil
//	}
//
//	func (v *ShowArticle) Get(c blazeweb.Context, args blazeweb.Args) (any, error) {
//	    article, err := findArticle(c, blazeweb.Arg[int](args, "id"))
//	    if err != nil {
//	        return nil, blazeweb.ErrNotFound("")
//	    }
//	    return c.RenderTemplate("article.html", map[string]any{"article": article})
//	}
//
// An endpoint containing a dot, such as "about.html", renders that template
// with the URL arguments as data.
//
// # Control Flow
//
// Views return [Forward], [Redirect] or [Abort] to end the current cycle:
//
//	if !c.User().IsAuthenticated {
//	    return nil, blazeweb.Redirect(0, "/login")
//	}
//
// # Settings
//
// Settings are layered: framework defaults, the selected profile of a YAML
// document, then plugin defaults overridden under "plugins.<name>". Errors
// are handled according to "exception_handling" and rendered through
// "error_docs":
//
//	default:
//	  error_docs:
//	    "404": "NotFound"
//	  exception_handling: [handle, email]
//	  emails:
//	    programmers: [dev@example.com]
//
// # Testing
//
// [NewTestApp] applies test settings so errors escape to the test, and
// App.Dispatch returns the response instead of writing it:
//
//	app, _ := blazeweb.NewTestApp(opts...)
//	resp, err := app.Dispatch(httptest.NewRequest(http.MethodGet, "/", nil))
package blazeweb
