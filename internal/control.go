package internal

import (
	"fmt"
	"html"
	"net/http"
)

// forwardSignal asks the response cycle to dispatch another endpoint.
type forwardSignal struct {
	args     Args
	endpoint string
}

func (f *forwardSignal) Error() string {
	return "forward to " + f.endpoint
}

// Forward stops the current view and re-dispatches the request to endpoint
// without a client round-trip. Return it from a view:
//
//	return nil, blazeweb.Forward("news:Index", blazeweb.Args{"page": 2})
func Forward(endpoint string, args Args) error {
	return &forwardSignal{endpoint: endpoint, args: args}
}

// redirectSignal carries a ready redirect response. It never reaches the
// error docs.
type redirectSignal struct {
	response *Response
}

func (r *redirectSignal) Error() string {
	return fmt.Sprintf("redirect %d to %s", r.response.Status, r.response.Header.Get("Location"))
}

// Redirect stops the request and sends the client to url. A zero code means
// 302 Found.
func Redirect(code int, url string) error {
	if code == 0 {
		code = http.StatusFound
	}
	escaped := html.EscapeString(url)
	body := "<!DOCTYPE HTML PUBLIC \"-//W3C//DTD HTML 3.2 Final//EN\">\n" +
		"<title>Redirecting...</title>\n<h1>Redirecting...</h1>\n" +
		"<p>You should be redirected automatically to target URL: " +
		"<a href=\"" + escaped + "\">" + escaped + "</a>.  If not click the link."
	resp := NewResponse(code, body, "text/html; charset=utf-8")
	resp.Header.Set("Location", url)
	return &redirectSignal{response: resp}
}

// Abort stops the request with whatever send describes:
//   - int: the HTTP error with that status
//   - string: a small HTML page showing the text
//   - *Response, Component or http.Handler: served as-is
//   - anything else: pretty-printed on an HTML page
//
// Only int aborts go through the error docs.
func Abort(send any) error {
	switch v := send.(type) {
	case int:
		return NewHTTPError(v, "")
	case string:
		return abortPage(html.EscapeString(v))
	case *Response:
		return NewHTTPError(v.Status, "", WithResponse(v))
	case Component:
		return NewHTTPError(http.StatusOK, "", WithResponse(ComponentResponse(v)))
	case http.Handler:
		return NewHTTPError(http.StatusOK, "", WithResponse(HandlerResponse(v)))
	default:
		return abortPage("<pre>" + html.EscapeString(prettyPrint(v)) + "</pre>")
	}
}

func abortPage(content string) *HTTPError {
	body := "<html><head><title>abort() Response</title></head><body>" + content + "</body></html>"
	return NewHTTPError(http.StatusOK, "", WithResponse(NewResponse(http.StatusOK, body, "text/html; charset=utf-8")))
}
