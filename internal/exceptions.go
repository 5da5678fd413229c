package internal

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/blazeweb/pkg/mailer"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Task names registered on the job queue by the App.
const (
	TaskMailProgrammers = "blazeweb:mail_programmers"
	TaskSessionPurge    = "blazeweb:session_purge"
)

// translate turns the outcome of fn into a response: redirects are served
// as built, HTTP errors go through the error docs and anything else through
// the exception policies.
func (a *App) translate(c Context, fn func() (*Response, error)) (*Response, error) {
	resp, err := fn()
	if err == nil {
		return resp, nil
	}

	var redirect *redirectSignal
	if errors.As(err, &redirect) {
		return redirect.response, nil
	}
	if he := AsHTTPError(err); he != nil {
		return a.handleHTTPError(c, he)
	}
	return a.handleException(c, err)
}

// handleHTTPError renders e through its error doc when one is configured.
func (a *App) handleHTTPError(c Context, e *HTTPError) (*Response, error) {
	if e.Response != nil {
		return e.Response, nil
	}
	endpoint, ok := a.settings.ErrorDoc(e.Code)
	if !ok {
		return e.Page(), nil
	}

	resp, err := a.responseCycle(c, endpoint, Args{}, e.Code)
	if err == nil {
		if resp.Status == 0 {
			resp.Status = e.Code
		}
		return resp, nil
	}

	var redirect *redirectSignal
	if errors.As(err, &redirect) {
		return redirect.response, nil
	}
	if AsHTTPError(err) != nil {
		a.logger.DebugContext(c, "error doc raised an HTTP error",
			slog.Int("code", e.Code),
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return e.Page(), nil
	}
	return a.handleException(c, err)
}

// escapedError marks an error the exception policies let through, so it
// is not handled again on its way out of the middleware chain.
type escapedError struct{ err error }

func (e *escapedError) Error() string { return e.err.Error() }
func (e *escapedError) Unwrap() error { return e.err }

func asEscaped(err error) *escapedError {
	var ee *escapedError
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}

// handleException applies the "exception_handling" policies. With no policy
// applying, err is returned marked so it escapes to the caller.
func (a *App) handleException(c Context, err error) (*Response, error) {
	if asEscaped(err) != nil {
		return nil, err
	}

	report := newExceptionReport(c, err)
	a.logger.ErrorContext(c, "exception encountered",
		slog.Any("error", err),
		slog.String("trace", report.Trace),
		slog.String("method", report.Method),
		slog.String("url", report.URL),
	)

	policies := a.settings.Strings("exception_handling")
	if len(policies) == 0 {
		return nil, &escapedError{err: err}
	}

	if slices.Contains(policies, settings.PolicyEmail) {
		if merr := a.mailException(c, report); merr != nil {
			a.logger.ErrorContext(c, "exception when trying to email exception", slog.Any("error", merr))
		}
	}

	if slices.Contains(policies, settings.PolicyFormat) {
		return ErrInternal("", WithDetail("<pre>"+html.EscapeString(report.String())+"</pre>")).Page(), nil
	}

	if slices.Contains(policies, settings.PolicyHandle) {
		if endpoint, ok := a.settings.ErrorDoc(http.StatusInternalServerError); ok {
			resp, derr := a.responseCycle(c, endpoint, Args{}, http.StatusInternalServerError)
			if derr == nil {
				if resp.Status == 0 {
					resp.Status = http.StatusInternalServerError
				}
				return resp, nil
			}
			if AsHTTPError(derr) != nil {
				a.logger.DebugContext(c, "error doc raised an HTTP error", slog.Any("error", derr))
			} else {
				a.logger.ErrorContext(c, "exception when trying to handle exception", slog.Any("error", derr))
			}
		}
		return ErrInternal("").Page(), nil
	}

	return nil, &escapedError{err: err}
}

// mailException sends the report to the programmers, through the job queue
// when one is configured.
func (a *App) mailException(ctx context.Context, report exceptionReport) error {
	if a.jobs != nil {
		return a.jobs.Enqueue(ctx, TaskMailProgrammers, report)
	}
	if a.mailer == nil {
		a.logger.DebugContext(ctx, "no mailer configured, exception not mailed")
		return nil
	}
	return a.mailer.MailProgrammers(ctx, mailer.SendParams{Template: "exception.md", Data: report})
}

// exceptionReport is the context logged and mailed for an exception.
type exceptionReport struct {
	Summary string `json:"summary"`
	Ident   string `json:"ident"`
	Method  string `json:"method"`
	URL     string `json:"url"`
	Trace   string `json:"trace"`
	Environ string `json:"environ"`
	Post    string `json:"post"`
}

func newExceptionReport(c Context, err error) exceptionReport {
	r := exceptionReport{
		Summary: err.Error(),
		Ident:   c.Ident(),
		Trace:   errorTrace(err),
	}
	if req := c.Request(); req != nil {
		r.Method = req.Method
		r.URL = req.URL.String()
		r.Environ = environ(req)
		r.Post = postValues(req)
	}
	return r
}

func (r exceptionReport) String() string {
	var b strings.Builder
	b.WriteString(r.Summary)
	b.WriteString("\n\n== TRACE ==\n")
	b.WriteString(r.Trace)
	b.WriteString("\n\n== ENVIRON ==\n")
	b.WriteString(r.Environ)
	b.WriteString("\n\n== POST ==\n")
	b.WriteString(r.Post)
	return b.String()
}

// errorTrace returns the panic stack, or the error chain outermost first.
func errorTrace(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		return fmt.Sprintf("%v\n%s", pe.Value, pe.Stack)
	}
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %v", e, e))
	}
	return strings.Join(lines, "\n")
}

var redactedHeaders = []string{"Authorization", "Cookie"}

func environ(r *http.Request) string {
	lines := []string{
		"REQUEST_METHOD: " + r.Method,
		"PATH_INFO: " + r.URL.Path,
		"QUERY_STRING: " + r.URL.RawQuery,
		"REMOTE_ADDR: " + r.RemoteAddr,
		"HTTP_HOST: " + r.Host,
	}
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := strings.Join(r.Header[k], ", ")
		if slices.Contains(redactedHeaders, k) {
			v = "[redacted]"
		}
		lines = append(lines, "HTTP_"+strings.ToUpper(strings.ReplaceAll(k, "-", "_"))+": "+v)
	}
	return strings.Join(lines, "\n")
}

func postValues(r *http.Request) string {
	if r.PostForm == nil {
		return ""
	}
	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(r.PostForm[k], ", "))
	}
	return strings.Join(lines, "\n")
}
