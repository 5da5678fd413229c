package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	texttemplate "text/template"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/blazeweb/pkg/sanitizer"
	"github.com/dmitrymomot/blazeweb/pkg/slug"
)

// TemplateEngine renders the template named by an endpoint such as
// "news:index.html" or "index.html".
type TemplateEngine interface {
	Render(ctx context.Context, endpoint string, data map[string]any) (string, error)
}

// parsedTemplate holds one cached parse. Every execution runs on a clone
// so "include" can be bound to the caller's context.
type parsedTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func (p *parsedTemplate) execute(w io.Writer, data any, bound map[string]any) error {
	if p.html != nil {
		t, err := p.html.Clone()
		if err != nil {
			return err
		}
		return t.Funcs(bound).Execute(w, data)
	}
	t, err := p.text.Clone()
	if err != nil {
		return err
	}
	return t.Funcs(bound).Execute(w, data)
}

// templateEngine is the default engine. html/template is used for the
// autoescaped extensions, text/template for everything else.
type templateEngine struct {
	app        *App
	md         goldmark.Markdown
	cache      sync.Map
	group      singleflight.Group
	autoescape []string
}

func newTemplateEngine(a *App) *templateEngine {
	return &templateEngine{
		app:        a,
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
		autoescape: a.settings.Strings("templating.autoescape"),
	}
}

// Render locates endpoint, parses it once and executes it with data plus
// the ambient values "user", "settings" and "ident".
func (e *templateEngine) Render(ctx context.Context, endpoint string, data map[string]any) (string, error) {
	fsys, file, key, err := e.find(endpoint)
	if err != nil {
		return "", err
	}
	tpl, err := e.load(fsys, file, key)
	if err != nil {
		return "", err
	}

	vars := make(map[string]any, len(data)+3)
	if reg, ok := RegistryFrom(ctx); ok {
		vars["user"] = reg.User
		vars["settings"] = reg.Settings
		vars["ident"] = reg.RG.Ident
	} else {
		vars["settings"] = e.app.settings
	}
	maps.Copy(vars, data)

	var buf bytes.Buffer
	if err := tpl.execute(&buf, vars, e.boundFuncs(ctx)); err != nil {
		return "", fmt.Errorf("blazeweb: render %s: %w", endpoint, err)
	}
	return buf.String(), nil
}

// find resolves endpoint. The application's "<plugin>/<name>" file
// overrides the plugin packages; a CapWords name falls back to snake_case.
func (e *templateEngine) find(endpoint string) (fs.FS, string, string, error) {
	plugin, name := splitEndpoint(endpoint)
	candidates := []string{name}
	if alt := snakeName(name); alt != name {
		candidates = append(candidates, alt)
	}

	for _, n := range candidates {
		if e.app.templateFS != nil {
			file := n
			if plugin != "" {
				file = plugin + "/" + n
			}
			if exists(e.app.templateFS, file) {
				return e.app.templateFS, file, "app:" + file, nil
			}
		}
		if plugin == "" {
			continue
		}
		for i, p := range e.app.pluginPackages(plugin) {
			if p.Templates != nil && exists(p.Templates, n) {
				return p.Templates, n, fmt.Sprintf("%s#%d:%s", plugin, i, n), nil
			}
		}
	}
	return nil, "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, endpoint)
}

func (e *templateEngine) load(fsys fs.FS, file, key string) (*parsedTemplate, error) {
	if tpl, ok := e.cache.Load(key); ok {
		return tpl.(*parsedTemplate), nil
	}
	v, err, _ := e.group.Do(key, func() (any, error) {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		tpl, err := e.parse(file, string(src))
		if err != nil {
			return nil, fmt.Errorf("blazeweb: parse %s: %w", file, err)
		}
		e.cache.Store(key, tpl)
		return tpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*parsedTemplate), nil
}

func (e *templateEngine) parse(file, src string) (*parsedTemplate, error) {
	funcs := e.funcs()
	ext := strings.TrimPrefix(path.Ext(file), ".")
	if slices.Contains(e.autoescape, ext) {
		t, err := htmltemplate.New(path.Base(file)).Funcs(funcs).Parse(src)
		if err != nil {
			return nil, err
		}
		return &parsedTemplate{html: t}, nil
	}
	t, err := texttemplate.New(path.Base(file)).Funcs(texttemplate.FuncMap(funcs)).Parse(src)
	if err != nil {
		return nil, err
	}
	return &parsedTemplate{text: t}, nil
}

// boundFuncs are the funcs that need the rendering context. Included
// templates see the same request values as the template including them.
func (e *templateEngine) boundFuncs(ctx context.Context) map[string]any {
	return map[string]any{
		"include": func(endpoint string, data any) (htmltemplate.HTML, error) {
			vars, ok := data.(map[string]any)
			if !ok {
				vars = map[string]any{"data": data}
			}
			out, err := e.Render(ctx, endpoint, vars)
			return htmltemplate.HTML(out), err
		},
	}
}

func (e *templateEngine) funcs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"url_for": func(endpoint string, kv ...any) (string, error) {
			if len(kv)%2 != 0 {
				return "", errors.New("url_for: odd number of key/value arguments")
			}
			args := Args{}
			for i := 0; i < len(kv); i += 2 {
				args[fmt.Sprint(kv[i])] = kv[i+1]
			}
			return e.app.URLFor(endpoint, args)
		},
		"markdown": func(s string) (htmltemplate.HTML, error) {
			var buf bytes.Buffer
			if err := e.md.Convert([]byte(s), &buf); err != nil {
				return "", err
			}
			return htmltemplate.HTML(sanitizer.SanitizeHTML(buf.String())), nil
		},
		"strip_tags": sanitizer.StripTags,
		"urlslug": func(s string) string {
			return slug.Make(s)
		},
		"pprint": func(v any) htmltemplate.HTML {
			return htmltemplate.HTML(`<pre class="pretty_print">` + htmltemplate.HTMLEscapeString(prettyPrint(v)) + "</pre>")
		},
		"include": func(string, any) (htmltemplate.HTML, error) {
			return "", errors.New("include: template not bound to a render")
		},
	}
}

func exists(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}

// snakeName converts the base of a CapWords file name to snake_case:
// "ShowArticle.html" becomes "show_article.html".
func snakeName(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	var b strings.Builder
	runes := []rune(base)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String() + ext
}
