package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"absentee/internal/adapters/http/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login.html", "upload.html", "review.html", "report.html"}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"renderMarkdown": renderMarkdown,
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = tpl
	}
	return pages, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title     string
	Session   *middleware.Session
	CSRFField template.HTML
	Error     string
	Data      any
}

// render executes a page into a buffer first so a template failure never
// leaves a half-written 200 response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, errMsg string) {
	tpl, ok := s.pages[name]
	if !ok {
		internalError(w, errUnknownPage(name))
		return
	}
	pd := pageData{
		Title:     title,
		CSRFField: csrf.TemplateField(r),
		Error:     errMsg,
		Data:      data,
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		pd.Session = &sess
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, pd); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errUnknownPage string

func (e errUnknownPage) Error() string { return "unknown page template " + string(e) }

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}
