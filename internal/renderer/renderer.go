package renderer

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/damacus/bucket-explorer/internal/utils"
)

//go:embed views
var views embed.FS

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"fileSize": utils.FormatFileSize,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// New creates a new TemplateRenderer with pre-parsed templates
func New() *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates()
	return r
}

func (t *TemplateRenderer) parseTemplates() {
	parse := func(name string, files ...string) {
		t.Templates[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(views, files...))
	}

	parse("index", "views/layouts/base.html", "views/partials/listing.html", "views/pages/index.html")
	parse("listing", "views/partials/listing.html")
}

// selfExecutingTemplates lists templates that execute their own named block instead of "base"
var selfExecutingTemplates = map[string]bool{
	"listing": true,
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	// Partials define their own named block
	if selfExecutingTemplates[name] {
		return tmpl.ExecuteTemplate(w, name, data)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
