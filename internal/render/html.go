package render

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-map/internal/pipeline"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var mapTemplate = template.Must(template.ParseFS(templateFS, "templates/map.html.tmpl"))

// HTML renders a self-contained Leaflet page over OpenStreetMap tiles.
type HTML struct {
	style Style
}

// NewHTML returns an HTML renderer.
func NewHTML(style Style) *HTML {
	return &HTML{style: style}
}

// ContentType implements Renderer.
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Extension implements Renderer.
func (h *HTML) Extension() string { return ".html" }

// Render implements Renderer.
func (h *HTML) Render(_ context.Context, w io.Writer, res *pipeline.Result) error {
	view, err := NewMapView(res, h.style)
	if err != nil {
		return err
	}
	if err := mapTemplate.Execute(w, view); err != nil {
		return eris.Wrap(err, "render: html template")
	}
	return nil
}
