// Package render turns a pipeline result into map pages and export files.
//
// Renderers only read the result. Callers render into a buffer and write the
// artifact once rendering succeeded.
package render

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-map/internal/pipeline"
)

// ErrUnknownFormat is returned by ForFormat for unsupported names.
var ErrUnknownFormat = eris.New("unknown render format")

// Renderer writes one artifact for a result.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, res *pipeline.Result) error
	ContentType() string
	Extension() string
}

// Format names accepted by ForFormat.
const (
	FormatHTML    = "html"
	FormatGeoJSON = "geojson"
	FormatXLSX    = "xlsx"
	FormatYAML    = "yaml"
	FormatJSON    = "json"
)

// ForFormat resolves a renderer by name. The style only affects renderers
// that draw or label markers.
func ForFormat(name string, style Style) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatHTML:
		return NewHTML(style), nil
	case FormatGeoJSON:
		return NewGeoJSON(style), nil
	case FormatXLSX:
		return NewXLSX(), nil
	case FormatYAML, "yml":
		return NewYAML(), nil
	case FormatJSON:
		return NewJSON(), nil
	}
	return nil, eris.Wrapf(ErrUnknownFormat, "%q (want one of %s)", name, strings.Join(Formats(), ", "))
}

// Formats lists the supported format names.
func Formats() []string {
	f := []string{FormatHTML, FormatGeoJSON, FormatXLSX, FormatYAML, FormatJSON}
	sort.Strings(f)
	return f
}

// ToBytes renders into memory so a failed render never yields a partial
// artifact.
func ToBytes(ctx context.Context, r Renderer, res *pipeline.Result) ([]byte, error) {
	if res == nil {
		return nil, eris.New("render: nil result")
	}
	var buf bytes.Buffer
	if err := r.Render(ctx, &buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
