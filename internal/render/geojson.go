package render

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/competitor-map/internal/geo"
	"github.com/sells-group/competitor-map/internal/model"
	"github.com/sells-group/competitor-map/internal/pipeline"
)

// Feature layer names.
const (
	LayerStores      = "stores"
	LayerCompetitors = "competitors"
)

// GeoJSON renders a feature collection of display positions. Every feature
// has a "layer" property and the marker style of its layer.
type GeoJSON struct {
	style Style
}

// NewGeoJSON returns a GeoJSON renderer.
func NewGeoJSON(style Style) *GeoJSON {
	return &GeoJSON{style: style.withDefaults()}
}

// ContentType implements Renderer.
func (g *GeoJSON) ContentType() string { return "application/geo+json" }

// Extension implements Renderer.
func (g *GeoJSON) Extension() string { return ".geojson" }

// Render implements Renderer.
func (g *GeoJSON) Render(_ context.Context, w io.Writer, res *pipeline.Result) error {
	if res == nil {
		return eris.New("render: nil result")
	}

	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(res.Stores)+len(res.Competitors)),
	}
	for _, sr := range res.Stores {
		props := map[string]interface{}{
			"layer":          LayerStores,
			"store_name":     sr.Store.Name,
			"city":           sr.Store.City,
			"address":        sr.Store.Address,
			"zip":            sr.Store.PostalCode,
			"average_income": sr.Store.AverageIncome,
			"marker-color":   g.style.StoreColor,
			"marker-size":    g.style.StoreSize,
		}
		for _, c := range sr.Counts {
			props[model.ColumnName(c.RadiusMiles)] = c.Count
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geo.LonLat(sr.DisplayLon, sr.DisplayLat).Geom(),
			Properties: props,
		})
	}
	for _, cr := range res.Competitors {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geo.LonLat(cr.DisplayLon, cr.DisplayLat).Geom(),
			Properties: map[string]interface{}{
				"layer":           LayerCompetitors,
				"competitor_name": cr.Competitor.Name,
				"address":         cr.Competitor.Address,
				"zip":             cr.Competitor.PostalCode,
				"marker-color":    g.style.CompetitorColor,
				"marker-size":     g.style.CompetitorSize,
			},
		})
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "render: geojson marshal")
	}
	if _, err := w.Write(b); err != nil {
		return eris.Wrap(err, "render: geojson write")
	}
	return nil
}
