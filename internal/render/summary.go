package render

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/competitor-map/internal/model"
	"github.com/sells-group/competitor-map/internal/pipeline"
)

// Summary is the tabular form of a result used by the YAML and JSON
// renderers. Each store row carries one competitors_within_<r> entry per
// radius.
type Summary struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time            `json:"started_at" yaml:"started_at"`
	Frame       string               `json:"frame" yaml:"frame"`
	RadiiMiles  []float64            `json:"radii_miles" yaml:"radii_miles"`
	Distortion  float64              `json:"distortion" yaml:"distortion"`
	Stores      []StoreRow           `json:"stores" yaml:"stores"`
	Competitors []CompetitorRow      `json:"competitors" yaml:"competitors"`
	Rejections  []pipeline.Rejection `json:"rejections" yaml:"rejections"`
}

// StoreRow is one store with its counts keyed by column name.
type StoreRow struct {
	Name          string         `json:"store_name" yaml:"store_name"`
	City          string         `json:"city" yaml:"city"`
	Address       string         `json:"address" yaml:"address"`
	PostalCode    string         `json:"zip" yaml:"zip"`
	Longitude     float64        `json:"longitude" yaml:"longitude"`
	Latitude      float64        `json:"latitude" yaml:"latitude"`
	AverageIncome float64        `json:"average_income" yaml:"average_income"`
	Market        float64        `json:"potential_market" yaml:"potential_market"`
	Counts        map[string]int `json:"counts" yaml:"counts"`
}

// CompetitorRow is one competitor at its display position.
type CompetitorRow struct {
	Name       string  `json:"competitor_name" yaml:"competitor_name"`
	Address    string  `json:"address" yaml:"address"`
	PostalCode string  `json:"zip" yaml:"zip"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
}

// NewSummary flattens res into a Summary.
func NewSummary(res *pipeline.Result) (*Summary, error) {
	if res == nil {
		return nil, eris.New("render: nil result")
	}
	s := &Summary{
		RunID:       res.RunID,
		StartedAt:   res.StartedAt,
		Frame:       res.Frame.String(),
		RadiiMiles:  res.RadiiMiles,
		Distortion:  res.Distortion,
		Stores:      make([]StoreRow, 0, len(res.Stores)),
		Competitors: make([]CompetitorRow, 0, len(res.Competitors)),
		Rejections:  res.Rejections,
	}
	if s.Rejections == nil {
		s.Rejections = []pipeline.Rejection{}
	}
	for _, sr := range res.Stores {
		counts := make(map[string]int, len(sr.Counts))
		for _, c := range sr.Counts {
			counts[model.ColumnName(c.RadiusMiles)] = c.Count
		}
		s.Stores = append(s.Stores, StoreRow{
			Name:          sr.Store.Name,
			City:          sr.Store.City,
			Address:       sr.Store.Address,
			PostalCode:    sr.Store.PostalCode,
			Longitude:     sr.DisplayLon,
			Latitude:      sr.DisplayLat,
			AverageIncome: sr.Store.AverageIncome,
			Market:        sr.Store.PotentialMarket,
			Counts:        counts,
		})
	}
	for _, cr := range res.Competitors {
		s.Competitors = append(s.Competitors, CompetitorRow{
			Name:       cr.Competitor.Name,
			Address:    cr.Competitor.Address,
			PostalCode: cr.Competitor.PostalCode,
			Longitude:  cr.DisplayLon,
			Latitude:   cr.DisplayLat,
		})
	}
	return s, nil
}

// YAML renders the run summary as YAML.
type YAML struct{}

// NewYAML returns a YAML renderer.
func NewYAML() *YAML { return &YAML{} }

// ContentType implements Renderer.
func (YAML) ContentType() string { return "application/yaml" }

// Extension implements Renderer.
func (YAML) Extension() string { return ".yaml" }

// Render implements Renderer.
func (YAML) Render(_ context.Context, w io.Writer, res *pipeline.Result) error {
	s, err := NewSummary(res)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "render: yaml encode")
	}
	return eris.Wrap(enc.Close(), "render: yaml close")
}

// JSON renders the run summary as indented JSON.
type JSON struct{}

// NewJSON returns a JSON renderer.
func NewJSON() *JSON { return &JSON{} }

// ContentType implements Renderer.
func (JSON) ContentType() string { return "application/json" }

// Extension implements Renderer.
func (JSON) Extension() string { return ".json" }

// Render implements Renderer.
func (JSON) Render(_ context.Context, w io.Writer, res *pipeline.Result) error {
	s, err := NewSummary(res)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "render: json encode")
	}
	return nil
}
