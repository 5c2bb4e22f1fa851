package render

import (
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/competitor-map/internal/model"
	"github.com/sells-group/competitor-map/internal/pipeline"
)

// Style holds the presentation settings of the map.
type Style struct {
	Title             string
	Zoom              int
	Width             int
	Height            int
	StoreColor        string
	StoreSize         int
	StoreOpacity      float64
	CompetitorColor   string
	CompetitorSize    int
	CompetitorOpacity float64
}

// DefaultStyle returns the stock map look.
func DefaultStyle() Style {
	return Style{
		Title:             "Stores with Local Competitors",
		Zoom:              8,
		Width:             1400,
		Height:            1000,
		StoreColor:        "#1f77b4",
		StoreSize:         15,
		StoreOpacity:      0.9,
		CompetitorColor:   "#ff7f0e",
		CompetitorSize:    10,
		CompetitorOpacity: 0.8,
	}
}

// withDefaults fills zero fields from DefaultStyle.
func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.Title == "" {
		s.Title = d.Title
	}
	if s.Zoom <= 0 {
		s.Zoom = d.Zoom
	}
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	if s.StoreColor == "" {
		s.StoreColor = d.StoreColor
	}
	if s.StoreSize <= 0 {
		s.StoreSize = d.StoreSize
	}
	if s.StoreOpacity <= 0 {
		s.StoreOpacity = d.StoreOpacity
	}
	if s.CompetitorColor == "" {
		s.CompetitorColor = d.CompetitorColor
	}
	if s.CompetitorSize <= 0 {
		s.CompetitorSize = d.CompetitorSize
	}
	if s.CompetitorOpacity <= 0 {
		s.CompetitorOpacity = d.CompetitorOpacity
	}
	return s
}

// Marker is one point on the map.
type Marker struct {
	Lon   float64  `json:"lon"`
	Lat   float64  `json:"lat"`
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Layer is a group of markers drawn with one look.
type Layer struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Size    int      `json:"size"`
	Opacity float64  `json:"opacity"`
	Markers []Marker `json:"markers"`
}

// MapView is the two-layer view model shared by the renderers.
type MapView struct {
	Title       string  `json:"title"`
	RunID       string  `json:"run_id"`
	Frame       string  `json:"frame"`
	CenterLon   float64 `json:"center_lon"`
	CenterLat   float64 `json:"center_lat"`
	Zoom        int     `json:"zoom"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Stores      Layer   `json:"stores"`
	Competitors Layer   `json:"competitors"`
}

// NewMapView builds the view of res. Hover lines for stores carry one line
// per computed radius.
func NewMapView(res *pipeline.Result, style Style) (*MapView, error) {
	if res == nil {
		return nil, eris.New("render: nil result")
	}
	style = style.withDefaults()
	p := message.NewPrinter(language.English)

	v := &MapView{
		Title:  style.Title,
		RunID:  res.RunID,
		Frame:  res.Frame.String(),
		Zoom:   style.Zoom,
		Width:  style.Width,
		Height: style.Height,
		Stores: Layer{
			Name:    "Stores",
			Color:   style.StoreColor,
			Size:    style.StoreSize,
			Opacity: style.StoreOpacity,
			Markers: make([]Marker, 0, len(res.Stores)),
		},
		Competitors: Layer{
			Name:    "Competitors",
			Color:   style.CompetitorColor,
			Size:    style.CompetitorSize,
			Opacity: style.CompetitorOpacity,
			Markers: make([]Marker, 0, len(res.Competitors)),
		},
	}

	for _, sr := range res.Stores {
		v.Stores.Markers = append(v.Stores.Markers, Marker{
			Lon:   sr.DisplayLon,
			Lat:   sr.DisplayLat,
			Title: sr.Store.City,
			Lines: storeLines(p, sr),
		})
	}
	for _, cr := range res.Competitors {
		v.Competitors.Markers = append(v.Competitors.Markers, Marker{
			Lon:   cr.DisplayLon,
			Lat:   cr.DisplayLat,
			Title: cr.Competitor.Name,
			Lines: []string{
				"Address: " + cr.Competitor.Address,
				"ZIP: " + cr.Competitor.PostalCode,
			},
		})
	}

	v.CenterLon, v.CenterLat = center(v.Stores.Markers, v.Competitors.Markers)
	return v, nil
}

func storeLines(p *message.Printer, sr model.StoreResult) []string {
	lines := []string{
		"Store Name: " + sr.Store.Name,
		"Address: " + sr.Store.Address,
		"ZIP: " + sr.Store.PostalCode,
		p.Sprintf("Avg Income: $%d", int64(math.Round(sr.Store.AverageIncome))),
	}
	for _, c := range sr.Counts {
		lines = append(lines, p.Sprintf("Competitors within %s miles: %d", c.Label(), c.Count))
	}
	return lines
}

// center is the mean store position, or the mean competitor position when
// there are no stores.
func center(stores, competitors []Marker) (lon, lat float64) {
	pts := stores
	if len(pts) == 0 {
		pts = competitors
	}
	if len(pts) == 0 {
		return 0, 0
	}
	for _, m := range pts {
		lon += m.Lon
		lat += m.Lat
	}
	n := float64(len(pts))
	return lon / n, lat / n
}
