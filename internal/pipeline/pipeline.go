// Package pipeline runs one analysis: project the loaded records, count
// competitors around every store and collect display positions.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/competitor-map/internal/geo"
	"github.com/sells-group/competitor-map/internal/loader"
	"github.com/sells-group/competitor-map/internal/model"
	"github.com/sells-group/competitor-map/internal/proximity"
)

// DefaultRadiiMiles are the bucket radii used when none are configured.
var DefaultRadiiMiles = []float64{5, 7, 10}

// MaxDistortion is the largest relative planar vs great-circle error across
// the data extent that a run accepts. Above it, distances in the frame are no
// longer close enough to meters for the radius counts to hold.
const MaxDistortion = 0.01

// ErrFrameDistortion is returned when the projected extent exceeds
// MaxDistortion.
var ErrFrameDistortion = eris.New("frame distorts the data extent")

const defaultWorkers = 1

// Options configures a run.
type Options struct {
	RadiiMiles         []float64
	Frame              geo.Frame // 0 picks the UTM zone of the data extent
	Index              proximity.Kind
	RequireCompetitors bool
	Workers            int
}

// RejectionKind names the record type a rejection refers to.
type RejectionKind string

// Rejection kinds.
const (
	RejectedStore      RejectionKind = "store"
	RejectedCompetitor RejectionKind = "competitor"
)

// Rejection is a record dropped because its coordinates could not be used.
type Rejection struct {
	Kind   RejectionKind `json:"kind" yaml:"kind"`
	Name   string        `json:"name" yaml:"name"`
	Row    int           `json:"row" yaml:"row"`
	Reason string        `json:"reason" yaml:"reason"`
}

// Phase records the wall time of one pipeline step.
type Phase struct {
	Name       string `json:"name" yaml:"name"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Result is the outcome of a run. It is read-only once returned.
type Result struct {
	RunID       string                   `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time                `json:"started_at" yaml:"started_at"`
	Frame       geo.Frame                `json:"frame" yaml:"frame"`
	RadiiMiles  []float64                `json:"radii_miles" yaml:"radii_miles"`
	Distortion  float64                  `json:"distortion" yaml:"distortion"`
	Stores      []model.StoreResult      `json:"stores" yaml:"stores"`
	Competitors []model.CompetitorResult `json:"competitors" yaml:"competitors"`
	Rejections  []Rejection              `json:"rejections" yaml:"rejections"`
	Phases      []Phase                  `json:"phases" yaml:"phases"`
}

// projected pairs a record index with its planar position.
type projected struct {
	idx int
	pt  geo.Point
}

// Run executes the analysis over ds. Invalid radii and an unusable frame are
// fatal; records with invalid coordinates are dropped and reported in
// Result.Rejections.
func Run(ctx context.Context, ds *loader.Dataset, opts Options) (*Result, error) {
	if ds == nil {
		return nil, eris.New("pipeline: nil dataset")
	}

	res := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run",
		zap.Int("stores", len(ds.Stores)),
		zap.Int("competitors", len(ds.Competitors)),
	)

	track := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		d := time.Since(start)
		res.Phases = append(res.Phases, Phase{Name: name, DurationMs: d.Milliseconds()})
		if err != nil {
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Duration("elapsed", d), zap.Error(err))
			return err
		}
		log.Debug("pipeline: phase complete", zap.String("phase", name), zap.Duration("elapsed", d))
		return nil
	}

	radii := opts.RadiiMiles
	if len(radii) == 0 {
		radii = DefaultRadiiMiles
	}
	if err := track("validate_radii", func() error {
		var err error
		res.RadiiMiles, err = proximity.ValidateRadii(radii)
		return err
	}); err != nil {
		return nil, err
	}

	if err := track("select_frame", func() error {
		var err error
		res.Frame, err = selectFrame(ds, opts.Frame)
		return err
	}); err != nil {
		return nil, err
	}
	proj, err := geo.NewProjector(res.Frame)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: projector")
	}

	var stores, competitors []projected
	if err := track("project", func() error {
		var err error
		stores, competitors, err = project(ctx, proj, ds, res)
		return err
	}); err != nil {
		return nil, err
	}
	for _, rej := range res.Rejections {
		log.Warn("pipeline: record rejected",
			zap.String("kind", string(rej.Kind)),
			zap.String("name", rej.Name),
			zap.Int("row", rej.Row),
			zap.String("reason", rej.Reason),
		)
	}

	res.Distortion = extentDistortion(proj, stores, competitors)
	if res.Distortion > MaxDistortion {
		log.Error("pipeline: frame distorts the data extent",
			zap.Stringer("frame", res.Frame),
			zap.Float64("distortion", res.Distortion),
		)
		return nil, eris.Wrapf(ErrFrameDistortion,
			"pipeline: %s is off by %.2f%% across the data, set projection.epsg or split the input",
			res.Frame, res.Distortion*100)
	}

	if err := track("count", func() error {
		return count(ctx, ds, opts, stores, competitors, res)
	}); err != nil {
		return nil, err
	}

	if err := track("display", func() error {
		return display(proj, ds, stores, competitors, res)
	}); err != nil {
		return nil, err
	}

	log.Info("pipeline: run complete",
		zap.Stringer("frame", res.Frame),
		zap.Int("stores", len(res.Stores)),
		zap.Int("competitors", len(res.Competitors)),
		zap.Int("rejected", len(res.Rejections)),
	)
	return res, nil
}

// selectFrame returns the configured frame, or the UTM zone of the extent
// of every store and competitor position.
func selectFrame(ds *loader.Dataset, configured geo.Frame) (geo.Frame, error) {
	if configured != 0 {
		if !configured.IsProjected() {
			return 0, eris.Errorf("pipeline: frame %s is not a projected UTM frame", configured)
		}
		return configured, nil
	}

	pts := make([]geo.Point, 0, len(ds.Stores)+len(ds.Competitors))
	for _, s := range ds.Stores {
		pts = append(pts, geo.LonLat(s.Longitude, s.Latitude))
	}
	for _, c := range ds.Competitors {
		pts = append(pts, geo.LonLat(c.Longitude, c.Latitude))
	}
	f, err := geo.FrameForExtent(pts)
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: select frame")
	}
	return f, nil
}

// project moves every record into the planar frame. Records that cannot be
// projected, including those too far from the frame's zone, become
// rejections.
func project(ctx context.Context, proj *geo.Projector, ds *loader.Dataset, res *Result) (stores, competitors []projected, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	stores = make([]projected, 0, len(ds.Stores))
	for i, s := range ds.Stores {
		pt, err := proj.Forward(geo.LonLat(s.Longitude, s.Latitude))
		if err != nil {
			res.Rejections = append(res.Rejections, Rejection{
				Kind: RejectedStore, Name: s.Name, Row: s.Row, Reason: err.Error(),
			})
			continue
		}
		stores = append(stores, projected{idx: i, pt: pt})
	}

	competitors = make([]projected, 0, len(ds.Competitors))
	for i, c := range ds.Competitors {
		pt, err := proj.Forward(geo.LonLat(c.Longitude, c.Latitude))
		if err != nil {
			res.Rejections = append(res.Rejections, Rejection{
				Kind: RejectedCompetitor, Name: c.Name, Row: c.Row, Reason: err.Error(),
			})
			continue
		}
		competitors = append(competitors, projected{idx: i, pt: pt})
	}
	return stores, competitors, nil
}

// extentDistortion measures the frame error across the diagonal of the
// projected bounding box.
func extentDistortion(proj *geo.Projector, groups ...[]projected) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, g := range groups {
		for _, p := range g {
			minX, maxX = math.Min(minX, p.pt.X), math.Max(maxX, p.pt.X)
			minY, maxY = math.Min(minY, p.pt.Y), math.Max(maxY, p.pt.Y)
			n++
		}
	}
	if n < 2 {
		return 0
	}
	frame := proj.Target()
	d, err := proj.Distortion(
		geo.Point{X: minX, Y: minY, Frame: frame},
		geo.Point{X: maxX, Y: maxY, Frame: frame},
	)
	if err != nil {
		return 0
	}
	return d
}

func count(ctx context.Context, ds *loader.Dataset, opts Options, stores, competitors []projected, res *Result) error {
	pts := make([]geo.Point, len(competitors))
	for i, c := range competitors {
		pts[i] = c.pt
	}
	counter, err := proximity.New(opts.Index, pts, proximity.Options{RequireCompetitors: opts.RequireCompetitors})
	if err != nil {
		return eris.Wrap(err, "pipeline: build counter")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	res.Stores = make([]model.StoreResult, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range stores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			counts, err := proximity.CountAll(counter, s.pt, res.RadiiMiles)
			if err != nil {
				return eris.Wrapf(err, "pipeline: count store %q", ds.Stores[s.idx].Name)
			}
			res.Stores[i] = model.StoreResult{Store: ds.Stores[s.idx], Counts: counts}
			return nil
		})
	}
	return g.Wait()
}

// display fills the on-map positions by inverse-projecting the planar
// positions used for counting.
func display(proj *geo.Projector, ds *loader.Dataset, stores, competitors []projected, res *Result) error {
	// res.Stores is index-aligned with stores.
	for i, s := range stores {
		ll, err := proj.Inverse(s.pt)
		if err != nil {
			return eris.Wrapf(err, "pipeline: display store %q", ds.Stores[s.idx].Name)
		}
		res.Stores[i].DisplayLon, res.Stores[i].DisplayLat = ll.Lon(), ll.Lat()
	}

	res.Competitors = make([]model.CompetitorResult, 0, len(competitors))
	for _, c := range competitors {
		ll, err := proj.Inverse(c.pt)
		if err != nil {
			return eris.Wrap(err, "pipeline: display competitor")
		}
		res.Competitors = append(res.Competitors, model.CompetitorResult{
			Competitor: ds.Competitors[c.idx],
			DisplayLon: ll.Lon(),
			DisplayLat: ll.Lat(),
		})
	}
	return nil
}
