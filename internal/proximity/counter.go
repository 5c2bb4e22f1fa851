package proximity

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-map/internal/geo"
	"github.com/sells-group/competitor-map/internal/model"
)

// Counter counts competitors within a radius of a store point.
type Counter interface {
	// Count returns the number of competitors whose point lies within
	// radiusMiles of store, boundary included.
	Count(store geo.Point, radiusMiles float64) (int, error)
}

// Options configures counter construction.
type Options struct {
	// RequireCompetitors turns an empty competitor set into
	// ErrEmptyCompetitorSet instead of a zero count.
	RequireCompetitors bool
}

// Kind names a Counter implementation.
type Kind string

// Counter kinds.
const (
	KindNaive Kind = "naive"
	KindRTree Kind = "rtree"
)

// New builds a counter of the given kind over competitors. All competitor
// points must share one projected frame.
func New(kind Kind, competitors []geo.Point, opts Options) (Counter, error) {
	switch kind {
	case KindNaive, "":
		return NewNaiveCounter(competitors, opts)
	case KindRTree:
		return NewIndexedCounter(competitors, opts)
	}
	return nil, eris.Errorf("proximity: unknown counter kind %q", kind)
}

func checkCompetitorFrames(competitors []geo.Point) error {
	if len(competitors) == 0 {
		return nil
	}
	first := competitors[0]
	for _, c := range competitors {
		if err := sameProjectedFrame(first, c); err != nil {
			return eris.Wrap(err, "proximity: competitor frame")
		}
	}
	return nil
}

// checkStoreFrame rejects store points that are not in a metric frame, even
// when there is nothing to count against.
func checkStoreFrame(store geo.Point) error {
	if !store.Frame.IsProjected() {
		return eris.Wrapf(geo.ErrFrameMismatch, "store point in %s is not in a metric frame", store.Frame)
	}
	return nil
}

func (o Options) precheck(store geo.Point, competitors []geo.Point, radiusMiles float64) (bool, error) {
	if err := checkRadius(radiusMiles); err != nil {
		return false, err
	}
	if err := checkStoreFrame(store); err != nil {
		return false, err
	}
	if len(competitors) == 0 {
		if o.RequireCompetitors {
			return false, ErrEmptyCompetitorSet
		}
		return false, nil
	}
	if err := sameProjectedFrame(store, competitors[0]); err != nil {
		return false, err
	}
	return true, nil
}

// NaiveCounter scans every competitor for every query.
type NaiveCounter struct {
	competitors []geo.Point
	opts        Options
}

// NewNaiveCounter returns a pairwise-scan counter.
func NewNaiveCounter(competitors []geo.Point, opts Options) (*NaiveCounter, error) {
	if err := checkCompetitorFrames(competitors); err != nil {
		return nil, err
	}
	return &NaiveCounter{competitors: competitors, opts: opts}, nil
}

// Count implements Counter.
func (c *NaiveCounter) Count(store geo.Point, radiusMiles float64) (int, error) {
	ok, err := c.opts.precheck(store, c.competitors, radiusMiles)
	if !ok {
		return 0, err
	}

	r := MilesToMeters(radiusMiles)
	n := 0
	for _, p := range c.competitors {
		if within(store, p, r) {
			n++
		}
	}
	return n, nil
}

// searchPad widens the R-tree query square; rtreego treats touching
// rectangles as disjoint and the exact predicate decides anyway.
const searchPad = 1.0

// pointExtent is the side of the rectangle stored for each competitor.
const pointExtent = 1e-3

type competitorItem struct {
	rect  rtreego.Rect
	point geo.Point
}

func (c *competitorItem) Bounds() rtreego.Rect {
	return c.rect
}

// IndexedCounter prefilters competitors with an R-tree before applying the
// same closed-disk predicate as NaiveCounter, so both return equal counts.
type IndexedCounter struct {
	tree  *rtreego.Rtree
	size  int
	frame geo.Frame
	opts  Options
}

// NewIndexedCounter builds an R-tree over the competitor points.
func NewIndexedCounter(competitors []geo.Point, opts Options) (*IndexedCounter, error) {
	if err := checkCompetitorFrames(competitors); err != nil {
		return nil, err
	}

	// dim = 2, min/max children per node = 25/50
	tree := rtreego.NewTree(2, 25, 50)
	for _, p := range competitors {
		rect, err := rtreego.NewRect(rtreego.Point{p.X, p.Y}, []float64{pointExtent, pointExtent})
		if err != nil {
			return nil, eris.Wrap(err, "proximity: competitor rect")
		}
		tree.Insert(&competitorItem{rect: rect, point: p})
	}

	ic := &IndexedCounter{
		tree: tree,
		size: len(competitors),
		opts: opts,
	}
	if len(competitors) > 0 {
		ic.frame = competitors[0].Frame
	}
	return ic, nil
}

// Count implements Counter.
func (c *IndexedCounter) Count(store geo.Point, radiusMiles float64) (int, error) {
	if err := checkRadius(radiusMiles); err != nil {
		return 0, err
	}
	if err := checkStoreFrame(store); err != nil {
		return 0, err
	}
	if c.size == 0 {
		if c.opts.RequireCompetitors {
			return 0, ErrEmptyCompetitorSet
		}
		return 0, nil
	}
	if err := sameProjectedFrame(store, geo.Point{Frame: c.frame}); err != nil {
		return 0, err
	}

	r := MilesToMeters(radiusMiles)
	side := 2 * (r + searchPad)
	search, err := rtreego.NewRect(
		rtreego.Point{store.X - r - searchPad, store.Y - r - searchPad},
		[]float64{side, side},
	)
	if err != nil {
		return 0, eris.Wrap(err, "proximity: search rect")
	}

	n := 0
	for _, s := range c.tree.SearchIntersect(search) {
		if within(store, s.(*competitorItem).point, r) {
			n++
		}
	}
	return n, nil
}

// CountAll evaluates every radius for one store. radii should already be
// validated by ValidateRadii.
func CountAll(c Counter, store geo.Point, radii []float64) ([]model.RadiusCount, error) {
	counts := make([]model.RadiusCount, 0, len(radii))
	for _, r := range radii {
		n, err := c.Count(store, r)
		if err != nil {
			return nil, err
		}
		counts = append(counts, model.RadiusCount{RadiusMiles: r, Count: n})
	}
	return counts, nil
}

// Count is the single-shot form: competitors within radiusMiles of store
// using a pairwise scan. An empty competitor set yields zero.
func Count(store geo.Point, competitors []geo.Point, radiusMiles float64) (int, error) {
	c, err := NewNaiveCounter(competitors, Options{})
	if err != nil {
		return 0, err
	}
	return c.Count(store, radiusMiles)
}
