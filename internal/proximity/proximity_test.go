package proximity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/competitor-map/internal/geo"
)

const utm16 = geo.Frame(32616)

func pt(x, y float64) geo.Point {
	return geo.Point{X: x, Y: y, Frame: utm16}
}

func project(t *testing.T, lon, lat float64) geo.Point {
	t.Helper()
	p, err := geo.NewProjector(utm16)
	require.NoError(t, err)
	out, err := p.Forward(geo.LonLat(lon, lat))
	require.NoError(t, err)
	return out
}

func TestMilesToMeters(t *testing.T) {
	assert.InDelta(t, 1609.34, MilesToMeters(1), 1e-9)
	assert.InDelta(t, 8046.7, MilesToMeters(5), 1e-9)
	assert.InDelta(t, 16093.4, MilesToMeters(10), 1e-9)
}

func TestWithin(t *testing.T) {
	center := pt(500000, 4600000)

	tests := []struct {
		name string
		p    geo.Point
		r    float64
		want bool
	}{
		{"same point", center, 1, true},
		{"boundary is inside", pt(503000, 4604000), 5000, true},
		{"just outside", pt(503000, 4604001), 5000, false},
		{"inside", pt(501000, 4600000), 5000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Within(center, tt.p, tt.r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithin_RejectsGeographicPoints(t *testing.T) {
	_, err := Within(geo.LonLat(-87.6, 41.8), geo.LonLat(-87.6, 41.8), 100)
	assert.ErrorIs(t, err, geo.ErrFrameMismatch)

	_, err = Within(pt(0, 0), geo.Point{Frame: 32617}, 100)
	assert.ErrorIs(t, err, geo.ErrFrameMismatch)
}

func TestWithin_InvalidRadius(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Within(pt(0, 0), pt(0, 0), r)
		assert.ErrorIs(t, err, ErrInvalidRadius, "radius %v", r)
	}
}

func TestCount_ChicagoExample(t *testing.T) {
	store := project(t, -87.6298, 41.8781)
	competitor := project(t, -87.6244, 41.8756)

	for _, r := range []float64{5, 7, 10} {
		n, err := Count(store, []geo.Point{competitor}, r)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "within %v miles", r)
	}
}

func TestCount_FifteenMilesAway(t *testing.T) {
	store := project(t, -87.6298, 41.8781)
	// 15 miles due north: 15 * 1609.34 m / ~111,080 m per degree.
	far := project(t, -87.6298, 41.8781+0.2173)

	for _, r := range []float64{5, 7, 10} {
		n, err := Count(store, []geo.Point{far}, r)
		require.NoError(t, err)
		assert.Zero(t, n, "within %v miles", r)
	}

	n, err := Count(store, []geo.Point{far}, 16)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCount_Reflexive(t *testing.T) {
	store := pt(447000, 4636000)
	for _, r := range []float64{1e-9, 0.5, 5, 100} {
		n, err := Count(store, []geo.Point{store}, r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
	}
}

func TestCount_EmptyCompetitors(t *testing.T) {
	store := pt(447000, 4636000)
	for _, r := range []float64{5, 7, 10} {
		n, err := Count(store, nil, r)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	strict, err := NewNaiveCounter(nil, Options{RequireCompetitors: true})
	require.NoError(t, err)
	_, err = strict.Count(store, 5)
	assert.ErrorIs(t, err, ErrEmptyCompetitorSet)

	strictIdx, err := NewIndexedCounter(nil, Options{RequireCompetitors: true})
	require.NoError(t, err)
	_, err = strictIdx.Count(store, 5)
	assert.ErrorIs(t, err, ErrEmptyCompetitorSet)
}

func TestCount_InvalidRadius(t *testing.T) {
	_, err := Count(pt(0, 0), []geo.Point{pt(1, 1)}, 0)
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = Count(pt(0, 0), nil, -5)
	assert.ErrorIs(t, err, ErrInvalidRadius, "radius is checked before the empty set shortcut")
}

func TestCount_FrameMismatch(t *testing.T) {
	_, err := Count(geo.LonLat(-87.6, 41.8), []geo.Point{pt(0, 0)}, 5)
	assert.ErrorIs(t, err, geo.ErrFrameMismatch)

	_, err = Count(geo.LonLat(-87.6, 41.8), nil, 5)
	assert.ErrorIs(t, err, geo.ErrFrameMismatch, "store frame is checked before the empty set shortcut")

	for _, kind := range []Kind{KindNaive, KindRTree} {
		c, err := New(kind, nil, Options{RequireCompetitors: true})
		require.NoError(t, err)
		_, err = c.Count(geo.LonLat(-87.6, 41.8), 5)
		assert.ErrorIs(t, err, geo.ErrFrameMismatch, kind)
	}

	_, err = NewNaiveCounter([]geo.Point{pt(0, 0), geo.LonLat(1, 1)}, Options{})
	assert.ErrorIs(t, err, geo.ErrFrameMismatch)
}

// grid returns competitors on a 2 km lattice around a center.
func grid() []geo.Point {
	var out []geo.Point
	for i := -12; i <= 12; i++ {
		for j := -12; j <= 12; j++ {
			out = append(out, pt(450000+float64(i)*2000, 4630000+float64(j)*2000))
		}
	}
	return out
}

func TestIndexedCounter_MatchesNaive(t *testing.T) {
	competitors := grid()
	naive, err := New(KindNaive, competitors, Options{})
	require.NoError(t, err)
	indexed, err := New(KindRTree, competitors, Options{})
	require.NoError(t, err)

	stores := []geo.Point{
		pt(450000, 4630000),
		pt(451234.5, 4629876.25),
		pt(470000, 4650000),
		pt(400000, 4600000),
	}
	for _, s := range stores {
		for _, r := range []float64{0.5, 1, 5, 7, 10, 25} {
			want, err := naive.Count(s, r)
			require.NoError(t, err)
			got, err := indexed.Count(s, r)
			require.NoError(t, err)
			assert.Equal(t, want, got, "store %+v radius %v", s, r)
		}
	}
}

func TestIndexedCounter_BoundaryPoint(t *testing.T) {
	center := pt(500000, 4600000)
	r := MilesToMeters(5)
	// Place a competitor on the square's edge at exactly r east.
	edge := pt(center.X+r, center.Y)

	c, err := NewIndexedCounter([]geo.Point{edge}, Options{})
	require.NoError(t, err)
	n, err := c.Count(center, 5)
	require.NoError(t, err)

	want, err := Count(center, []geo.Point{edge}, 5)
	require.NoError(t, err)
	assert.Equal(t, want, n)
}

func TestCountAll_Monotone(t *testing.T) {
	competitors := grid()
	c, err := New(KindRTree, competitors, Options{})
	require.NoError(t, err)

	radii, err := ValidateRadii([]float64{10, 5, 7, 1, 3})
	require.NoError(t, err)

	counts, err := CountAll(c, pt(451000, 4631000), radii)
	require.NoError(t, err)
	require.Len(t, counts, len(radii))
	for i := 1; i < len(counts); i++ {
		assert.Less(t, counts[i-1].RadiusMiles, counts[i].RadiusMiles)
		assert.LessOrEqual(t, counts[i-1].Count, counts[i].Count)
	}
}

func TestCountAll_Deterministic(t *testing.T) {
	competitors := grid()
	c, err := New(KindNaive, competitors, Options{})
	require.NoError(t, err)

	first, err := CountAll(c, pt(452000, 4633000), []float64{5, 7, 10})
	require.NoError(t, err)
	second, err := CountAll(c, pt(452000, 4633000), []float64{5, 7, 10})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateRadii(t *testing.T) {
	got, err := ValidateRadii([]float64{10, 5, 7, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 10}, got)

	_, err = ValidateRadii(nil)
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = ValidateRadii([]float64{5, 0})
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("kdtree", nil, Options{})
	assert.Error(t, err)
}
