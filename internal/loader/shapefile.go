package loader

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// readShapefile loads a point shapefile. DBF attributes become columns and
// the point geometry is appended as LONGITUDE/LATITUDE unless the DBF
// already carries coordinate columns.
func readShapefile(path string) (*table, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "shapefile: open")
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	t := &table{header: make([]string, 0, len(fields)+2)}
	for _, f := range fields {
		t.header = append(t.header, strings.TrimRight(f.String(), "\x00"))
	}

	_, hasLon := t.index(longitudeColumns)
	_, hasLat := t.index(latitudeColumns)
	useGeometry := !hasLon || !hasLat
	if useGeometry {
		t.header = append(t.header, "LONGITUDE", "LATITUDE")
	}

	for reader.Next() {
		n, shape := reader.Shape()

		row := make([]string, 0, len(t.header))
		for i := range fields {
			row = append(row, strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00")))
		}

		if useGeometry {
			lon, lat := "", ""
			if p, ok := shape.(*shp.Point); ok {
				lon = strconv.FormatFloat(p.X, 'f', -1, 64)
				lat = strconv.FormatFloat(p.Y, 'f', -1, 64)
			} else {
				zap.L().Warn("shapefile: non-point shape, coordinates left blank",
					zap.String("path", path),
					zap.Int("shape", n),
				)
			}
			row = append(row, lon, lat)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}
