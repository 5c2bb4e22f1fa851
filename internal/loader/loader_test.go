package loader

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func createTestShapefile(t *testing.T, fields []string, points []shp.Point, attrs [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	shpFields := make([]shp.Field, len(fields))
	for i, name := range fields {
		shpFields[i] = shp.StringField(name, 64)
	}
	require.NoError(t, w.SetFields(shpFields))

	for i := range points {
		n := w.Write(&points[i])
		for j, val := range attrs[i] {
			require.NoError(t, w.WriteAttribute(int(n), j, val))
		}
	}
	w.Close()

	// go-shp's Writer names the attribute file "<base>dbf" while the Reader
	// opens "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")
	return path
}

const storesCSV = `STORE_NAME,ADDRESS,CITY,ZIP,LONGITUDE,LATITUDE,POTENTIAL_MARKET,AVERAGE_INCOME
Loop Flagship,100 W Madison St,CHICAGO,60602,-87.6298,41.8781,"$1,250,000","$72,500.50"
Evanston,1600 Sherman Ave Evanston IL 60201,evanston,,-87.6877,42.0451,900000,61000
Broken,1 Nowhere Rd,springfield,62701,,abc,,
`

const competitorsCSV = `competitor_name,address,longitude,latitude
Rival A,200 N State St Chicago IL 60601,-87.6278,41.8851
Rival B,No zip here,-87.7000,41.9000
`

func TestLoad_CSV(t *testing.T) {
	ds, err := Load(context.Background(), Sources{
		Stores:      Source{Path: writeFile(t, "stores.csv", storesCSV)},
		Competitors: Source{Path: writeFile(t, "competitors.csv", competitorsCSV)},
	}, Options{})
	require.NoError(t, err)

	require.Len(t, ds.Stores, 3)
	loop := ds.Stores[0]
	assert.Equal(t, "Loop Flagship", loop.Name)
	assert.Equal(t, "Chicago", loop.City)
	assert.Equal(t, "60602", loop.PostalCode)
	assert.InDelta(t, -87.6298, loop.Longitude, 1e-9)
	assert.InDelta(t, 41.8781, loop.Latitude, 1e-9)
	assert.InDelta(t, 1250000.0, loop.PotentialMarket, 1e-9)
	assert.InDelta(t, 72500.50, loop.AverageIncome, 1e-9)
	assert.Equal(t, 2, loop.Row)

	evanston := ds.Stores[1]
	assert.Equal(t, "Evanston", evanston.City)
	assert.Equal(t, "60201", evanston.PostalCode, "blank ZIP falls back to the address")

	broken := ds.Stores[2]
	assert.True(t, math.IsNaN(broken.Longitude))
	assert.True(t, math.IsNaN(broken.Latitude))
	assert.Zero(t, broken.PotentialMarket)

	require.Len(t, ds.Competitors, 2)
	assert.Equal(t, "Rival A", ds.Competitors[0].Name)
	assert.Equal(t, "60601", ds.Competitors[0].PostalCode)
	assert.Empty(t, ds.Competitors[1].PostalCode)
}

func TestLoad_CSVWithByteOrderMark(t *testing.T) {
	path := writeFile(t, "c.csv", "\ufeffCOMPETITOR_NAME,ADDRESS,LONGITUDE,LATITUDE\nRival A,200 N State St Chicago IL 60601,-87.6278,41.8851\n")

	comps, err := LoadCompetitors(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "Rival A", comps[0].Name)
	assert.Equal(t, "60601", comps[0].PostalCode)
}

func TestLoad_TSV(t *testing.T) {
	path := writeFile(t, "stores.tsv", "STORE_NAME\tCITY\tADDRESS\tLONGITUDE\tLATITUDE\nLoop, Flagship\tchicago\t100 W Madison St\t-87.6298\t41.8781\n")

	stores, err := LoadStores(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "Loop, Flagship", stores[0].Name)
	assert.Equal(t, "Chicago", stores[0].City)
	assert.InDelta(t, 41.8781, stores[0].Latitude, 1e-9)
}

func TestLoad_CustomExtractor(t *testing.T) {
	ds, err := Load(context.Background(), Sources{
		Stores:      Source{Path: writeFile(t, "stores.csv", storesCSV)},
		Competitors: Source{Path: writeFile(t, "competitors.csv", competitorsCSV)},
	}, Options{ExtractPostal: func(string) (string, bool) { return "00000", true }})
	require.NoError(t, err)

	assert.Equal(t, "60602", ds.Stores[0].PostalCode)
	assert.Equal(t, "00000", ds.Stores[1].PostalCode)
	assert.Equal(t, "00000", ds.Competitors[1].PostalCode)
}

func TestLoad_SkipsBlankRows(t *testing.T) {
	path := writeFile(t, "competitors.csv", "COMPETITOR_NAME,LONGITUDE,LATITUDE\nA,-87.6,41.8\n,,\nB,-87.7,41.9\n")
	comps, err := LoadCompetitors(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "B", comps[1].Name)
	assert.Equal(t, 4, comps[1].Row)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	_, err := Load(context.Background(), Sources{
		Stores:      Source{Path: missing},
		Competitors: Source{Path: missing},
	}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), missing)
}

func TestLoad_MissingColumns(t *testing.T) {
	path := writeFile(t, "stores.csv", "STORE_NAME,CITY\nA,Chicago\n")
	_, err := LoadStores(context.Background(), Source{Path: path}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), "LATITUDE, LONGITUDE")
	assert.Contains(t, err.Error(), path)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "stores.csv", "")
	_, err := LoadStores(context.Background(), Source{Path: path}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "stores.json", "[]")
	_, err := LoadStores(context.Background(), Source{Path: path}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := LoadStores(context.Background(), Source{}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, "stores.csv", storesCSV)
	_, err := LoadStores(ctx, Source{Path: path}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
}

func TestLoad_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Stores": {
			{"Store_Name", "City", "Longitude", "Latitude", "Average_Income"},
			{"Loop", "CHICAGO", "-87.6298", "41.8781", "70000"},
		},
	})

	stores, err := LoadStores(context.Background(), Source{Path: path, Sheet: "Stores"}, Options{})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "Loop", stores[0].Name)
	assert.Equal(t, "Chicago", stores[0].City)
	assert.InDelta(t, -87.6298, stores[0].Longitude, 1e-9)
	assert.InDelta(t, 70000.0, stores[0].AverageIncome, 1e-9)

	// First sheet when unnamed.
	stores, err = LoadStores(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	assert.Len(t, stores, 1)
}

func TestLoad_XLSXMissingSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Stores": {{"STORE_NAME", "LONGITUDE", "LATITUDE"}},
	})
	_, err := LoadStores(context.Background(), Source{Path: path, Sheet: "Other"}, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataLoad))
	assert.Contains(t, err.Error(), `"Other"`)
}

func TestLoad_ShapefileGeometry(t *testing.T) {
	path := createTestShapefile(t,
		[]string{"NAME", "ADDRESS"},
		[]shp.Point{{X: -87.6278, Y: 41.8851}, {X: -87.70, Y: 41.90}},
		[][]string{
			{"Rival A", "200 N State St Chicago IL 60601"},
			{"Rival B", "Somewhere"},
		},
	)

	comps, err := LoadCompetitors(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "Rival A", comps[0].Name)
	assert.Equal(t, "60601", comps[0].PostalCode)
	assert.InDelta(t, -87.6278, comps[0].Longitude, 1e-9)
	assert.InDelta(t, 41.8851, comps[0].Latitude, 1e-9)
	assert.InDelta(t, -87.70, comps[1].Longitude, 1e-9)
}

func TestLoad_ShapefileAttributeCoordinates(t *testing.T) {
	path := createTestShapefile(t,
		[]string{"NAME", "LON", "LAT"},
		[]shp.Point{{X: 0, Y: 0}},
		[][]string{{"Rival A", "-87.6", "41.8"}},
	)

	comps, err := LoadCompetitors(context.Background(), Source{Path: path}, Options{})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.InDelta(t, -87.6, comps[0].Longitude, 1e-9)
	assert.InDelta(t, 41.8, comps[0].Latitude, 1e-9)
}

func TestTableIndex(t *testing.T) {
	tbl := &table{header: []string{" Store_Name ", "lng", "LAT"}}

	i, ok := tbl.index(storeNameColumns)
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = tbl.index(longitudeColumns)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = tbl.index(cityColumns)
	assert.False(t, ok)
}

func TestParseCoord(t *testing.T) {
	assert.InDelta(t, -87.5, parseCoord("-87.5"), 1e-12)
	assert.True(t, math.IsNaN(parseCoord("")))
	assert.True(t, math.IsNaN(parseCoord("north")))
}

func TestReadCSV_RaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", "A,B,C\n1,2\n3,4,5,6\n")
	tbl, err := readCSV(context.Background(), path, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, tbl.header)
	require.Len(t, tbl.rows, 2)
	assert.Equal(t, "", cell(tbl.rows[0], 2))
	assert.Equal(t, "5", cell(tbl.rows[1], 2))
}

func TestStreamCSV_Delimiter(t *testing.T) {
	rowCh, errCh := streamCSV(context.Background(), strings.NewReader("a|b\nc|d\n"), csvOptions{Delimiter: '|'})
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rows)
}
