// Package loader reads store and competitor tables from CSV, XLSX and point
// shapefiles.
package loader

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/competitor-map/internal/model"
)

// ErrDataLoad is returned when an input file is missing, unreadable or
// lacks required columns. The message names the failing path.
var ErrDataLoad = eris.New("data load failure")

// Source points at one input table.
type Source struct {
	Path  string
	Sheet string // xlsx only; empty selects the first sheet
}

// Sources names the two input tables.
type Sources struct {
	Stores      Source
	Competitors Source
}

// Options tunes record parsing.
type Options struct {
	// ExtractPostal derives competitor postal codes, and store postal codes
	// when the ZIP column is blank. Defaults to ExtractPostalCode.
	ExtractPostal PostalExtractor
}

// Dataset is the loaded input of one pipeline run.
type Dataset struct {
	Stores      []model.Store
	Competitors []model.Competitor
}

// Column aliases, matched case-insensitively. DBF field names are capped at
// ten characters, hence the short forms.
var (
	storeNameColumns      = []string{"STORE_NAME", "NAME"}
	competitorNameColumns = []string{"COMPETITOR_NAME", "COMPETITOR", "NAME"}
	addressColumns        = []string{"ADDRESS", "ADDR"}
	cityColumns           = []string{"CITY"}
	postalColumns         = []string{"ZIP", "ZIP_CODE", "POSTAL_CODE"}
	longitudeColumns      = []string{"LONGITUDE", "LON", "LNG"}
	latitudeColumns       = []string{"LATITUDE", "LAT"}
	marketColumns         = []string{"POTENTIAL_MARKET", "POT_MARKET"}
	incomeColumns         = []string{"AVERAGE_INCOME", "AVG_INCOME"}
)

// table is a header plus string rows, independent of the file format.
type table struct {
	header []string
	rows   [][]string
}

// index returns the position of the first header matching any alias.
func (t *table) index(aliases []string) (int, bool) {
	for _, alias := range aliases {
		for i, h := range t.header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i, true
			}
		}
	}
	return -1, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Load reads both tables. Any failure is fatal and wraps ErrDataLoad.
func Load(ctx context.Context, src Sources, opts Options) (*Dataset, error) {
	if opts.ExtractPostal == nil {
		opts.ExtractPostal = ExtractPostalCode
	}

	stores, err := LoadStores(ctx, src.Stores, opts)
	if err != nil {
		return nil, err
	}
	competitors, err := LoadCompetitors(ctx, src.Competitors, opts)
	if err != nil {
		return nil, err
	}

	zap.L().Info("loader: input loaded",
		zap.String("stores_path", src.Stores.Path),
		zap.Int("stores", len(stores)),
		zap.String("competitors_path", src.Competitors.Path),
		zap.Int("competitors", len(competitors)),
	)
	return &Dataset{Stores: stores, Competitors: competitors}, nil
}

// LoadStores reads the store table.
func LoadStores(ctx context.Context, src Source, opts Options) ([]model.Store, error) {
	t, err := readTable(ctx, src)
	if err != nil {
		return nil, err
	}

	cols, err := requireColumns(t, src.Path, map[string][]string{
		"store name": storeNameColumns,
		"longitude":  longitudeColumns,
		"latitude":   latitudeColumns,
	})
	if err != nil {
		return nil, err
	}
	address, _ := t.index(addressColumns)
	city, _ := t.index(cityColumns)
	postal, _ := t.index(postalColumns)
	market, _ := t.index(marketColumns)
	income, _ := t.index(incomeColumns)

	extract := opts.ExtractPostal
	if extract == nil {
		extract = ExtractPostalCode
	}
	title := cases.Title(language.English)
	log := zap.L().With(zap.String("component", "loader"), zap.String("path", src.Path))

	stores := make([]model.Store, 0, len(t.rows))
	for i, row := range t.rows {
		if blankRow(row) {
			continue
		}
		s := model.Store{
			Name:            cell(row, cols["store name"]),
			City:            title.String(strings.ToLower(cell(row, city))),
			Address:         cell(row, address),
			PostalCode:      cell(row, postal),
			Longitude:       parseCoord(cell(row, cols["longitude"])),
			Latitude:        parseCoord(cell(row, cols["latitude"])),
			PotentialMarket: parseAmount(log, cell(row, market)),
			AverageIncome:   parseAmount(log, cell(row, income)),
			Row:             i + 2, // 1-based, after the header
		}
		if s.PostalCode == "" {
			s.PostalCode, _ = extract(s.Address)
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// LoadCompetitors reads the competitor table and derives postal codes from
// the address text.
func LoadCompetitors(ctx context.Context, src Source, opts Options) ([]model.Competitor, error) {
	t, err := readTable(ctx, src)
	if err != nil {
		return nil, err
	}

	cols, err := requireColumns(t, src.Path, map[string][]string{
		"competitor name": competitorNameColumns,
		"longitude":       longitudeColumns,
		"latitude":        latitudeColumns,
	})
	if err != nil {
		return nil, err
	}
	address, _ := t.index(addressColumns)

	extract := opts.ExtractPostal
	if extract == nil {
		extract = ExtractPostalCode
	}

	competitors := make([]model.Competitor, 0, len(t.rows))
	for i, row := range t.rows {
		if blankRow(row) {
			continue
		}
		c := model.Competitor{
			Name:      cell(row, cols["competitor name"]),
			Address:   cell(row, address),
			Longitude: parseCoord(cell(row, cols["longitude"])),
			Latitude:  parseCoord(cell(row, cols["latitude"])),
			Row:       i + 2,
		}
		c.PostalCode, _ = extract(c.Address)
		competitors = append(competitors, c)
	}
	return competitors, nil
}

func readTable(ctx context.Context, src Source) (*table, error) {
	if src.Path == "" {
		return nil, eris.Wrap(ErrDataLoad, "input path is empty")
	}

	var (
		t   *table
		err error
	)
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".csv", ".txt":
		t, err = readCSV(ctx, src.Path, ',')
	case ".tsv":
		t, err = readCSV(ctx, src.Path, '\t')
	case ".xlsx":
		t, err = readXLSX(src.Path, src.Sheet)
	case ".shp":
		t, err = readShapefile(src.Path)
	default:
		return nil, eris.Wrapf(ErrDataLoad, "%s: unsupported file type", src.Path)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrDataLoad, "%s: %v", src.Path, err)
	}
	return t, nil
}

func requireColumns(t *table, path string, required map[string][]string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	var missing []string
	for name, aliases := range required {
		i, ok := t.index(aliases)
		if !ok {
			missing = append(missing, aliases[0])
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, eris.Wrapf(ErrDataLoad, "%s: missing required columns %s", path, strings.Join(missing, ", "))
	}
	return idx, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCoord parses a coordinate. Blank or malformed values become NaN so
// the projector rejects them instead of placing the record at (0, 0).
func parseCoord(val string) float64 {
	if val == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// parseAmount parses money-like values such as "$54,321.50". Blank values
// are zero.
func parseAmount(log *zap.Logger, val string) float64 {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(val)
	if clean == "" {
		return 0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		log.Debug("loader: unparseable amount", zap.String("value", val))
		return 0
	}
	return f
}
