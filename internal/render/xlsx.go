package render

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/competitor-map/internal/model"
	"github.com/sells-group/competitor-map/internal/pipeline"
)

// Sheet names of the XLSX export.
const (
	SheetStores      = "Stores"
	SheetCompetitors = "Competitors"
	SheetRejections  = "Rejections"
)

// XLSX renders the result as a workbook with one sheet per record type.
type XLSX struct{}

// NewXLSX returns an XLSX renderer.
func NewXLSX() *XLSX { return &XLSX{} }

// ContentType implements Renderer.
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (XLSX) Extension() string { return ".xlsx" }

// Render implements Renderer.
func (XLSX) Render(_ context.Context, w io.Writer, res *pipeline.Result) error {
	if res == nil {
		return eris.New("render: nil result")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", SheetStores); err != nil {
		return eris.Wrap(err, "render: xlsx rename sheet")
	}
	for _, name := range []string{SheetCompetitors, SheetRejections} {
		if _, err := f.NewSheet(name); err != nil {
			return eris.Wrapf(err, "render: xlsx new sheet %s", name)
		}
	}

	storeHeader := []interface{}{
		"STORE_NAME", "CITY", "ADDRESS", "ZIP", "LONGITUDE", "LATITUDE",
		"POTENTIAL_MARKET", "AVERAGE_INCOME",
	}
	for _, r := range res.RadiiMiles {
		storeHeader = append(storeHeader, model.ColumnName(r))
	}
	storeRows := make([][]interface{}, 0, len(res.Stores))
	for _, sr := range res.Stores {
		row := []interface{}{
			sr.Store.Name, sr.Store.City, sr.Store.Address, sr.Store.PostalCode,
			sr.DisplayLon, sr.DisplayLat, sr.Store.PotentialMarket, sr.Store.AverageIncome,
		}
		for _, c := range sr.Counts {
			row = append(row, c.Count)
		}
		storeRows = append(storeRows, row)
	}
	if err := writeSheet(f, SheetStores, storeHeader, storeRows); err != nil {
		return err
	}

	compRows := make([][]interface{}, 0, len(res.Competitors))
	for _, cr := range res.Competitors {
		compRows = append(compRows, []interface{}{
			cr.Competitor.Name, cr.Competitor.Address, cr.Competitor.PostalCode,
			cr.DisplayLon, cr.DisplayLat,
		})
	}
	if err := writeSheet(f, SheetCompetitors,
		[]interface{}{"COMPETITOR_NAME", "ADDRESS", "ZIP", "LONGITUDE", "LATITUDE"},
		compRows,
	); err != nil {
		return err
	}

	rejRows := make([][]interface{}, 0, len(res.Rejections))
	for _, rej := range res.Rejections {
		rejRows = append(rejRows, []interface{}{string(rej.Kind), rej.Name, rej.Row, rej.Reason})
	}
	if err := writeSheet(f, SheetRejections,
		[]interface{}{"KIND", "NAME", "ROW", "REASON"},
		rejRows,
	); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "render: xlsx write")
	}
	return nil
}

// writeSheet streams a header and rows into sheet.
func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return eris.Wrapf(err, "render: xlsx stream writer %s", sheet)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return eris.Wrapf(err, "render: xlsx header %s", sheet)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "render: xlsx cell name")
		}
		if err := sw.SetRow(cell, row); err != nil {
			return eris.Wrapf(err, "render: xlsx row %d of %s", i+2, sheet)
		}
	}
	return eris.Wrapf(sw.Flush(), "render: xlsx flush %s", sheet)
}
