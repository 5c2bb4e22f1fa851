package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-map/internal/config"
	"github.com/sells-group/competitor-map/internal/geo"
	"github.com/sells-group/competitor-map/internal/loader"
	"github.com/sells-group/competitor-map/internal/pipeline"
	"github.com/sells-group/competitor-map/internal/proximity"
	"github.com/sells-group/competitor-map/internal/render"
)

// analyze loads the configured inputs and runs the pipeline.
func analyze(ctx context.Context, c *config.Config) (*pipeline.Result, error) {
	ds, err := loader.Load(ctx, loader.Sources{
		Stores:      loader.Source{Path: c.Input.Stores.Path, Sheet: c.Input.Stores.Sheet},
		Competitors: loader.Source{Path: c.Input.Competitors.Path, Sheet: c.Input.Competitors.Sheet},
	}, loader.Options{})
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, ds, pipelineOptions(c))
}

func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		RadiiMiles:         c.Proximity.RadiiMiles,
		Frame:              geo.Frame(c.Projection.EPSG),
		Index:              proximity.Kind(c.Proximity.Index),
		RequireCompetitors: c.Proximity.RequireCompetitors,
		Workers:            c.Proximity.Workers,
	}
}

func renderStyle(c *config.Config) render.Style {
	return render.Style{
		Title:           c.Render.Title,
		Zoom:            c.Render.Zoom,
		Width:           c.Render.Width,
		Height:          c.Render.Height,
		StoreColor:      c.Render.StoreColor,
		CompetitorColor: c.Render.CompetitorColor,
	}
}

// writeArtifact writes data to path, or to stdout when path is empty or
// "-". Files are written to a temp file and renamed into place.
func writeArtifact(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return eris.Wrap(err, "write stdout")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "rename to %s", path)
	}
	return nil
}
