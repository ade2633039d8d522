package heatmap

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
)

// GenerateGrid resolves a Size×Size grid centred on (centerLat, centerLng).
// Cells are returned in row-major (i, j) order regardless of completion order.
// Every row draws jitter from its own generator seeded from rng before the
// fan-out, so the output is reproducible for a seeded rng and rows share no state.
func GenerateGrid(ctx context.Context, catalog *heatzone.Catalog, centerLat, centerLng float64, opts GridOptions, rng Source) ([]Cell, error) {
	opts = opts.withDefaults()
	size := opts.Size
	step := opts.Radius / float64(size) * 2

	seed := uint64(rng.Float64() * (1 << 53))
	cells := make([]Cell, size*size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < size; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rowRNG := NewSource(seed ^ uint64(i)*0x100000001b3)
			lat := centerLat + offset(i, size, step)
			for j := 0; j < size; j++ {
				lng := centerLng + offset(j, size, step)
				reading, err := Resolve(catalog, lat, lng, rowRNG)
				if err != nil {
					return err
				}
				cells[i*size+j] = Cell{Row: i, Col: j, Lat: lat, Lng: lng, Intensity: reading.HeatIndex}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cells, nil
}

// offset implements (k - size/2) * (radius/size) * 2 with real division.
func offset(k, size int, step float64) float64 {
	return (float64(k) - float64(size)/2) * step
}

func (o GridOptions) withDefaults() GridOptions {
	if o.Size <= 0 {
		o.Size = DefaultGridSize
	}
	if o.Radius <= 0 || math.IsNaN(o.Radius) || math.IsInf(o.Radius, 0) {
		o.Radius = DefaultGridRadius
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Workers > o.Size {
		o.Workers = o.Size
	}
	return o
}
