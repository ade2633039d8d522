package heatmap

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders grid cells as GeoJSON points with an intensity property.
func FeatureCollection(cells []Cell) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(cells))
	bounds := geom.NewBounds(geom.XY)
	for _, cell := range cells {
		point := geom.NewPointFlat(geom.XY, []float64{cell.Lng, cell.Lat})
		bounds.Extend(point)
		features = append(features, &geojson.Feature{
			Geometry: point,
			Properties: map[string]interface{}{
				"intensity": cell.Intensity,
				"row":       cell.Row,
				"col":       cell.Col,
			},
		})
	}
	fc := &geojson.FeatureCollection{Features: features}
	if len(cells) > 0 {
		fc.BBox = bounds
	}
	return fc
}
