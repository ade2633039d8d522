package advisor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
	"github.com/yanqian/urban-heat-advisor/internal/domain/suitability"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

const catalogJSON = `{
	"heatZones": {
		"industrial": {"baseTemperature": 38, "heatIndex": 0.9, "description": "Factories"},
		"park": {"baseTemperature": 29, "heatIndex": 0.2, "description": "Green"}
	},
	"sampleLocations": [
		{"latitude": 1.30, "longitude": 103.80, "zone": "industrial"},
		{"latitude": 1.40, "longitude": 103.90, "zone": "park"}
	]
}`

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func newTestService(t *testing.T, cfg Config) *service {
	t.Helper()
	cat, err := heatzone.Load([]byte(catalogJSON))
	require.NoError(t, err)
	return &service{
		cfg:     cfg.withDefaults(),
		catalog: cat,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newRand: func() heatmap.Source { return fixedSource(0.5) },
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestResolveHeatNearestZone(t *testing.T) {
	svc := newTestService(t, Config{})

	reading, err := svc.ResolveHeat(context.Background(), 1.31, 103.81)
	require.NoError(t, err)
	require.Equal(t, "industrial", reading.ZoneType)
	require.Equal(t, 38.0, reading.Temperature)
	require.Equal(t, 0.9, reading.HeatIndex)
	require.Equal(t, heatmap.RiskHigh, reading.RiskLevel)
	require.Equal(t, "Factories", reading.ZoneDescription)
}

func TestResolveHeatRejectsInvalidCoordinates(t *testing.T) {
	svc := newTestService(t, Config{})
	cases := [][2]float64{
		{91, 0},
		{-90.1, 0},
		{0, 180.5},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, c := range cases {
		_, err := svc.ResolveHeat(context.Background(), c[0], c[1])
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), "lat=%v lng=%v", c[0], c[1])
	}

	_, err := svc.ResolveHeat(context.Background(), 90, -180)
	require.NoError(t, err)
}

func TestResolveHeatWithoutCatalog(t *testing.T) {
	svc := newTestService(t, Config{})
	svc.catalog = nil

	_, err := svc.ResolveHeat(context.Background(), 0, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeZoneLookup))
	require.Nil(t, svc.ZoneNames())
}

func TestGenerateHeatGridDefaults(t *testing.T) {
	svc := newTestService(t, Config{DefaultGridSize: 4, DefaultRadius: 0.1, Workers: 2})

	cells, err := svc.GenerateHeatGrid(context.Background(), GridRequest{Latitude: 1.3, Longitude: 103.8})
	require.NoError(t, err)
	require.Len(t, cells, 16)
	require.InDelta(t, 1.2, cells[0].Lat, 1e-12)
	require.InDelta(t, 103.7, cells[0].Lng, 1e-12)
}

func TestGenerateHeatGridOverrides(t *testing.T) {
	svc := newTestService(t, Config{})

	cells, err := svc.GenerateHeatGrid(context.Background(), GridRequest{
		Latitude:  1.3,
		Longitude: 103.8,
		GridSize:  intPtr(3),
		Radius:    floatPtr(0.3),
	})
	require.NoError(t, err)
	require.Len(t, cells, 9)
	for _, cell := range cells {
		require.Contains(t, []float64{0.9, 0.2}, cell.Intensity)
	}
}

func TestGenerateHeatGridValidation(t *testing.T) {
	svc := newTestService(t, Config{MaxGridSize: 30, MaxRadius: 1})
	cases := map[string]GridRequest{
		"zero size":     {GridSize: intPtr(0)},
		"oversize":      {GridSize: intPtr(31)},
		"negative":      {Radius: floatPtr(-0.1)},
		"zero radius":   {Radius: floatPtr(0)},
		"too wide":      {Radius: floatPtr(1.5)},
		"nan radius":    {Radius: floatPtr(math.NaN())},
		"bad latitude":  {Latitude: 100},
		"bad longitude": {Longitude: -200},
	}
	for name, req := range cases {
		_, err := svc.GenerateHeatGrid(context.Background(), req)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), name)
	}

	cells, err := svc.GenerateHeatGrid(context.Background(), GridRequest{GridSize: intPtr(30), Radius: floatPtr(1)})
	require.NoError(t, err)
	require.Len(t, cells, 900)
}

func TestGenerateHeatGridCancelled(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GenerateHeatGrid(ctx, GridRequest{Latitude: 1.3, Longitude: 103.8})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBuildingImage(t *testing.T) {
	svc := newTestService(t, Config{})
	img := image.NewNRGBA(image.Rect(0, 0, 30, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	analysis, err := svc.AnalyzeBuildingImage(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 3.0, analysis.Statistics.AspectRatio)
	require.Equal(t, building.ColorLight, analysis.Statistics.DominantColor)
	require.Equal(t, building.AbsorptionLow, analysis.Features.HeatAbsorption)

	_, err = svc.AnalyzeBuildingImage(context.Background(), []byte("not an image"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeImageDecode))
}

func TestAnalyzeBuildingImagePixelLimit(t *testing.T) {
	svc := newTestService(t, Config{MaxPixels: 100})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 20))))

	_, err := svc.AnalyzeBuildingImage(context.Background(), buf.Bytes())
	require.True(t, apperrors.IsCode(err, apperrors.CodePayloadTooLarge))
}

func TestBuildRecommendationsEndToEnd(t *testing.T) {
	svc := newTestService(t, Config{})
	reading, err := svc.ResolveHeat(context.Background(), 1.3, 103.8)
	require.NoError(t, err)

	res := svc.BuildRecommendations(reading, nil)
	require.Equal(t, 64.0, res.SuitabilityScore)
	require.Equal(t, suitability.VerdictGood, res.Verdict)
	require.True(t, res.IsAdvisable)
	require.Equal(t, heatmap.RiskHigh, res.HeatRiskLevel)
	require.Equal(t, "Critical", res.Recommendations[0].Category)
	require.Equal(t, []string{"industrial", "park"}, svc.ZoneNames())
}

func TestBuildRecommendationsDerivesRiskLevel(t *testing.T) {
	svc := newTestService(t, Config{})
	cases := map[string]struct {
		reading heatmap.Reading
		want    heatmap.RiskLevel
	}{
		"contradicting tier": {heatmap.Reading{HeatIndex: 0.9, RiskLevel: heatmap.RiskLow}, heatmap.RiskHigh},
		"free text":          {heatmap.Reading{HeatIndex: 0.1, RiskLevel: "BANANA"}, heatmap.RiskLow},
		"missing tier":       {heatmap.Reading{HeatIndex: 0.6}, heatmap.RiskMedium},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, svc.BuildRecommendations(tc.reading, nil).HeatRiskLevel)
		})
	}
}
