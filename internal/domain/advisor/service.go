package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
	"github.com/yanqian/urban-heat-advisor/internal/domain/suitability"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

// Service is the stateless heat advisory surface.
type Service interface {
	ResolveHeat(ctx context.Context, lat, lng float64) (heatmap.Reading, error)
	GenerateHeatGrid(ctx context.Context, req GridRequest) ([]heatmap.Cell, error)
	AnalyzeBuildingImage(ctx context.Context, data []byte) (building.Analysis, error)
	BuildRecommendations(reading heatmap.Reading, features *building.Features) suitability.Result
	ZoneNames() []string
}

type service struct {
	cfg     Config
	catalog *heatzone.Catalog
	logger  *slog.Logger
	newRand func() heatmap.Source
}

// NewService wires up the advisor domain around a loaded catalog.
func NewService(cfg Config, catalog *heatzone.Catalog, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg.withDefaults(),
		catalog: catalog,
		logger:  logger.With("component", "advisor.service"),
		newRand: clockSource,
	}
}

func clockSource() heatmap.Source {
	return heatmap.NewSource(uint64(time.Now().UnixNano()))
}

func (s *service) ResolveHeat(ctx context.Context, lat, lng float64) (heatmap.Reading, error) {
	if err := ctx.Err(); err != nil {
		return heatmap.Reading{}, err
	}
	if err := ValidateCoordinate(lat, lng); err != nil {
		return heatmap.Reading{}, err
	}
	reading, err := heatmap.Resolve(s.catalog, lat, lng, s.newRand())
	if err != nil {
		s.logger.Error("heat resolve failed", "lat", lat, "lng", lng, "error", err)
		return heatmap.Reading{}, err
	}
	s.logger.Debug("heat resolved", "zone", reading.ZoneType, "temperature", reading.Temperature)
	return reading, nil
}

func (s *service) GenerateHeatGrid(ctx context.Context, req GridRequest) ([]heatmap.Cell, error) {
	if err := ValidateCoordinate(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	opts, err := s.gridOptions(req.GridSize, req.Radius)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	cells, err := heatmap.GenerateGrid(ctx, s.catalog, req.Latitude, req.Longitude, opts, s.newRand())
	if err != nil {
		return nil, err
	}
	s.logger.Info("heat grid generated",
		"size", opts.Size,
		"radius", opts.Radius,
		"cells", len(cells),
		"latency_ms", time.Since(started).Milliseconds(),
	)
	return cells, nil
}

func (s *service) AnalyzeBuildingImage(ctx context.Context, data []byte) (building.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return building.Analysis{}, err
	}
	analysis, err := building.Analyze(data, s.cfg.MaxPixels)
	if err != nil {
		s.logger.Warn("building image rejected", "bytes", len(data), "error", err)
		return building.Analysis{}, err
	}
	s.logger.Info("building image analyzed",
		"width", analysis.Statistics.Width,
		"height", analysis.Statistics.Height,
		"size", analysis.Features.EstimatedSize,
		"absorption", analysis.Features.HeatAbsorption,
	)
	return analysis, nil
}

// BuildRecommendations always derives the risk tier from the heat index; a caller
// supplied tier is ignored.
func (s *service) BuildRecommendations(reading heatmap.Reading, features *building.Features) suitability.Result {
	reading.RiskLevel = heatmap.RiskLevelFor(reading.HeatIndex)
	return suitability.Score(reading, features)
}

func (s *service) ZoneNames() []string {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.ZoneNames()
}

func (s *service) gridOptions(size *int, radius *float64) (heatmap.GridOptions, error) {
	opts := heatmap.GridOptions{
		Size:    s.cfg.DefaultGridSize,
		Radius:  s.cfg.DefaultRadius,
		Workers: s.cfg.Workers,
	}
	if size != nil {
		if *size < 1 || *size > s.cfg.MaxGridSize {
			return opts, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("gridSize must be between 1 and %d", s.cfg.MaxGridSize), nil)
		}
		opts.Size = *size
	}
	if radius != nil {
		r := *radius
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 || r > s.cfg.MaxRadius {
			return opts, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("radius must be greater than 0 and at most %g degrees", s.cfg.MaxRadius), nil)
		}
		opts.Radius = r
	}
	return opts, nil
}

// ValidateCoordinate rejects non-finite or out-of-range coordinates.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "latitude must be a finite number between -90 and 90", nil)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "longitude must be a finite number between -180 and 180", nil)
	}
	return nil
}
