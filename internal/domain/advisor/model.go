package advisor

import "github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"

// GridRequest asks for a heat grid around a centre point.
// Nil GridSize or Radius fall back to the configured defaults.
type GridRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	GridSize  *int     `json:"gridSize,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// Config wires runtime limits for the advisor domain.
type Config struct {
	DefaultGridSize int
	DefaultRadius   float64
	MaxGridSize     int
	MaxRadius       float64
	Workers         int
	MaxPixels       int
}

func (c Config) withDefaults() Config {
	if c.DefaultGridSize <= 0 {
		c.DefaultGridSize = heatmap.DefaultGridSize
	}
	if c.DefaultRadius <= 0 {
		c.DefaultRadius = heatmap.DefaultGridRadius
	}
	if c.MaxGridSize <= 0 {
		c.MaxGridSize = 100
	}
	if c.MaxGridSize < c.DefaultGridSize {
		c.MaxGridSize = c.DefaultGridSize
	}
	if c.MaxRadius <= 0 {
		c.MaxRadius = 5
	}
	return c
}
