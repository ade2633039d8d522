package survey

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/suitability"
)

// UploadRequest carries one building schematic.
type UploadRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

// UploadResponse echoes what was extracted from the schematic.
type UploadResponse struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	ImageKey         string              `json:"imageKey"`
	ImageInfo        building.Statistics `json:"imageInfo"`
	BuildingFeatures building.Features   `json:"buildingFeatures"`
}

// Schematic streams the session's current upload. Callers close Content.
type Schematic struct {
	Key      string
	MimeType string
	Content  io.ReadCloser
}

// LocationRequest asks for a full analysis at a coordinate.
// BuildingFeatures, when present, takes precedence over the session's last upload.
type LocationRequest struct {
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	BuildingFeatures *building.Features `json:"buildingFeatures,omitempty"`
	GridSize         *int               `json:"gridSize,omitempty"`
	Radius           *float64           `json:"radius,omitempty"`
}

// Result is a persisted location analysis.
type Result struct {
	ID               uuid.UUID          `json:"id"`
	SessionID        string             `json:"-"`
	HeatData         heatmap.Reading    `json:"heatData"`
	Recommendations  suitability.Result `json:"recommendations"`
	HeatmapData      []heatmap.Cell     `json:"heatmapData"`
	BuildingFeatures *building.Features `json:"buildingFeatures"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// SessionState is the per-session convenience state.
type SessionState struct {
	LastFeatures   *building.Features `json:"lastFeatures,omitempty"`
	ImageKey       string             `json:"imageKey,omitempty"`
	ImageMimeType  string             `json:"imageMimeType,omitempty"`
	LatestResultID *uuid.UUID         `json:"latestResultId,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Config wires upload limits.
type Config struct {
	MaxFileBytes      int64
	AllowedExtensions []string
}
