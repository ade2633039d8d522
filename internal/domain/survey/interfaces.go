package survey

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/suitability"
)

// Advisor is the subset of the heat advisory surface the workflow needs.
type Advisor interface {
	ResolveHeat(ctx context.Context, lat, lng float64) (heatmap.Reading, error)
	GenerateHeatGrid(ctx context.Context, req advisor.GridRequest) ([]heatmap.Cell, error)
	AnalyzeBuildingImage(ctx context.Context, data []byte) (building.Analysis, error)
	BuildRecommendations(reading heatmap.Reading, features *building.Features) suitability.Result
}

// ObjectStorage abstracts blob storage (R2/S3/memory).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// SessionStore keeps per-session state between requests.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (SessionState, bool, error)
	Save(ctx context.Context, sessionID string, state SessionState) error
}

// ResultRepository persists analysis results.
type ResultRepository interface {
	Save(ctx context.Context, result Result) error
	Get(ctx context.Context, id uuid.UUID) (Result, bool, error)
}
