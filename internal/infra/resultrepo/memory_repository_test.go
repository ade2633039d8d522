package resultrepo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
)

func TestMemoryRepositorySaveGet(t *testing.T) {
	repo := NewMemoryRepository(0)
	res := survey.Result{ID: uuid.New(), HeatData: heatmap.Reading{ZoneType: "park"}}

	_, ok, err := repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Save(context.Background(), res))
	got, ok, err := repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "park", got.HeatData.ZoneType)
}

func TestMemoryRepositoryEvictsOldest(t *testing.T) {
	repo := NewMemoryRepository(2)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, repo.Save(context.Background(), survey.Result{ID: id}))
	}
	// Re-saving an existing id does not grow the history.
	require.NoError(t, repo.Save(context.Background(), survey.Result{ID: ids[2]}))

	_, ok, _ := repo.Get(context.Background(), ids[0])
	require.False(t, ok)
	for _, id := range ids[1:] {
		_, ok, _ := repo.Get(context.Background(), id)
		require.True(t, ok)
	}
}

func TestResultPayloadOmitsSession(t *testing.T) {
	res := survey.Result{ID: uuid.New(), SessionID: "secret", CreatedAt: time.Unix(0, 0).UTC()}
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
	require.Contains(t, string(raw), `"buildingFeatures":null`)
}
