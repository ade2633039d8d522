package survey

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
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

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	if f.putErr != nil {
		return StoredObject{}, f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType}, nil
}

func (f *fakeStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeSessions struct {
	mu      sync.Mutex
	states  map[string]SessionState
	getErr  error
	saveErr error
}

func (f *fakeSessions) Get(_ context.Context, id string) (SessionState, bool, error) {
	if f.getErr != nil {
		return SessionState{}, false, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[id]
	// Widen the read-modify-write window so unserialized updates would collide.
	time.Sleep(time.Millisecond)
	return state, ok, nil
}

func (f *fakeSessions) Save(_ context.Context, id string, state SessionState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = state
	return nil
}

type fakeResults struct {
	mu      sync.Mutex
	items   map[uuid.UUID]Result
	saveErr error
}

func (f *fakeResults) Save(_ context.Context, result Result) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[result.ID] = result
	return nil
}

func (f *fakeResults) Get(_ context.Context, id uuid.UUID) (Result, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.items[id]
	return res, ok, nil
}

type fixture struct {
	svc      *Service
	storage  *fakeStorage
	sessions *fakeSessions
	results  *fakeResults
}

func newFixture(t *testing.T, cfg Config) fixture {
	t.Helper()
	cat, err := heatzone.Load([]byte(catalogJSON))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adv := advisor.NewService(advisor.Config{DefaultGridSize: 4, Workers: 2}, cat, logger)

	f := fixture{
		storage:  newFakeStorage(),
		sessions: &fakeSessions{states: make(map[string]SessionState)},
		results:  &fakeResults{items: make(map[uuid.UUID]Result)},
	}
	f.svc = NewService(cfg, adv, f.storage, f.sessions, f.results, logger)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadStoresBlobAndRemembersFeatures(t *testing.T) {
	f := newFixture(t, Config{})
	data := pngBytes(t, 20, 10, color.Black)

	resp, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "my plan.PNG", Content: data})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, strings.HasPrefix(resp.ImageKey, "uploads/sess-1/"))
	require.True(t, strings.HasSuffix(resp.ImageKey, "/my_plan.PNG"))
	require.Equal(t, 20, resp.ImageInfo.Width)
	require.Equal(t, 2.0, resp.ImageInfo.AspectRatio)
	require.Equal(t, building.AbsorptionHigh, resp.BuildingFeatures.HeatAbsorption)

	require.Contains(t, f.storage.objects, resp.ImageKey)
	state := f.sessions.states["sess-1"]
	require.NotNil(t, state.LastFeatures)
	require.Equal(t, resp.BuildingFeatures, *state.LastFeatures)
	require.Equal(t, resp.ImageKey, state.ImageKey)
}

func TestUploadDecodeFailureStoresNothing(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "plan.png", Content: []byte("definitely not a png")})
	require.True(t, apperrors.IsCode(err, apperrors.CodeImageDecode))
	require.Empty(t, f.storage.objects)
	require.Empty(t, f.sessions.states)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, Config{MaxFileBytes: 512})
	data := pngBytes(t, 2, 2, color.White)
	require.LessOrEqual(t, len(data), 512)

	cases := []struct {
		name    string
		session string
		req     UploadRequest
		code    string
	}{
		{"missing session", "", UploadRequest{Filename: "a.png", Content: data}, apperrors.CodeInvalidSession},
		{"empty", "s", UploadRequest{Filename: "a.png"}, apperrors.CodeInvalidInput},
		{"too large", "s", UploadRequest{Filename: "a.png", Content: make([]byte, 513)}, apperrors.CodePayloadTooLarge},
		{"wrong extension", "s", UploadRequest{Filename: "a.txt", Content: data}, apperrors.CodeInvalidInput},
		{"no extension", "s", UploadRequest{Filename: "plan", Content: data}, apperrors.CodeInvalidInput},
	}
	for _, tc := range cases {
		_, err := f.svc.Upload(context.Background(), tc.session, tc.req)
		require.True(t, apperrors.IsCode(err, tc.code), tc.name)
	}
	require.Empty(t, f.storage.objects)
}

func TestUploadReplacesPreviousSchematic(t *testing.T) {
	f := newFixture(t, Config{})
	first, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: pngBytes(t, 4, 4, color.Black)})
	require.NoError(t, err)
	second, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "b.png", Content: pngBytes(t, 4, 4, color.White)})
	require.NoError(t, err)

	require.Equal(t, []string{first.ImageKey}, f.storage.deleted)
	require.Contains(t, f.storage.objects, second.ImageKey)
	require.Equal(t, building.AbsorptionLow, f.sessions.states["sess-1"].LastFeatures.HeatAbsorption)
}

func TestUploadStorageFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.storage.putErr = errors.New("bucket offline")

	_, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: pngBytes(t, 4, 4, color.Black)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Empty(t, f.sessions.states)
}

func TestUploadSessionFailureDiscardsNewBlob(t *testing.T) {
	cases := map[string]func(f fixture){
		"load fails": func(f fixture) { f.sessions.getErr = errors.New("cache down") },
		"save fails": func(f fixture) { f.sessions.saveErr = errors.New("cache down") },
	}
	for name, breakStore := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Config{})
			breakStore(f)

			_, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: pngBytes(t, 4, 4, color.Black)})
			require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
			require.Empty(t, f.storage.objects)
			require.Len(t, f.storage.deleted, 1)
			require.True(t, strings.HasPrefix(f.storage.deleted[0], "uploads/sess-1/"))
		})
	}
}

func TestConcurrentSessionUpdatesKeepBothFields(t *testing.T) {
	f := newFixture(t, Config{})
	data := pngBytes(t, 4, 4, color.Black)
	size := 1

	for i := 0; i < 10; i++ {
		sessionID := "sess-" + strings.Repeat("x", i)
		var (
			wg                    sync.WaitGroup
			result                Result
			uploadErr, analyzeErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, uploadErr = f.svc.Upload(context.Background(), sessionID, UploadRequest{Filename: "a.png", Content: data})
		}()
		go func() {
			defer wg.Done()
			result, analyzeErr = f.svc.AnalyzeLocation(context.Background(), sessionID, LocationRequest{Latitude: 1.3, Longitude: 103.8, GridSize: &size})
		}()
		wg.Wait()
		require.NoError(t, uploadErr)
		require.NoError(t, analyzeErr)

		state := f.sessions.states[sessionID]
		require.NotEmpty(t, state.ImageKey)
		require.NotNil(t, state.LastFeatures)
		require.NotNil(t, state.LatestResultID)
		require.Equal(t, result.ID, *state.LatestResultID)
	}
}

func TestCurrentSchematic(t *testing.T) {
	f := newFixture(t, Config{})
	data := pngBytes(t, 4, 4, color.Black)

	_, err := f.svc.CurrentSchematic(context.Background(), "sess-1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.CurrentSchematic(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	up, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: data})
	require.NoError(t, err)

	schematic, err := f.svc.CurrentSchematic(context.Background(), "sess-1")
	require.NoError(t, err)
	defer schematic.Content.Close()
	require.Equal(t, up.ImageKey, schematic.Key)
	require.Equal(t, "image/png", schematic.MimeType)
	got, err := io.ReadAll(schematic.Content)
	require.NoError(t, err)
	require.Equal(t, data, got)

	delete(f.storage.objects, up.ImageKey)
	_, err = f.svc.CurrentSchematic(context.Background(), "sess-1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
}

func TestAnalyzeLocationWithoutFeatures(t *testing.T) {
	f := newFixture(t, Config{})

	res, err := f.svc.AnalyzeLocation(context.Background(), "", LocationRequest{Latitude: 1.3, Longitude: 103.8})
	require.NoError(t, err)
	require.Nil(t, res.BuildingFeatures)
	require.Equal(t, "industrial", res.HeatData.ZoneType)
	require.Equal(t, 64.0, res.Recommendations.SuitabilityScore)
	require.Len(t, res.HeatmapData, 16)
	require.Contains(t, f.results.items, res.ID)
	require.Empty(t, f.sessions.states)
}

func TestAnalyzeLocationUsesSessionFeatures(t *testing.T) {
	f := newFixture(t, Config{})
	up, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: pngBytes(t, 4, 4, color.Black)})
	require.NoError(t, err)

	size := 2
	res, err := f.svc.AnalyzeLocation(context.Background(), "sess-1", LocationRequest{Latitude: 1.4, Longitude: 103.9, GridSize: &size})
	require.NoError(t, err)
	require.NotNil(t, res.BuildingFeatures)
	require.Equal(t, up.BuildingFeatures, *res.BuildingFeatures)
	require.Len(t, res.HeatmapData, 4)

	latest, err := f.svc.LatestResult(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, res.ID, latest.ID)

	byID, err := f.svc.GetResult(context.Background(), res.ID)
	require.NoError(t, err)
	require.Equal(t, res.Recommendations, byID.Recommendations)
}

func TestAnalyzeLocationExplicitFeaturesWin(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.Upload(context.Background(), "sess-1", UploadRequest{Filename: "a.png", Content: pngBytes(t, 4, 4, color.Black)})
	require.NoError(t, err)

	explicit := &building.Features{
		EstimatedSize:    building.SizeLarge,
		SizeFactor:       1.3,
		HeatAbsorption:   building.AbsorptionHigh,
		AbsorptionFactor: 1.4,
		DesignQuality:    building.DesignAdvanced,
		DesignFactor:     0.8,
	}
	res, err := f.svc.AnalyzeLocation(context.Background(), "sess-1", LocationRequest{Latitude: 1.4, Longitude: 103.9, BuildingFeatures: explicit})
	require.NoError(t, err)
	require.Equal(t, *explicit, *res.BuildingFeatures)
	// park: 100 - 0.2*40 - 3 - 6 + 2
	require.Equal(t, 85.0, res.Recommendations.SuitabilityScore)
}

func TestAnalyzeLocationRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.AnalyzeLocation(context.Background(), "s", LocationRequest{Latitude: 1.3, Longitude: 103.8, BuildingFeatures: &building.Features{}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = f.svc.AnalyzeLocation(context.Background(), "s", LocationRequest{Latitude: 120, Longitude: 103.8})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Empty(t, f.results.items)
}

func TestAnalyzeLocationPersistFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.results.saveErr = errors.New("db down")

	_, err := f.svc.AnalyzeLocation(context.Background(), "s", LocationRequest{Latitude: 1.3, Longitude: 103.8})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
}

func TestAnalyzeLocationSessionUpdateFailureKeepsResult(t *testing.T) {
	f := newFixture(t, Config{})
	f.sessions.saveErr = errors.New("cache down")

	res, err := f.svc.AnalyzeLocation(context.Background(), "s", LocationRequest{Latitude: 1.3, Longitude: 103.8})
	require.NoError(t, err)
	require.Contains(t, f.results.items, res.ID)
}

func TestResultLookupsNotFound(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.LatestResult(context.Background(), "sess-1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.LatestResult(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = f.svc.GetResult(context.Background(), uuid.New())
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "plan_v2.png", sanitizeFilename(" plan v2.png "))
	require.Equal(t, "evil.png", sanitizeFilename("../../etc/evil.png"))
	require.Equal(t, "evil.png", sanitizeFilename(`..\..\evil.png`))
	require.Equal(t, "schematic", sanitizeFilename(""))
}
