package survey

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

// DefaultMaxFileBytes caps uploads at 16 MiB.
const DefaultMaxFileBytes int64 = 16 << 20

// DefaultAllowedExtensions lists accepted schematic formats.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp"}

const (
	sessionLockStripes = 64
	genericMimeType    = "application/octet-stream"
)

// Service orchestrates uploads, location analyses and result lookups on top of the advisor.
type Service struct {
	cfg      Config
	advisor  Advisor
	storage  ObjectStorage
	sessions SessionStore
	results  ResultRepository
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID

	// Session state is read-modify-write; stripes serialize updates per session
	// within this process.
	stateLocks [sessionLockStripes]sync.Mutex
}

// NewService constructs the survey workflow.
func NewService(cfg Config, adv Advisor, storage ObjectStorage, sessions SessionStore, results ResultRepository, logger *slog.Logger) *Service {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	return &Service{
		cfg:      cfg,
		advisor:  adv,
		storage:  storage,
		sessions: sessions,
		results:  results,
		logger:   logger.With("component", "survey.service"),
		now:      nowUTC,
		newID:    uuid.New,
	}
}

// Upload analyzes a schematic and, only when it decodes, stores it and remembers its features.
func (s *Service) Upload(ctx context.Context, sessionID string, req UploadRequest) (UploadResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeInvalidSession, "missing session", nil)
	}
	if len(req.Content) == 0 {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "no file uploaded", nil)
	}
	if int64(len(req.Content)) > s.cfg.MaxFileBytes {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodePayloadTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileBytes), nil)
	}
	filename := strings.TrimSpace(req.Filename)
	if !s.allowedFile(filename) {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid file type, allowed: "+strings.Join(s.cfg.AllowedExtensions, ", "), nil)
	}

	analysis, err := s.advisor.AnalyzeBuildingImage(ctx, req.Content)
	if err != nil {
		return UploadResponse{}, err
	}

	mime := req.MimeType
	if mime == "" || mime == genericMimeType {
		mime = http.DetectContentType(req.Content)
	}
	key := fmt.Sprintf("uploads/%s/%s/%s", sessionID, s.newID().String(), sanitizeFilename(filename))
	obj, err := s.storage.Put(ctx, key, req.Content, mime)
	if err != nil {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store schematic", err)
	}

	var previous string
	err = s.updateSession(ctx, sessionID, func(state *SessionState) {
		previous = state.ImageKey
		features := analysis.Features
		state.LastFeatures = &features
		state.ImageKey = obj.Key
		state.ImageMimeType = mime
	})
	if err != nil {
		s.discard(ctx, obj.Key)
		return UploadResponse{}, err
	}
	if previous != "" && previous != obj.Key {
		s.discard(ctx, previous)
	}

	s.logger.Info("schematic uploaded", "session", sessionID, "key", obj.Key, "bytes", obj.Size)
	return UploadResponse{
		Success:          true,
		Message:          "Building schematic analyzed successfully",
		ImageKey:         obj.Key,
		ImageInfo:        analysis.Statistics,
		BuildingFeatures: analysis.Features,
	}, nil
}

// AnalyzeLocation resolves heat, scores the site and renders the surrounding grid.
func (s *Service) AnalyzeLocation(ctx context.Context, sessionID string, req LocationRequest) (Result, error) {
	features, err := s.resolveFeatures(ctx, sessionID, req.BuildingFeatures)
	if err != nil {
		return Result{}, err
	}

	reading, err := s.advisor.ResolveHeat(ctx, req.Latitude, req.Longitude)
	if err != nil {
		return Result{}, err
	}
	cells, err := s.advisor.GenerateHeatGrid(ctx, advisor.GridRequest{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		GridSize:  req.GridSize,
		Radius:    req.Radius,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		ID:               s.newID(),
		SessionID:        sessionID,
		HeatData:         reading,
		Recommendations:  s.advisor.BuildRecommendations(reading, features),
		HeatmapData:      cells,
		BuildingFeatures: features,
		CreatedAt:        s.now(),
	}
	if err := s.results.Save(ctx, result); err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeStorage, "failed to persist result", err)
	}

	if sessionID != "" {
		s.markLatest(ctx, sessionID, result.ID)
	}
	s.logger.Info("location analyzed",
		"result_id", result.ID,
		"zone", reading.ZoneType,
		"score", result.Recommendations.SuitabilityScore,
		"with_features", features != nil,
	)
	return result, nil
}

// LatestResult returns the most recent analysis of a session.
func (s *Service) LatestResult(ctx context.Context, sessionID string) (Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeNotFound, "no results available", nil)
	}
	state, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load session", err)
	}
	if !ok || state.LatestResultID == nil {
		return Result{}, apperrors.Wrap(apperrors.CodeNotFound, "no results available", nil)
	}
	return s.GetResult(ctx, *state.LatestResultID)
}

// GetResult loads a persisted analysis by id.
func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (Result, error) {
	result, ok, err := s.results.Get(ctx, id)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load result", err)
	}
	if !ok {
		return Result{}, apperrors.Wrap(apperrors.CodeNotFound, "result not found", nil)
	}
	return result, nil
}

func (s *Service) resolveFeatures(ctx context.Context, sessionID string, explicit *building.Features) (*building.Features, error) {
	if explicit != nil {
		if err := explicit.Validate(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
		features := *explicit
		return &features, nil
	}
	if sessionID == "" {
		return nil, nil
	}
	state, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load session", err)
	}
	if !ok {
		return nil, nil
	}
	return state.LastFeatures, nil
}

// CurrentSchematic opens the schematic most recently uploaded in a session.
func (s *Service) CurrentSchematic(ctx context.Context, sessionID string) (Schematic, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Schematic{}, apperrors.Wrap(apperrors.CodeNotFound, "no schematic uploaded", nil)
	}
	state, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Schematic{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load session", err)
	}
	if !ok || state.ImageKey == "" {
		return Schematic{}, apperrors.Wrap(apperrors.CodeNotFound, "no schematic uploaded", nil)
	}
	content, err := s.storage.Get(ctx, state.ImageKey)
	if err != nil {
		return Schematic{}, apperrors.Wrap(apperrors.CodeStorage, "failed to read schematic", err)
	}
	mime := state.ImageMimeType
	if mime == "" {
		mime = genericMimeType
	}
	return Schematic{Key: state.ImageKey, MimeType: mime, Content: content}, nil
}

// markLatest records the result on the session. The result is already persisted,
// so a failure here only costs the /results shortcut.
func (s *Service) markLatest(ctx context.Context, sessionID string, id uuid.UUID) {
	err := s.updateSession(ctx, sessionID, func(state *SessionState) {
		state.LatestResultID = &id
	})
	if err != nil {
		s.logger.Warn("session update failed", "session", sessionID, "error", err)
	}
}

// updateSession applies mutate to the stored state under the session's stripe lock.
// Across replicas sharing one session store the last write still wins.
func (s *Service) updateSession(ctx context.Context, sessionID string, mutate func(*SessionState)) error {
	lock := s.stateLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, _, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to load session", err)
	}
	mutate(&state)
	state.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to save session", err)
	}
	return nil
}

func (s *Service) stateLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.stateLocks[h.Sum32()%sessionLockStripes]
}

// discard removes a blob the session no longer references.
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("schematic not removed", "key", key, "error", err)
	}
}

func (s *Service) allowedFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if strings.EqualFold(ext, strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == "/" {
		return "schematic"
	}
	return name
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
