package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

const uploadField = "building_image"

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorSvc     advisor.Service
	surveySvc      *survey.Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc advisor.Service, surveySvc *survey.Service, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &Handler{
		advisorSvc:     advisorSvc,
		surveySvc:      surveySvc,
		logger:         logger.With("component", "http.handler"),
		maxUploadBytes: maxUploadBytes,
	}
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r coordinateRequest) values() (float64, float64, *HTTPError) {
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "latitude and longitude are required", nil)
	}
	return *r.Latitude, *r.Longitude, nil
}

type gridRequest struct {
	coordinateRequest
	GridSize *int     `json:"gridSize"`
	Radius   *float64 `json:"radius"`
}

type recommendationRequest struct {
	HeatReading      *heatmap.Reading   `json:"heatReading"`
	BuildingFeatures *building.Features `json:"buildingFeatures"`
}

// ResolveHeat returns the heat estimate for a single coordinate.
func (h *Handler) ResolveHeat(c *gin.Context) {
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	lat, lng, httpErr := req.values()
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	reading, err := h.advisorSvc.ResolveHeat(c.Request.Context(), lat, lng)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, reading)
}

// HeatGrid returns the sampled heat grid around a centre point.
func (h *Handler) HeatGrid(c *gin.Context) {
	var req gridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	lat, lng, httpErr := req.values()
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	cells, err := h.advisorSvc.GenerateHeatGrid(c.Request.Context(), advisor.GridRequest{
		Latitude:  lat,
		Longitude: lng,
		GridSize:  req.GridSize,
		Radius:    req.Radius,
	})
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"heatmapData": cells})
}

// HeatGridGeoJSON renders the heat grid as a GeoJSON FeatureCollection of points.
func (h *Handler) HeatGridGeoJSON(c *gin.Context) {
	req, httpErr := gridQuery(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	cells, err := h.advisorSvc.GenerateHeatGrid(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, heatmap.FeatureCollection(cells))
}

func gridQuery(c *gin.Context) (advisor.GridRequest, *HTTPError) {
	invalid := func(msg string, err error) *HTTPError {
		return NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, msg, err)
	}
	var req advisor.GridRequest
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return req, invalid("lat query parameter must be a number", err)
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return req, invalid("lng query parameter must be a number", err)
	}
	req.Latitude, req.Longitude = lat, lng
	if raw := c.Query("gridSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, invalid("gridSize query parameter must be an integer", err)
		}
		req.GridSize = &size
	}
	if raw := c.Query("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, invalid("radius query parameter must be a number", err)
		}
		req.Radius = &radius
	}
	return req, nil
}

// Recommendations scores a caller-supplied heat reading and optional building features.
func (h *Handler) Recommendations(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if req.HeatReading == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "heatReading is required", nil))
		return
	}
	reading := *req.HeatReading
	if reading.HeatIndex < 0 || reading.HeatIndex > 1 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "heatIndex must be within [0, 1]", nil))
		return
	}
	if req.BuildingFeatures != nil {
		if err := req.BuildingFeatures.Validate(); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, err.Error(), err))
			return
		}
	}

	c.JSON(http.StatusOK, h.advisorSvc.BuildRecommendations(reading, req.BuildingFeatures))
}

// AnalyzeBuilding extracts features from a schematic without touching the session.
func (h *Handler) AnalyzeBuilding(c *gin.Context) {
	upload, httpErr := h.readUpload(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	analysis, err := h.advisorSvc.AnalyzeBuildingImage(c.Request.Context(), upload.Content)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imageInfo":        analysis.Statistics,
		"buildingFeatures": analysis.Features,
	})
}

// Health reports liveness together with the loaded catalog size.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"zones":  len(h.advisorSvc.ZoneNames()),
	})
}

// readUpload pulls the schematic out of the multipart form, enforcing the byte cap
// before anything is buffered beyond it.
func (h *Handler) readUpload(c *gin.Context) (survey.UploadRequest, *HTTPError) {
	tooLarge := func(err error) *HTTPError {
		return NewHTTPError(http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge, "file exceeds the upload size limit", err)
	}
	// Multipart framing adds headers around the file; give it a little room.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+64<<10)

	header, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return survey.UploadRequest{}, tooLarge(err)
		}
		return survey.UploadRequest{}, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "no file provided in "+uploadField, err)
	}
	if header.Size > h.maxUploadBytes {
		return survey.UploadRequest{}, tooLarge(nil)
	}

	file, err := header.Open()
	if err != nil {
		return survey.UploadRequest{}, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "could not read uploaded file", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return survey.UploadRequest{}, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "could not read uploaded file", err)
	}
	if int64(len(content)) > h.maxUploadBytes {
		return survey.UploadRequest{}, tooLarge(nil)
	}

	return survey.UploadRequest{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
