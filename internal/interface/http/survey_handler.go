package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

type analyzeLocationRequest struct {
	coordinateRequest
	BuildingFeatures *building.Features `json:"buildingFeatures"`
	GridSize         *int               `json:"gridSize"`
	Radius           *float64           `json:"radius"`
}

// Upload stores a schematic for the caller's session and echoes back its analysis.
func (h *Handler) Upload(c *gin.Context) {
	upload, httpErr := h.readUpload(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	resp, err := h.surveySvc.Upload(c.Request.Context(), sessionIDFrom(c), upload)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnalyzeLocation runs the full heat and suitability analysis for a coordinate.
func (h *Handler) AnalyzeLocation(c *gin.Context) {
	var req analyzeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	lat, lng, httpErr := req.values()
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	result, err := h.surveySvc.AnalyzeLocation(c.Request.Context(), sessionIDFrom(c), survey.LocationRequest{
		Latitude:         lat,
		Longitude:        lng,
		BuildingFeatures: req.BuildingFeatures,
		GridSize:         req.GridSize,
		Radius:           req.Radius,
	})
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// CurrentSchematic streams back the schematic last uploaded in the caller's session.
func (h *Handler) CurrentSchematic(c *gin.Context) {
	schematic, err := h.surveySvc.CurrentSchematic(c.Request.Context(), sessionIDFrom(c))
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	defer schematic.Content.Close()
	c.DataFromReader(http.StatusOK, -1, schematic.MimeType, schematic.Content, nil)
}

// LatestResult returns the most recent analysis of the caller's session.
func (h *Handler) LatestResult(c *gin.Context) {
	result, err := h.surveySvc.LatestResult(c.Request.Context(), sessionIDFrom(c))
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetResult returns a stored analysis by id.
func (h *Handler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "invalid result id", err))
		return
	}
	result, err := h.surveySvc.GetResult(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}
