package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/satpel-tasikmalaya/jembatan/internal/dashboard"
	"github.com/satpel-tasikmalaya/jembatan/internal/filter"
	"github.com/satpel-tasikmalaya/jembatan/internal/render"
	"github.com/satpel-tasikmalaya/jembatan/internal/view"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	dash  *dashboard.Dashboard
	board *view.Board
}

// NewHandler creates a new HTTP handler.
func NewHandler(dash *dashboard.Dashboard, board *view.Board) *Handler {
	return &Handler{
		dash:  dash,
		board: board,
	}
}

// bridgesResponse is the body of list and filter responses.
type bridgesResponse struct {
	Filter  filter.Key     `json:"filter"`
	Title   string         `json:"title"`
	Count   int            `json:"count"`
	Bridges []types.Bridge `json:"bridges"`
}

func newBridgesResponse(k filter.Key, records []types.Bridge) bridgesResponse {
	if records == nil {
		records = []types.Bridge{}
	}
	return bridgesResponse{
		Filter:  k,
		Title:   filter.Title(k),
		Count:   len(records),
		Bridges: records,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"mode":   h.dash.Mode(),
	})
}

// GetView handles GET /v1/view.
func (h *Handler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.board.State())
}

// ListBridges handles GET /v1/bridges. The optional filter parameter
// selects a subset without touching the active view filter.
func (h *Handler) ListBridges(c *gin.Context) {
	k, records, err := h.dash.Subset(filter.Key(c.Query("filter")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBridgesResponse(k, records))
}

// GetBridge handles GET /v1/bridges/:id.
func (h *Handler) GetBridge(c *gin.Context) {
	b, err := h.dash.Find(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CreateBridge handles POST /v1/bridges.
func (h *Handler) CreateBridge(c *gin.Context) {
	var b types.Bridge
	if err := c.ShouldBindJSON(&b); err != nil {
		writeError(c, fmt.Errorf("%w: %v", types.ErrInvalidData, err))
		return
	}
	id, err := h.dash.Add(c.Request.Context(), b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateBridge handles PATCH /v1/bridges/:id.
func (h *Handler) UpdateBridge(c *gin.Context) {
	var patch types.BridgePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, fmt.Errorf("%w: %v", types.ErrInvalidData, err))
		return
	}
	id := c.Param("id")
	if err := h.dash.Update(c.Request.Context(), id, patch); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// DeleteBridge handles DELETE /v1/bridges/:id.
func (h *Handler) DeleteBridge(c *gin.Context) {
	if err := h.dash.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto handles POST /v1/bridges/:id/foto with a multipart "file".
func (h *Handler) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, fmt.Errorf("%w: file is required", types.ErrInvalidData))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	url, err := h.dash.UploadPhoto(c.Request.Context(), c.Param("id"), fh.Filename, f, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"foto": url})
}

// DeletePhoto handles DELETE /v1/bridges/:id/foto.
func (h *Handler) DeletePhoto(c *gin.Context) {
	if err := h.dash.DeletePhoto(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyFilter handles PUT /v1/filter/:key.
func (h *Handler) ApplyFilter(c *gin.Context) {
	subset, err := h.dash.ApplyFilter(filter.Key(c.Param("key")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBridgesResponse(h.dash.Filter(), subset))
}

// FocusBridge handles POST /v1/bridges/:id/focus.
func (h *Handler) FocusBridge(c *gin.Context) {
	if err := h.dash.Focus(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.board.State())
}

// ActivateMarker handles POST /v1/markers/:key/activate.
func (h *Handler) ActivateMarker(c *gin.Context) {
	if err := h.dash.ActivateMarker(c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.board.State())
}

// GetStats handles GET /v1/stats.
func (h *Handler) GetStats(c *gin.Context) {
	s, err := h.dash.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":        s,
		"storage_text": s.Storage.StorageText(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, render.ErrMarkerNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrPhotosUnavailable),
		errors.Is(err, types.ErrDashboardClosed),
		errors.Is(err, types.ErrNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
