package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/engine"
	"github.com/linkforge/linkwatch/internal/urlutil"
)

// BacklinkStore defines the backlink persistence operations the handler needs.
type BacklinkStore interface {
	Create(ctx context.Context, bl *domain.Backlink) error
	GetByID(ctx context.Context, id string) (*domain.Backlink, error)
	List(ctx context.Context, filters database.BacklinkFilters) ([]*domain.Backlink, int, error)
	Stats(ctx context.Context) (*database.BacklinkStats, error)
	Delete(ctx context.Context, id string) error
}

// CheckLogStore defines the check log read operations the handler needs.
type CheckLogStore interface {
	ListByBacklinkID(ctx context.Context, backlinkID string, limit, offset int) ([]domain.CheckLog, error)
	CountByBacklinkID(ctx context.Context, backlinkID string) (int, error)
}

// CheckEngine runs verification and monitoring checks.
type CheckEngine interface {
	Verify(ctx context.Context, bl *domain.Backlink) (*engine.Outcome, error)
	Monitor(ctx context.Context, bl *domain.Backlink) (*engine.Outcome, error)
}

// BacklinksHandler handles backlink-related HTTP requests.
type BacklinksHandler struct {
	backlinks BacklinkStore
	checkLogs CheckLogStore
	engine    CheckEngine
}

// NewBacklinksHandler creates a new backlinks handler.
func NewBacklinksHandler(backlinks BacklinkStore, checkLogs CheckLogStore, eng CheckEngine) *BacklinksHandler {
	return &BacklinksHandler{
		backlinks: backlinks,
		checkLogs: checkLogs,
		engine:    eng,
	}
}

// Create handles POST /api/v1/backlinks.
func (h *BacklinksHandler) Create(c *gin.Context) {
	var req CreateBacklinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if _, err := urlutil.Normalize(req.SourceURL); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid source_url: "+err.Error())
		return
	}
	if _, err := urlutil.Normalize(req.TargetURL); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid target_url: "+err.Error())
		return
	}

	bl := &domain.Backlink{
		SourceURL:        req.SourceURL,
		TargetURL:        req.TargetURL,
		AnchorText:       req.AnchorText,
		IsReciprocal:     req.IsReciprocal,
		UptimePercentage: 100.00,
	}

	if err := h.backlinks.Create(c.Request.Context(), bl); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create backlink")
		return
	}

	c.JSON(http.StatusCreated, bl)
}

// List handles GET /api/v1/backlinks.
func (h *BacklinksHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c)

	filters := database.BacklinkFilters{
		VerificationStatus: c.Query("status"),
		Search:             c.Query("search"),
		Limit:              limit,
		Offset:             offset,
	}

	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filters.IsActive = &active
	}

	backlinks, total, err := h.backlinks.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve backlinks")
		return
	}

	c.JSON(http.StatusOK, ListBacklinksResponse{
		Backlinks: backlinks,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// Get handles GET /api/v1/backlinks/:id.
func (h *BacklinksHandler) Get(c *gin.Context) {
	bl, ok := h.loadBacklink(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, bl)
}

// Logs handles GET /api/v1/backlinks/:id/logs.
func (h *BacklinksHandler) Logs(c *gin.Context) {
	bl, ok := h.loadBacklink(c)
	if !ok {
		return
	}

	limit, offset := parseLimitOffset(c)

	logs, err := h.checkLogs.ListByBacklinkID(c.Request.Context(), bl.ID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve check logs")
		return
	}

	total, err := h.checkLogs.CountByBacklinkID(c.Request.Context(), bl.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get total count")
		return
	}

	c.JSON(http.StatusOK, ListLogsResponse{
		Logs:   logs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Delete handles DELETE /api/v1/backlinks/:id. Check logs cascade.
func (h *BacklinksHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Invalid backlink ID")
		return
	}

	if err := h.backlinks.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrBacklinkNotFound) {
			respondNotFound(c, "Backlink")
			return
		}

		respondError(c, http.StatusInternalServerError, "Failed to delete backlink")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backlink deleted"})
}

// Stats handles GET /api/v1/backlinks/stats.
func (h *BacklinksHandler) Stats(c *gin.Context) {
	stats, err := h.backlinks.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Verify handles POST /api/v1/backlinks/:id/verify. A link that is not
// found is a normal 200 response with verified:false, not an error status.
func (h *BacklinksHandler) Verify(c *gin.Context) {
	bl, ok := h.loadBacklink(c)
	if !ok {
		return
	}

	outcome, err := h.engine.Verify(c.Request.Context(), bl)
	if err != nil {
		if errors.Is(err, urlutil.ErrInvalidURL) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		respondError(c, http.StatusInternalServerError, "Verification failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Backlink:   bl,
		Verified:   outcome.Found,
		LinkType:   outcome.LinkType,
		AnchorText: outcome.AnchorText,
		Reason:     outcome.Reason,
		Message:    verifyMessage(outcome),
	})
}

// Monitor handles POST /api/v1/backlinks/:id/monitor.
func (h *BacklinksHandler) Monitor(c *gin.Context) {
	bl, ok := h.loadBacklink(c)
	if !ok {
		return
	}

	outcome, err := h.engine.Monitor(c.Request.Context(), bl)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotVerified):
			respondError(c, http.StatusBadRequest, "Backlink must be verified before monitoring")
		case errors.Is(err, urlutil.ErrInvalidURL):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Monitoring failed: "+err.Error())
		}
		return
	}

	status := domain.CheckStatusFailed
	if outcome.Found {
		status = domain.CheckStatusSuccess
	}

	c.JSON(http.StatusOK, MonitorResponse{
		Backlink: bl,
		Monitoring: MonitoringInfo{
			Status:           status,
			LinkType:         outcome.LinkType,
			ResponseTime:     outcome.ResponseTimeMs,
			HTTPStatus:       outcome.HTTPStatus,
			UptimePercentage: outcome.Uptime,
		},
		Message: monitorMessage(outcome),
	})
}

// loadBacklink resolves the :id path param to a backlink, writing the error
// response itself when that fails.
func (h *BacklinksHandler) loadBacklink(c *gin.Context) (*domain.Backlink, bool) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Invalid backlink ID")
		return nil, false
	}

	bl, err := h.backlinks.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrBacklinkNotFound) {
			respondNotFound(c, "Backlink")
			return nil, false
		}

		respondError(c, http.StatusInternalServerError, "Failed to retrieve backlink")
		return nil, false
	}

	return bl, true
}

// verifyMessage renders the human-readable result of a verify call.
func verifyMessage(outcome *engine.Outcome) string {
	switch outcome.Reason {
	case engine.ReasonOK:
		return "Backlink verified successfully."
	case engine.ReasonUnreachable:
		return "Could not reach the source page. Check that the URL is correct and publicly accessible."
	default:
		return "Link not found on the source page. Make sure the page links to your target URL and try again."
	}
}

// monitorMessage renders the human-readable result of a monitor call.
func monitorMessage(outcome *engine.Outcome) string {
	switch outcome.Reason {
	case engine.ReasonOK:
		return "Backlink is active."
	case engine.ReasonUnreachable:
		return "Source page is unreachable. The backlink has been marked inactive."
	default:
		return "Link is no longer present on the source page. The backlink has been marked inactive."
	}
}
