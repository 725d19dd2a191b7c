package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linkforge/linkwatch/internal/scheduler"
)

// BatchRunner runs one monitoring batch.
type BatchRunner interface {
	RunBatch(ctx context.Context) (*scheduler.Result, error)
}

// CronHandler handles the scheduled batch endpoint. The endpoint is gated
// by a shared secret when one is configured, passed either as a ?secret=
// query parameter or an Authorization bearer token.
type CronHandler struct {
	batch  BatchRunner
	secret string
}

// NewCronHandler creates a new cron handler.
func NewCronHandler(batch BatchRunner, secret string) *CronHandler {
	return &CronHandler{
		batch:  batch,
		secret: secret,
	}
}

// RunBatch handles GET /cron/backlinks-monitor.
func (h *CronHandler) RunBatch(c *gin.Context) {
	if !h.authorized(c) {
		respondError(c, http.StatusUnauthorized, "invalid cron secret")
		return
	}

	result, err := h.batch.RunBatch(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Batch run failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, CronResponse{
		Message: "Monitoring batch completed",
		Checked: result.Checked,
		Errors:  result.Errored,
		Alerts:  result.AlertsRaised,
		Total:   result.Total,
	})
}

// authorized checks the shared secret. With no secret configured the
// endpoint is open, matching a deployment where the host's scheduler is the
// only caller.
func (h *CronHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}

	if c.Query("secret") == h.secret {
		return true
	}

	const prefix = "Bearer "

	auth := c.GetHeader("Authorization")

	return strings.HasPrefix(auth, prefix) && auth[len(prefix):] == h.secret
}
