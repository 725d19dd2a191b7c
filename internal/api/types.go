package api

import "github.com/linkforge/linkwatch/internal/domain"

// CreateBacklinkRequest is the payload for POST /api/v1/backlinks.
type CreateBacklinkRequest struct {
	SourceURL    string  `json:"source_url" binding:"required"`
	TargetURL    string  `json:"target_url" binding:"required"`
	AnchorText   *string `json:"anchor_text,omitempty"`
	IsReciprocal bool    `json:"is_reciprocal"`
}

// VerifyResponse is the response for POST /api/v1/backlinks/:id/verify.
type VerifyResponse struct {
	Backlink   *domain.Backlink `json:"backlink"`
	Verified   bool             `json:"verified"`
	LinkType   string           `json:"linkType"`
	AnchorText string           `json:"anchorText,omitempty"`
	Reason     string           `json:"reason"`
	Message    string           `json:"message"`
}

// MonitoringInfo carries the check details of a monitor call.
type MonitoringInfo struct {
	Status           string  `json:"status"`
	LinkType         string  `json:"linkType"`
	ResponseTime     int64   `json:"responseTime"`
	HTTPStatus       *int    `json:"httpStatus,omitempty"`
	UptimePercentage float64 `json:"uptimePercentage"`
}

// MonitorResponse is the response for POST /api/v1/backlinks/:id/monitor.
type MonitorResponse struct {
	Backlink   *domain.Backlink `json:"backlink"`
	Monitoring MonitoringInfo   `json:"monitoring"`
	Message    string           `json:"message"`
}

// ListBacklinksResponse is the response for GET /api/v1/backlinks.
type ListBacklinksResponse struct {
	Backlinks []*domain.Backlink `json:"backlinks"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// ListLogsResponse is the response for GET /api/v1/backlinks/:id/logs.
type ListLogsResponse struct {
	Logs   []domain.CheckLog `json:"logs"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// CronResponse is the response for GET /cron/backlinks-monitor.
type CronResponse struct {
	Message string `json:"message"`
	Checked int    `json:"checked"`
	Errors  int    `json:"errors"`
	Alerts  int    `json:"alerts"`
	Total   int    `json:"total"`
}
