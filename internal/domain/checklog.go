package domain

import "time"

// Check status constants.
const (
	CheckStatusSuccess = "success"
	CheckStatusFailed  = "failed"
)

// CheckLog is one immutable record of a single verification or monitoring
// attempt against a backlink. Logs are append-only and ordered by CheckedAt.
type CheckLog struct {
	ID               string    `db:"id"                 json:"id"`
	BacklinkID       string    `db:"backlink_id"        json:"backlink_id"`
	CheckedAt        time.Time `db:"checked_at"         json:"checked_at"`
	CheckStatus      string    `db:"check_status"       json:"check_status"`
	HTTPStatusCode   *int      `db:"http_status_code"   json:"http_status_code,omitempty"`
	ResponseTimeMs   int64     `db:"response_time_ms"   json:"response_time_ms"`
	LinkTypeDetected string    `db:"link_type_detected" json:"link_type_detected"`
	ErrorMessage     *string   `db:"error_message"      json:"error_message,omitempty"`
}
