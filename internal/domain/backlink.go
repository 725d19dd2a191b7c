package domain

import "time"

// Backlink verification status constants.
const (
	VerificationUnverified = "unverified"
	VerificationVerified   = "verified"
	VerificationFailed     = "failed"
)

// Link type constants. LinkTypeNone is only valid on check logs, where it
// records that no link to the target was detected.
const (
	LinkTypeDofollow = "dofollow"
	LinkTypeNofollow = "nofollow"
	LinkTypeNone     = "none"
)

// Aggregation window bounds for uptime computation.
const (
	UptimeWindowMaxLogs = 100
	UptimeWindowDays    = 30
)

// Backlink represents a claimed link from a source page to a target page.
// Its mutable fields are a denormalized summary of the check log history;
// the check logs remain the source of truth for uptime.
type Backlink struct {
	// Identity
	ID string `db:"id" json:"id"`

	// Claim
	SourceURL    string  `db:"source_url"    json:"source_url"`
	TargetURL    string  `db:"target_url"    json:"target_url"`
	AnchorText   *string `db:"anchor_text"   json:"anchor_text,omitempty"`
	LinkType     string  `db:"link_type"     json:"link_type"`
	IsReciprocal bool    `db:"is_reciprocal" json:"is_reciprocal"`

	// Verification gate (sticky once earned)
	IsVerified           bool   `db:"is_verified"           json:"is_verified"`
	VerificationStatus   string `db:"verification_status"   json:"verification_status"`
	VerificationAttempts int    `db:"verification_attempts" json:"verification_attempts"`

	// Activity gate (re-evaluated on every check)
	IsActive         bool    `db:"is_active"         json:"is_active"`
	FailureCount     int     `db:"failure_count"     json:"failure_count"`
	UptimePercentage float64 `db:"uptime_percentage" json:"uptime_percentage"`

	// Timestamps
	LastCheckedAt  *time.Time `db:"last_checked_at"  json:"last_checked_at,omitempty"`
	LastVerifiedAt *time.Time `db:"last_verified_at" json:"last_verified_at,omitempty"`
	LastFailedAt   *time.Time `db:"last_failed_at"   json:"last_failed_at,omitempty"`
	ExpiresAt      *time.Time `db:"expires_at"       json:"expires_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"       json:"updated_at"`
}
