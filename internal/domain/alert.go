package domain

import "time"

// Alert kind constants. Only degradations are alert-worthy: a backlink going
// down, or a dofollow link being downgraded to nofollow.
const (
	AlertDown              = "down"
	AlertNofollowDowngrade = "nofollow_downgrade"
)

// Alert is a state-transition event emitted by the monitoring engine.
type Alert struct {
	Kind       string    `json:"kind"`
	BacklinkID string    `json:"backlink_id"`
	SourceURL  string    `json:"source_url"`
	TargetURL  string    `json:"target_url"`
	Detail     string    `json:"detail,omitempty"`
	RaisedAt   time.Time `json:"raised_at"`
}
