// Package notify provides AlertNotifier implementations. Outbound email
// delivery lives outside this service; the default notifier records alerts
// to the structured log where the delivery pipeline picks them up.
package notify

import (
	"context"
	"sync"

	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/logger"
)

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	log logger.Interface
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logger.Interface) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify records the alert.
func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.log.Warn("backlink alert",
		"kind", alert.Kind,
		"backlink_id", alert.BacklinkID,
		"source_url", alert.SourceURL,
		"target_url", alert.TargetURL,
		"detail", alert.Detail,
	)

	return nil
}

// CaptureNotifier collects alerts in memory. Intended for tests.
type CaptureNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

// NewCaptureNotifier creates a CaptureNotifier.
func NewCaptureNotifier() *CaptureNotifier {
	return &CaptureNotifier{}
}

// Notify appends the alert to the captured list.
func (n *CaptureNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.alerts = append(n.alerts, alert)

	return nil
}

// Alerts returns a copy of the captured alerts.
func (n *CaptureNotifier) Alerts() []domain.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]domain.Alert, len(n.alerts))
	copy(out, n.alerts)

	return out
}
