// Package engine implements the backlink verification and monitoring state
// machine. All fetch and parse failures are absorbed here and converted into
// state transitions plus a check log entry; they never propagate to callers
// except for malformed URLs, which are rejected before any network call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/fetcher"
	"github.com/linkforge/linkwatch/internal/linkmatch"
	"github.com/linkforge/linkwatch/internal/uptime"
	"github.com/linkforge/linkwatch/internal/urlutil"
)

// Outcome reason constants, distinguishing "your link isn't there yet" from
// "we couldn't even reach your page".
const (
	ReasonOK          = "ok"
	ReasonNotFound    = "not_found"
	ReasonUnreachable = "unreachable"
)

// ErrNotVerified is returned by Monitor for backlinks that have never passed
// verification. Monitoring only applies once the verification gate is earned.
var ErrNotVerified = errors.New("backlink is not verified")

// BacklinkStore persists backlink records. Updates must be a single
// conditional write keyed by id; the backlink record is the unit of mutual
// exclusion.
type BacklinkStore interface {
	Update(ctx context.Context, backlink *domain.Backlink) error
}

// CheckLogStore is the append-only store of check results.
// RecentWindow returns the aggregation window for a backlink: the most
// recent logs bounded by count and age, newest first.
type CheckLogStore interface {
	Append(ctx context.Context, log *domain.CheckLog) error
	RecentWindow(ctx context.Context, backlinkID string) ([]domain.CheckLog, error)
}

// PageFetcher retrieves a page's HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// AlertNotifier receives state-transition alerts. Delivery failures are
// logged by the engine, never propagated.
type AlertNotifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Outcome summarizes a completed check for API responses and batch stats.
type Outcome struct {
	Found          bool
	LinkType       string
	AnchorText     string
	HTTPStatus     *int
	ResponseTimeMs int64
	Uptime         float64
	Reason         string
	Alerts         []domain.Alert
}

// Params holds the dependencies for an Engine.
type Params struct {
	Fetcher   PageFetcher
	Backlinks BacklinkStore
	CheckLogs CheckLogStore
	Notifier  AlertNotifier
	Logger    Logger
}

// Engine orchestrates fetch, match, log append, uptime aggregation and
// backlink state transitions.
type Engine struct {
	fetcher   PageFetcher
	backlinks BacklinkStore
	checkLogs CheckLogStore
	notifier  AlertNotifier
	log       Logger
	now       func() time.Time
}

// New creates an Engine.
func New(p Params) *Engine {
	return &Engine{
		fetcher:   p.Fetcher,
		backlinks: p.Backlinks,
		checkLogs: p.CheckLogs,
		notifier:  p.Notifier,
		log:       p.Logger,
		now:       time.Now,
	}
}

// SetNow overrides the engine clock. Intended for tests.
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
}

// checkResult is the classified outcome of one fetch+match attempt.
type checkResult struct {
	found          bool
	linkType       string
	anchorText     string
	httpStatus     *int
	responseTimeMs int64
	reason         string
	errorMessage   *string
}

// Verify performs a one-time confirmation that the claimed link exists with
// the intended classification. It always increments verification_attempts,
// sets last_verified_at and writes exactly one check log. Verification never
// raises alerts.
func (e *Engine) Verify(ctx context.Context, bl *domain.Backlink) (*Outcome, error) {
	if err := validateURLs(bl); err != nil {
		return nil, err
	}

	res := e.performCheck(ctx, bl)
	now := e.now()

	bl.VerificationAttempts++
	bl.LastVerifiedAt = &now
	bl.LastCheckedAt = &now

	if res.found {
		bl.IsVerified = true
		bl.VerificationStatus = domain.VerificationVerified
		bl.IsActive = true
		bl.LinkType = res.linkType

		if bl.AnchorText == nil && res.anchorText != "" {
			anchor := res.anchorText
			bl.AnchorText = &anchor
		}
	} else {
		bl.IsVerified = false
		bl.VerificationStatus = domain.VerificationFailed
		bl.IsActive = false
	}

	outcome, err := e.commit(ctx, bl, res, now)
	if err != nil {
		return nil, err
	}

	e.log.Info("backlink verified",
		"backlink_id", bl.ID,
		"found", res.found,
		"link_type", res.linkType,
		"reason", res.reason,
	)

	return outcome, nil
}

// Monitor re-checks an already-verified backlink. The verification gate is
// sticky: failures flip is_active, never is_verified. Alerts are emitted on
// transitions only, so repeating a check with an unchanged source page is
// idempotent aside from last_checked_at and the appended log.
func (e *Engine) Monitor(ctx context.Context, bl *domain.Backlink) (*Outcome, error) {
	if !bl.IsVerified {
		return nil, ErrNotVerified
	}

	if err := validateURLs(bl); err != nil {
		return nil, err
	}

	wasActive := bl.IsActive
	previousType := bl.LinkType

	res := e.performCheck(ctx, bl)
	now := e.now()

	var alerts []domain.Alert

	if res.found {
		bl.IsActive = true
		bl.FailureCount = 0

		if previousType == domain.LinkTypeDofollow && res.linkType == domain.LinkTypeNofollow {
			alerts = append(alerts, domain.Alert{
				Kind:       domain.AlertNofollowDowngrade,
				BacklinkID: bl.ID,
				SourceURL:  bl.SourceURL,
				TargetURL:  bl.TargetURL,
				Detail:     "link downgraded from dofollow to nofollow",
				RaisedAt:   now,
			})
		}

		// The record always reflects the last observed classification,
		// including a silent nofollow -> dofollow upgrade.
		bl.LinkType = res.linkType
	} else {
		bl.IsActive = false
		bl.FailureCount++
		bl.LastFailedAt = &now

		if wasActive {
			alerts = append(alerts, domain.Alert{
				Kind:       domain.AlertDown,
				BacklinkID: bl.ID,
				SourceURL:  bl.SourceURL,
				TargetURL:  bl.TargetURL,
				Detail:     reasonDetail(res),
				RaisedAt:   now,
			})
		}
	}

	bl.LastCheckedAt = &now

	outcome, err := e.commit(ctx, bl, res, now)
	if err != nil {
		return nil, err
	}

	for _, alert := range alerts {
		if notifyErr := e.notifier.Notify(ctx, alert); notifyErr != nil {
			e.log.Error("alert delivery failed",
				"backlink_id", bl.ID,
				"kind", alert.Kind,
				"error", notifyErr.Error(),
			)
		}
	}
	outcome.Alerts = alerts

	e.log.Info("backlink monitored",
		"backlink_id", bl.ID,
		"active", bl.IsActive,
		"link_type", bl.LinkType,
		"uptime", bl.UptimePercentage,
		"alerts", len(alerts),
	)

	return outcome, nil
}

// performCheck fetches the source page and scans it for the target link,
// classifying every failure mode into a checkResult.
func (e *Engine) performCheck(ctx context.Context, bl *domain.Backlink) checkResult {
	result, fetchErr := e.fetcher.Fetch(ctx, bl.SourceURL)
	if fetchErr != nil {
		return classifyFetchError(result, fetchErr)
	}

	match, matchErr := linkmatch.FindLink(result.Body, bl.SourceURL, bl.TargetURL)
	if matchErr != nil {
		// Broken HTML still commonly contains a valid anchor; a scan that
		// cannot complete is treated as link-not-found, not a hard failure.
		e.log.Warn("link scan failed",
			"backlink_id", bl.ID,
			"source_url", bl.SourceURL,
			"error", matchErr.Error(),
		)
	}

	status := result.StatusCode
	res := checkResult{
		httpStatus:     &status,
		responseTimeMs: result.ElapsedMs,
	}

	if !match.Found {
		msg := "link not found on source page"
		res.linkType = domain.LinkTypeNone
		res.reason = ReasonNotFound
		res.errorMessage = &msg

		return res
	}

	res.found = true
	res.linkType = match.LinkType
	res.anchorText = match.AnchorText
	res.reason = ReasonOK

	return res
}

// commit appends the check log, recomputes uptime from the committed window
// and writes the backlink in a single update.
func (e *Engine) commit(
	ctx context.Context,
	bl *domain.Backlink,
	res checkResult,
	now time.Time,
) (*Outcome, error) {
	checkStatus := domain.CheckStatusFailed
	if res.found {
		checkStatus = domain.CheckStatusSuccess
	}

	log := &domain.CheckLog{
		BacklinkID:       bl.ID,
		CheckedAt:        now,
		CheckStatus:      checkStatus,
		HTTPStatusCode:   res.httpStatus,
		ResponseTimeMs:   res.responseTimeMs,
		LinkTypeDetected: res.linkType,
		ErrorMessage:     res.errorMessage,
	}

	if err := e.checkLogs.Append(ctx, log); err != nil {
		return nil, fmt.Errorf("append check log: %w", err)
	}

	// Uptime is derived only from logs already committed, including the one
	// just appended, so the stored percentage never drifts from the history.
	window, err := e.checkLogs.RecentWindow(ctx, bl.ID)
	if err != nil {
		return nil, fmt.Errorf("load check window: %w", err)
	}

	bl.UptimePercentage = uptime.Compute(window)

	if err := e.backlinks.Update(ctx, bl); err != nil {
		return nil, fmt.Errorf("update backlink: %w", err)
	}

	return &Outcome{
		Found:          res.found,
		LinkType:       res.linkType,
		AnchorText:     res.anchorText,
		HTTPStatus:     res.httpStatus,
		ResponseTimeMs: res.responseTimeMs,
		Uptime:         bl.UptimePercentage,
		Reason:         res.reason,
	}, nil
}

// classifyFetchError maps a fetch failure onto a checkResult.
func classifyFetchError(result *fetcher.Result, fetchErr error) checkResult {
	msg := fetchErr.Error()
	res := checkResult{
		linkType:     domain.LinkTypeNone,
		reason:       ReasonUnreachable,
		errorMessage: &msg,
	}

	var ferr *fetcher.Error
	if errors.As(fetchErr, &ferr) && ferr.Kind == fetcher.KindHTTP {
		status := ferr.StatusCode
		res.httpStatus = &status
	}

	if result != nil {
		res.responseTimeMs = result.ElapsedMs
	}

	return res
}

// reasonDetail renders a human-readable explanation for a failed check.
func reasonDetail(res checkResult) string {
	if res.errorMessage != nil {
		return *res.errorMessage
	}
	return res.reason
}

// validateURLs rejects malformed source or target URLs before any network
// call is attempted.
func validateURLs(bl *domain.Backlink) error {
	if _, err := urlutil.Normalize(bl.SourceURL); err != nil {
		return fmt.Errorf("source url: %w", err)
	}

	if _, err := urlutil.Normalize(bl.TargetURL); err != nil {
		return fmt.Errorf("target url: %w", err)
	}

	return nil
}
