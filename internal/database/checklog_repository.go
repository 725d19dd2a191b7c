package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linkforge/linkwatch/internal/domain"
)

// checkLogSelectColumns lists columns for SELECT queries on monitoring_logs.
const checkLogSelectColumns = `id, backlink_id, checked_at, check_status,
	http_status_code, response_time_ms, link_type_detected, error_message`

// CheckLogRepository handles database operations for the append-only
// monitoring log. Logs are never mutated after insert.
type CheckLogRepository struct {
	db *sqlx.DB
}

// NewCheckLogRepository creates a new check log repository.
func NewCheckLogRepository(db *sqlx.DB) *CheckLogRepository {
	return &CheckLogRepository{db: db}
}

// Append inserts one immutable check record. A missing id is generated.
func (r *CheckLogRepository) Append(ctx context.Context, log *domain.CheckLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	query := `
		INSERT INTO monitoring_logs (
			id, backlink_id, checked_at, check_status,
			http_status_code, response_time_ms, link_type_detected, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		log.ID, log.BacklinkID, log.CheckedAt, log.CheckStatus,
		log.HTTPStatusCode, log.ResponseTimeMs, log.LinkTypeDetected, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append check log: %w", err)
	}

	return nil
}

// RecentWindow returns the uptime aggregation window for a backlink: the
// most recent logs within the trailing 30 days, capped at 100, newest first.
// Backed by the (backlink_id, checked_at) index.
func (r *CheckLogRepository) RecentWindow(ctx context.Context, backlinkID string) ([]domain.CheckLog, error) {
	since := time.Now().AddDate(0, 0, -domain.UptimeWindowDays)

	query := `
		SELECT ` + checkLogSelectColumns + `
		FROM monitoring_logs
		WHERE backlink_id = $1
		  AND checked_at >= $2
		ORDER BY checked_at DESC
		LIMIT $3
	`

	var logs []domain.CheckLog
	err := r.db.SelectContext(ctx, &logs, query, backlinkID, since, domain.UptimeWindowMaxLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to load check window: %w", err)
	}

	return logs, nil
}

// ListByBacklinkID returns check logs for a backlink with pagination,
// newest first.
func (r *CheckLogRepository) ListByBacklinkID(
	ctx context.Context,
	backlinkID string,
	limit, offset int,
) ([]domain.CheckLog, error) {
	if limit <= 0 {
		limit = defaultBacklinkLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + checkLogSelectColumns + `
		FROM monitoring_logs
		WHERE backlink_id = $1
		ORDER BY checked_at DESC
		LIMIT $2 OFFSET $3
	`

	var logs []domain.CheckLog
	err := r.db.SelectContext(ctx, &logs, query, backlinkID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list check logs: %w", err)
	}

	if logs == nil {
		logs = []domain.CheckLog{}
	}

	return logs, nil
}

// CountByBacklinkID returns the total number of check logs for a backlink.
func (r *CheckLogRepository) CountByBacklinkID(ctx context.Context, backlinkID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM monitoring_logs WHERE backlink_id = $1`

	if err := r.db.GetContext(ctx, &count, query, backlinkID); err != nil {
		return 0, fmt.Errorf("failed to count check logs: %w", err)
	}

	return count, nil
}
