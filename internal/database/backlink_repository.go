package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linkforge/linkwatch/internal/domain"
)

// ErrBacklinkNotFound is returned when a backlink id does not exist.
// Callers should check with errors.Is().
var ErrBacklinkNotFound = errors.New("backlink not found")

// Backlink repository constants.
const (
	defaultBacklinkLimit = 50

	// backlinkSelectColumns lists columns for SELECT queries on backlinks.
	backlinkSelectColumns = `id, source_url, target_url, anchor_text, link_type, is_reciprocal,
		is_verified, verification_status, verification_attempts,
		is_active, failure_count, uptime_percentage,
		last_checked_at, last_verified_at, last_failed_at, expires_at,
		created_at, updated_at`
)

// BacklinkRepository handles database operations for backlink records.
type BacklinkRepository struct {
	db *sqlx.DB
}

// NewBacklinkRepository creates a new backlink repository.
func NewBacklinkRepository(db *sqlx.DB) *BacklinkRepository {
	return &BacklinkRepository{db: db}
}

// Create inserts a new backlink. A missing id is generated. Timestamps are
// assigned by the database and read back into the struct.
func (r *BacklinkRepository) Create(ctx context.Context, bl *domain.Backlink) error {
	if bl.ID == "" {
		bl.ID = uuid.New().String()
	}
	if bl.LinkType == "" {
		bl.LinkType = domain.LinkTypeDofollow
	}
	if bl.VerificationStatus == "" {
		bl.VerificationStatus = domain.VerificationUnverified
	}

	query := `
		INSERT INTO backlinks (
			id, source_url, target_url, anchor_text, link_type, is_reciprocal,
			is_verified, verification_status, verification_attempts,
			is_active, failure_count, uptime_percentage, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	row := r.db.QueryRowxContext(
		ctx, query,
		bl.ID, bl.SourceURL, bl.TargetURL, bl.AnchorText, bl.LinkType, bl.IsReciprocal,
		bl.IsVerified, bl.VerificationStatus, bl.VerificationAttempts,
		bl.IsActive, bl.FailureCount, bl.UptimePercentage, bl.ExpiresAt,
	)
	if err := row.Scan(&bl.CreatedAt, &bl.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create backlink: %w", err)
	}

	return nil
}

// GetByID returns a backlink by id.
func (r *BacklinkRepository) GetByID(ctx context.Context, id string) (*domain.Backlink, error) {
	query := `SELECT ` + backlinkSelectColumns + ` FROM backlinks WHERE id = $1`

	var bl domain.Backlink
	err := r.db.GetContext(ctx, &bl, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBacklinkNotFound
		}
		return nil, fmt.Errorf("failed to get backlink: %w", err)
	}

	return &bl, nil
}

// Update writes all mutable fields in a single conditional statement keyed
// by id. The backlink record is the unit of mutual exclusion, so every check
// cycle commits its result through this one write.
func (r *BacklinkRepository) Update(ctx context.Context, bl *domain.Backlink) error {
	query := `
		UPDATE backlinks
		SET anchor_text = $1,
			link_type = $2,
			is_verified = $3,
			verification_status = $4,
			verification_attempts = $5,
			is_active = $6,
			failure_count = $7,
			uptime_percentage = $8,
			last_checked_at = $9,
			last_verified_at = $10,
			last_failed_at = $11,
			updated_at = NOW()
		WHERE id = $12
	`

	result, execErr := r.db.ExecContext(
		ctx, query,
		bl.AnchorText, bl.LinkType,
		bl.IsVerified, bl.VerificationStatus, bl.VerificationAttempts,
		bl.IsActive, bl.FailureCount, bl.UptimePercentage,
		bl.LastCheckedAt, bl.LastVerifiedAt, bl.LastFailedAt,
		bl.ID,
	)

	return execRequireRows(result, execErr, fmt.Errorf("%w: %s", ErrBacklinkNotFound, bl.ID))
}

// ListDueForMonitoring returns up to limit verified backlinks ordered by
// last_checked_at ascending with nulls first, so never-checked backlinks are
// prioritized and recently-attempted ones naturally fall to the back even
// after a failed run.
func (r *BacklinkRepository) ListDueForMonitoring(ctx context.Context, limit int) ([]*domain.Backlink, error) {
	if limit <= 0 {
		limit = defaultBacklinkLimit
	}

	query := `
		SELECT ` + backlinkSelectColumns + `
		FROM backlinks
		WHERE is_verified = TRUE
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $1
	`

	var backlinks []*domain.Backlink
	if err := r.db.SelectContext(ctx, &backlinks, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list due backlinks: %w", err)
	}

	return backlinks, nil
}

// BacklinkFilters represents filtering options for listing backlinks.
type BacklinkFilters struct {
	VerificationStatus string
	IsActive           *bool
	Search             string // source or target URL contains
	Limit              int
	Offset             int
}

// List returns backlinks with pagination and filtering.
func (r *BacklinkRepository) List(ctx context.Context, filters BacklinkFilters) ([]*domain.Backlink, int, error) {
	whereClause, args := buildBacklinkWhere(filters)

	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM backlinks %s", whereClause)
	if err := r.db.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count backlinks: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultBacklinkLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM backlinks
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, backlinkSelectColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, offset)

	var backlinks []*domain.Backlink
	if err := r.db.SelectContext(ctx, &backlinks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list backlinks: %w", err)
	}

	if backlinks == nil {
		backlinks = []*domain.Backlink{}
	}

	return backlinks, count, nil
}

// buildBacklinkWhere builds the WHERE clause and args for backlink queries.
func buildBacklinkWhere(filters BacklinkFilters) (whereClause string, args []any) {
	var conditions []string
	args = []any{}
	argIndex := 1

	if filters.VerificationStatus != "" {
		conditions = append(conditions, fmt.Sprintf("verification_status = $%d", argIndex))
		args = append(args, filters.VerificationStatus)
		argIndex++
	}

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filters.IsActive)
		argIndex++
	}

	if filters.Search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(source_url ILIKE $%d OR target_url ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filters.Search+"%")
	}

	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	return whereClause, args
}

// BacklinkStats contains aggregate counts for the backlink collection.
type BacklinkStats struct {
	TotalUnverified int     `db:"total_unverified" json:"total_unverified"`
	TotalVerified   int     `db:"total_verified"   json:"total_verified"`
	TotalFailed     int     `db:"total_failed"     json:"total_failed"`
	TotalActive     int     `db:"total_active"     json:"total_active"`
	AverageUptime   float64 `db:"average_uptime"   json:"average_uptime"`
}

// Stats returns aggregate counts grouped by verification status plus the
// active count and average uptime.
func (r *BacklinkRepository) Stats(ctx context.Context) (*BacklinkStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE verification_status = 'unverified') AS total_unverified,
			COUNT(*) FILTER (WHERE verification_status = 'verified')   AS total_verified,
			COUNT(*) FILTER (WHERE verification_status = 'failed')     AS total_failed,
			COUNT(*) FILTER (WHERE is_active)                          AS total_active,
			COALESCE(AVG(uptime_percentage), 100)                      AS average_uptime
		FROM backlinks
	`

	var stats BacklinkStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to query backlink stats: %w", err)
	}

	return &stats, nil
}

// Delete removes a backlink by id. Check logs cascade at the schema level.
func (r *BacklinkRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM backlinks WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)

	return execRequireRows(result, err, fmt.Errorf("%w: %s", ErrBacklinkNotFound, id))
}
