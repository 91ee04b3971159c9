package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/observability/metrics"
	"channel-notifier/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

type ChannelRepo struct{ db *sql.DB }

func NewChannelRepo(db *sql.DB) repository.ChannelRepository {
	return &ChannelRepo{db: db}
}

const channelColumns = `id, destination_id, external_id, external_handle, display_name, last_checked_at, created_at, updated_at`

func scanChannel(s interface{ Scan(dest ...any) error }) (*entity.Channel, error) {
	var c entity.Channel
	if err := s.Scan(
		&c.ID, &c.DestinationID, &c.ExternalID, &c.ExternalHandle,
		&c.DisplayName, &c.LastCheckedAt, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (repo *ChannelRepo) getOne(ctx context.Context, op, where string, arg any) (*entity.Channel, error) {
	defer observe("channels."+op, time.Now())
	query := `SELECT ` + channelColumns + `
FROM channels
WHERE ` + where + ` = $1
LIMIT 1`
	c, err := scanChannel(repo.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (repo *ChannelRepo) Get(ctx context.Context, id int64) (*entity.Channel, error) {
	return repo.getOne(ctx, "Get", "id", id)
}

func (repo *ChannelRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.Channel, error) {
	return repo.getOne(ctx, "GetByExternalID", "external_id", externalID)
}

func (repo *ChannelRepo) GetByHandle(ctx context.Context, handle string) (*entity.Channel, error) {
	return repo.getOne(ctx, "GetByHandle", "external_handle", handle)
}

func (repo *ChannelRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Channel, error) {
	defer observe("channels."+op, time.Now())
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	channels := make([]*entity.Channel, 0, 50)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (repo *ChannelRepo) List(ctx context.Context) ([]*entity.Channel, error) {
	query := `SELECT ` + channelColumns + `
FROM channels
ORDER BY id ASC`
	return repo.list(ctx, "List", query)
}

func (repo *ChannelRepo) ListByDestination(ctx context.Context, destinationID int64) ([]*entity.Channel, error) {
	query := `SELECT ` + channelColumns + `
FROM channels
WHERE destination_id = $1
ORDER BY id ASC`
	return repo.list(ctx, "ListByDestination", query, destinationID)
}

func (repo *ChannelRepo) CountByDestination(ctx context.Context, destinationID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM channels WHERE destination_id = $1`
	var n int64
	if err := repo.db.QueryRowContext(ctx, query, destinationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountByDestination: %w", err)
	}
	return n, nil
}

// Create inserts c. A zero LastCheckedAt lets the database default it to
// the creation time.
func (repo *ChannelRepo) Create(ctx context.Context, c *entity.Channel) error {
	var lastChecked any
	if !c.LastCheckedAt.IsZero() {
		lastChecked = c.LastCheckedAt
	}
	const query = `
INSERT INTO channels (destination_id, external_id, external_handle, display_name, last_checked_at)
VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))
RETURNING id, last_checked_at, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		c.DestinationID, c.ExternalID, c.ExternalHandle, c.DisplayName, lastChecked,
	).Scan(&c.ID, &c.LastCheckedAt, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: %w: %w", entity.ErrConflict, err)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ChannelRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM channels WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ChannelRepo) UpdateLastCheckedAt(ctx context.Context, id int64, t time.Time) error {
	defer observe("channels.UpdateLastCheckedAt", time.Now())
	const query = `UPDATE channels SET last_checked_at = $1 WHERE id = $2`
	if _, err := repo.db.ExecContext(ctx, query, t.UTC(), id); err != nil {
		return fmt.Errorf("UpdateLastCheckedAt: %w", err)
	}
	return nil
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// observe records the duration of one repository call as db_query_duration_seconds.
func observe(op string, start time.Time) {
	metrics.RecordDBQuery(op, time.Since(start))
}
