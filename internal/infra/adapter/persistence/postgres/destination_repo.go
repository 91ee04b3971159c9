package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/repository"
)

type DestinationRepo struct{ db *sql.DB }

func NewDestinationRepo(db *sql.DB) repository.DestinationRepository {
	return &DestinationRepo{db: db}
}

const destinationColumns = `id, grouping_label, display_label, endpoint_url, created_at, updated_at`

func scanDestination(s interface{ Scan(dest ...any) error }) (*entity.Destination, error) {
	var d entity.Destination
	if err := s.Scan(&d.ID, &d.GroupingLabel, &d.DisplayLabel, &d.EndpointURL, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (repo *DestinationRepo) Get(ctx context.Context, id int64) (*entity.Destination, error) {
	defer observe("destinations.Get", time.Now())
	query := `SELECT ` + destinationColumns + `
FROM destinations
WHERE id = $1
LIMIT 1`
	d, err := scanDestination(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return d, nil
}

func (repo *DestinationRepo) List(ctx context.Context) ([]*entity.Destination, error) {
	defer observe("destinations.List", time.Now())
	query := `SELECT ` + destinationColumns + `
FROM destinations
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	destinations := make([]*entity.Destination, 0, 50)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

// Create inserts d and fills in the generated id and timestamps.
func (repo *DestinationRepo) Create(ctx context.Context, d *entity.Destination) error {
	const query = `
INSERT INTO destinations (grouping_label, display_label, endpoint_url)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		d.GroupingLabel, d.DisplayLabel, d.EndpointURL,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *DestinationRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM destinations WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}
