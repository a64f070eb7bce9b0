package trip

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestmap/nestmap/internal/database"
	"github.com/nestmap/nestmap/internal/itinerary"
)

const tripColumns = `
	id, user_id, title, start_date, end_date, time_zone, completed,
	budget::text, currency, alert_threshold, created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a trip by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.pool.QueryRow(ctx, query, id))
}

// GetByUserAndID retrieves a trip owned by userID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, tripID string) (*Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND user_id = $2`
	return scanTrip(r.pool.QueryRow(ctx, query, tripID, userID))
}

// List retrieves a user's trips, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	var (
		rows pgx.Rows
		err  error
	)
	if opts.Cursor == "" {
		query := `
			SELECT ` + tripColumns + `
			FROM trips
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		rows, err = r.pool.Query(ctx, query, userID, fetchLimit)
	} else {
		query := `
			SELECT ` + tripColumns + `
			FROM trips
			WHERE user_id = $1
			  AND (created_at, id) < (SELECT created_at, id FROM trips WHERE id = $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		rows, err = r.pool.Query(ctx, query, userID, fetchLimit, opts.Cursor)
	}
	if err != nil {
		return nil, err
	}

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: trips}
	if len(trips) > limit {
		result.Items = trips[:limit]
		result.NextCursor = trips[limit-1].ID
	}
	return result, nil
}

// ListActive retrieves trips that are not completed and end on or after from.
func (r *PostgresRepository) ListActive(ctx context.Context, from itinerary.Date, limit int) ([]*Trip, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE completed = FALSE AND end_date >= $1
		ORDER BY start_date, id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, from.In(time.UTC), limit)
	if err != nil {
		return nil, err
	}
	return collectTrips(rows)
}

// Create creates a new trip.
func (r *PostgresRepository) Create(ctx context.Context, t *Trip) error {
	query := `
		INSERT INTO trips (
			id, user_id, title, start_date, end_date, time_zone, completed,
			budget, currency, alert_threshold, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.StartDate.In(time.UTC),
		t.EndDate.In(time.UTC),
		t.TimeZone,
		t.Completed,
		database.NumericText(t.Budget),
		t.Currency,
		t.AlertThreshold,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

// Update updates an existing trip.
func (r *PostgresRepository) Update(ctx context.Context, t *Trip) error {
	query := `
		UPDATE trips SET
			title = $2,
			start_date = $3,
			end_date = $4,
			time_zone = $5,
			completed = $6,
			budget = $7::numeric,
			currency = $8,
			alert_threshold = $9,
			updated_at = $10
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.StartDate.In(time.UTC),
		t.EndDate.In(time.UTC),
		t.TimeZone,
		t.Completed,
		database.NumericText(t.Budget),
		t.Currency,
		t.AlertThreshold,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Delete deletes a trip by ID. Activities and todos cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	return err
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var (
		t          Trip
		start, end time.Time
		budget     *string
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&start,
		&end,
		&t.TimeZone,
		&t.Completed,
		&budget,
		&t.Currency,
		&t.AlertThreshold,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	t.StartDate = itinerary.DateOf(start)
	t.EndDate = itinerary.DateOf(end)
	if t.Budget, err = database.ParseNumeric(budget); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTrips(rows pgx.Rows) ([]*Trip, error) {
	defer rows.Close()

	var trips []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
