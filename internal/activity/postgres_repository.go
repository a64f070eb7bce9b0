package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestmap/nestmap/internal/database"
	"github.com/nestmap/nestmap/internal/itinerary"
)

const activityColumns = `
	id, trip_id, title, date, time, location_name, latitude, longitude,
	tag, notes, travel_mode, travel_time_from_previous, sort_order, completed,
	price::text, actual_cost::text, is_paid, cost_category, split_between,
	kid_friendly, stroller_accessible, created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL activity repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves an activity by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	return scanActivity(r.pool.QueryRow(ctx, query, id))
}

// GetByTripAndID retrieves an activity that belongs to tripID.
func (r *PostgresRepository) GetByTripAndID(ctx context.Context, tripID, id string) (*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1 AND trip_id = $2`
	return scanActivity(r.pool.QueryRow(ctx, query, id, tripID))
}

// ListByTrip retrieves a trip's activities ordered by date, time and order.
func (r *PostgresRepository) ListByTrip(ctx context.Context, tripID string) ([]*Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE trip_id = $1
		ORDER BY date, time COLLATE "C", sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// Create creates a new activity.
func (r *PostgresRepository) Create(ctx context.Context, a *Activity) error {
	query := `
		INSERT INTO activities (
			id, trip_id, title, date, time, location_name, latitude, longitude,
			tag, notes, travel_mode, travel_time_from_previous, sort_order, completed,
			price, actual_cost, is_paid, cost_category, split_between,
			kid_friendly, stroller_accessible, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15::numeric, $16::numeric, $17, $18, $19, $20, $21, $22, $23
		)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.TripID,
		a.Title,
		a.Date.In(time.UTC),
		a.Time,
		a.LocationName,
		a.Latitude,
		a.Longitude,
		string(a.Tag),
		a.Notes,
		string(a.TravelMode),
		a.TravelTimeFromPrevious,
		a.Order,
		a.Completed,
		database.NumericText(a.Price),
		database.NumericText(a.ActualCost),
		a.IsPaid,
		string(a.CostCategory),
		a.SplitBetween,
		a.KidFriendly,
		a.StrollerAccessible,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// Update updates an existing activity.
func (r *PostgresRepository) Update(ctx context.Context, a *Activity) error {
	query := `
		UPDATE activities SET
			title = $2,
			date = $3,
			time = $4,
			location_name = $5,
			latitude = $6,
			longitude = $7,
			tag = $8,
			notes = $9,
			travel_mode = $10,
			travel_time_from_previous = $11,
			sort_order = $12,
			completed = $13,
			price = $14::numeric,
			actual_cost = $15::numeric,
			is_paid = $16,
			cost_category = $17,
			split_between = $18,
			kid_friendly = $19,
			stroller_accessible = $20,
			updated_at = $21
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Title,
		a.Date.In(time.UTC),
		a.Time,
		a.LocationName,
		a.Latitude,
		a.Longitude,
		string(a.Tag),
		a.Notes,
		string(a.TravelMode),
		a.TravelTimeFromPrevious,
		a.Order,
		a.Completed,
		database.NumericText(a.Price),
		database.NumericText(a.ActualCost),
		a.IsPaid,
		string(a.CostCategory),
		a.SplitBetween,
		a.KidFriendly,
		a.StrollerAccessible,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// Delete deletes an activity by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return err
}

// DeleteByTrip deletes every activity of a trip.
func (r *PostgresRepository) DeleteByTrip(ctx context.Context, tripID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE trip_id = $1`, tripID)
	return err
}

// UpdateTravelTimes sets travelTimeFromPrevious for activities of a trip in
// one transaction.
func (r *PostgresRepository) UpdateTravelTimes(ctx context.Context, tripID string, times map[string]string) (int, error) {
	if len(times) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE activities
		SET travel_time_from_previous = $3, updated_at = now()
		WHERE id = $1 AND trip_id = $2 AND travel_time_from_previous <> $3
	`

	batch := &pgx.Batch{}
	for id, value := range times {
		batch.Queue(query, id, tripID, value)
	}

	results := tx.SendBatch(ctx, batch)
	updated := 0
	for range times {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, err
		}
		updated += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func scanActivity(row pgx.Row) (*Activity, error) {
	var (
		a                  Activity
		date               time.Time
		tag, mode, costCat string
		price, actual      *string
	)
	err := row.Scan(
		&a.ID,
		&a.TripID,
		&a.Title,
		&date,
		&a.Time,
		&a.LocationName,
		&a.Latitude,
		&a.Longitude,
		&tag,
		&a.Notes,
		&mode,
		&a.TravelTimeFromPrevious,
		&a.Order,
		&a.Completed,
		&price,
		&actual,
		&a.IsPaid,
		&costCat,
		&a.SplitBetween,
		&a.KidFriendly,
		&a.StrollerAccessible,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	a.Date = itinerary.DateOf(date)
	a.Tag = itinerary.ParseTag(tag)
	a.TravelMode = itinerary.ParseTravelMode(mode)
	a.CostCategory = itinerary.ParseCostCategory(costCat)
	if a.Price, err = database.ParseNumeric(price); err != nil {
		return nil, err
	}
	if a.ActualCost, err = database.ParseNumeric(actual); err != nil {
		return nil, err
	}
	return &a, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
