package todo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL todo repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetByTripAndID(ctx context.Context, tripID, id string) (*Todo, error) {
	query := `
		SELECT id, trip_id, task, completed, created_at, updated_at
		FROM todos
		WHERE id = $1 AND trip_id = $2
	`

	var t Todo
	err := r.pool.QueryRow(ctx, query, id, tripID).Scan(
		&t.ID, &t.TripID, &t.Task, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) ListByTrip(ctx context.Context, tripID string) ([]*Todo, error) {
	query := `
		SELECT id, trip_id, task, completed, created_at, updated_at
		FROM todos
		WHERE trip_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}

	todos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Todo, error) {
		var t Todo
		err := row.Scan(&t.ID, &t.TripID, &t.Task, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
		return &t, err
	})
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = make([]*Todo, 0)
	}
	return todos, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *Todo) error {
	query := `
		INSERT INTO todos (id, trip_id, task, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, t.ID, t.TripID, t.Task, t.Completed, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, t *Todo) error {
	query := `UPDATE todos SET task = $2, completed = $3, updated_at = $4 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, t.ID, t.Task, t.Completed, t.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) DeleteByTrip(ctx context.Context, tripID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE trip_id = $1`, tripID)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
