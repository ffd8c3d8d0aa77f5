package car

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, c *Car) error
	GetByID(ctx context.Context, id string) (*Car, error)
	Update(ctx context.Context, c *Car) error

	// ListAvailable returns cars not assigned to any driver, ordered by
	// plate number.
	ListAvailable(ctx context.Context) ([]*Car, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const carColumns = "id, plate_number, make, model, last_service_mileage, service_interval_km, created_at"

func (r *pgxRepository) Create(ctx context.Context, c *Car) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.cars").
		Columns("plate_number", "make", "model", "last_service_mileage", "service_interval_km").
		Values(c.PlateNumber, c.Make, c.Model, c.LastServiceMileage, c.ServiceIntervalKm).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create car query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicatePlate
		}
		return fmt.Errorf("create car failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(carColumns).
		From("public.cars").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get car query failed: %w", err)
	}

	var c Car
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.PlateNumber, &c.Make, &c.Model,
		&c.LastServiceMileage, &c.ServiceIntervalKm, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get car failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Car) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.cars").
		Set("plate_number", c.PlateNumber).
		Set("make", c.Make).
		Set("model", c.Model).
		Set("last_service_mileage", c.LastServiceMileage).
		Set("service_interval_km", c.ServiceIntervalKm).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update car query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicatePlate
		}
		return fmt.Errorf("update car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListAvailable(ctx context.Context) ([]*Car, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(carColumns).
		From("public.cars").
		Where("id NOT IN (SELECT car_id FROM public.drivers WHERE car_id IS NOT NULL)").
		OrderBy("plate_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list available cars query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available cars failed: %w", err)
	}
	defer rows.Close()

	var cars []*Car
	for rows.Next() {
		var c Car
		if err := rows.Scan(
			&c.ID, &c.PlateNumber, &c.Make, &c.Model,
			&c.LastServiceMileage, &c.ServiceIntervalKm, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan car failed: %w", err)
		}
		cars = append(cars, &c)
	}
	return cars, rows.Err()
}
