package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/car"
)

type Repository interface {
	Create(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id string) (*Driver, error)

	// GetByPhone looks a driver up by normalized phone and joins the
	// assigned car, if any.
	GetByPhone(ctx context.Context, phone string) (*Driver, error)

	// UpdateChatID binds the messaging channel identity to the driver.
	UpdateChatID(ctx context.Context, id string, chatID int64) error

	// AssignCar links a car to a driver. The unique constraint on car_id
	// rejects a car already held by another driver.
	AssignCar(ctx context.Context, id string, carID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, d *Driver) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.drivers").
		Columns("first_name", "last_name", "phone", "car_id").
		Values(d.FirstName, d.LastName, d.Phone, d.CarID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create driver query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&d.ID, &d.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "drivers_car_id_key" {
				return ErrCarTaken
			}
			return ErrDuplicatePhone
		}
		return fmt.Errorf("create driver failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Driver, error) {
	return r.getOne(ctx, squirrel.Eq{"d.id": id})
}

func (r *pgxRepository) GetByPhone(ctx context.Context, phone string) (*Driver, error) {
	return r.getOne(ctx, squirrel.Eq{"d.phone": phone})
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Driver, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"d.id", "d.first_name", "d.last_name", "d.phone", "d.chat_id", "d.car_id", "d.created_at",
		"c.id", "c.plate_number", "c.make", "c.model",
		"c.last_service_mileage", "c.service_interval_km", "c.created_at",
	).
		From("public.drivers d").
		LeftJoin("public.cars c ON d.car_id = c.id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get driver query failed: %w", err)
	}

	var (
		d        Driver
		carID    *string
		plate    *string
		carMake  *string
		carModel *string
		lastKm   *int
		interval *int
		carAt    *time.Time
	)
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.Phone, &d.ChatID, &d.CarID, &d.CreatedAt,
		&carID, &plate, &carMake, &carModel, &lastKm, &interval, &carAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get driver failed: %w", err)
	}

	if carID != nil {
		d.Car = &car.Car{
			ID:                 *carID,
			PlateNumber:        *plate,
			Make:               *carMake,
			Model:              *carModel,
			LastServiceMileage: *lastKm,
			ServiceIntervalKm:  *interval,
		}
		if carAt != nil {
			d.Car.CreatedAt = *carAt
		}
	}
	return &d, nil
}

func (r *pgxRepository) UpdateChatID(ctx context.Context, id string, chatID int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.drivers").
		Set("chat_id", chatID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update chat id query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update chat id failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) AssignCar(ctx context.Context, id string, carID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.drivers").
		Set("car_id", carID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign car query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCarTaken
		}
		return fmt.Errorf("assign car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
