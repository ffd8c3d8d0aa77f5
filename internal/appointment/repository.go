package appointment

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
	// Create inserts an active appointment. The partial unique index on
	// (slot_id) WHERE status='active' rejects a second active appointment
	// for the same slot with ErrSlotTaken.
	Create(ctx context.Context, ap *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)

	// MarkCancelled flips an active appointment to the given cancelled
	// status and returns its slot id. Returns ErrAlreadyCancelled when the
	// appointment exists but is no longer active.
	MarkCancelled(ctx context.Context, id string, status Status) (string, error)

	ActiveByDriver(ctx context.Context, driverID string) ([]*Appointment, error)
	ActiveByPhone(ctx context.Context, phone string) ([]*Appointment, error)

	// ReleaseOrphanSlots frees busy slots that have appointment history
	// but no active appointment. Slots busied by administrative fiat
	// (no appointment rows at all) are left untouched.
	ReleaseOrphanSlots(ctx context.Context) (int64, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, ap *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.appointments").
		Columns("slot_id", "driver_id", "car_id", "status").
		Values(ap.SlotID, ap.DriverID, ap.CarID, ap.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&ap.ID, &ap.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment failed: %w", err)
	}
	return nil
}

const appointmentJoin = "public.appointments a " +
	"JOIN public.slots s ON a.slot_id = s.id " +
	"JOIN public.cars c ON a.car_id = c.id"

var appointmentColumns = []string{
	"a.id", "a.slot_id", "a.driver_id", "a.car_id", "a.status", "a.created_at",
	"s.date", "s.slot_time", "c.plate_number",
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var ap Appointment
	if err := row.Scan(
		&ap.ID, &ap.SlotID, &ap.DriverID, &ap.CarID, &ap.Status, &ap.CreatedAt,
		&ap.SlotDate, &ap.SlotTime, &ap.CarPlate,
	); err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From(appointmentJoin).
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query failed: %w", err)
	}

	ap, err := scanAppointment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return ap, nil
}

func (r *pgxRepository) MarkCancelled(ctx context.Context, id string, status Status) (string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("status", status).
		Where(squirrel.Eq{"id": id, "status": StatusActive}).
		Suffix("RETURNING slot_id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build cancel appointment query failed: %w", err)
	}

	var slotID string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&slotID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conditional update missed: distinguish a missing row from
			// an appointment that already left the active state.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return "", getErr
			}
			return "", ErrAlreadyCancelled
		}
		return "", fmt.Errorf("cancel appointment failed: %w", err)
	}
	return slotID, nil
}

func (r *pgxRepository) ActiveByDriver(ctx context.Context, driverID string) ([]*Appointment, error) {
	return r.listActive(ctx, squirrel.Eq{"a.driver_id": driverID})
}

func (r *pgxRepository) ActiveByPhone(ctx context.Context, phone string) ([]*Appointment, error) {
	return r.listActive(ctx, squirrel.Eq{"d.phone": phone})
}

func (r *pgxRepository) listActive(ctx context.Context, where squirrel.Eq) ([]*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From(appointmentJoin + " JOIN public.drivers d ON a.driver_id = d.id").
		Where(squirrel.Eq{"a.status": StatusActive}).
		Where(where).
		OrderBy("s.date ASC", "s.slot_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list appointments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments failed: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		ap, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment failed: %w", err)
		}
		items = append(items, ap)
	}
	return items, rows.Err()
}

func (r *pgxRepository) ReleaseOrphanSlots(ctx context.Context) (int64, error) {
	query := `
		UPDATE public.slots s SET status = 'free'
		WHERE s.status = 'busy'
		  AND EXISTS (SELECT 1 FROM public.appointments a WHERE a.slot_id = s.id)
		  AND NOT EXISTS (
		      SELECT 1 FROM public.appointments a
		      WHERE a.slot_id = s.id AND a.status = 'active'
		  )`

	ct, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("release orphan slots failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
