package appointment

import (
	"context"
	"errors"
	"log"
	"time"

	"fleetcare/internal/driver"
	"fleetcare/internal/event"
	"fleetcare/internal/slot"
)

type Service interface {
	// Book reserves the slot and creates an active appointment. On a lost
	// race the caller gets slot.ErrConflict and no appointment row exists.
	Book(ctx context.Context, driverID, carID, slotID string) (*Appointment, error)

	// Cancel flips an active appointment to the actor's cancelled status
	// and releases its slot. Second call returns ErrAlreadyCancelled and
	// does not touch the slot again.
	Cancel(ctx context.Context, id string, actor Actor) (*Appointment, error)

	ActiveForDriver(ctx context.Context, driverID string) ([]*Appointment, error)
	ActiveByPhone(ctx context.Context, rawPhone string) ([]*Appointment, error)
	FindActive(ctx context.Context, id string) (*Appointment, error)

	// ReconcileOrphans closes partial-failure drift: any busy slot whose
	// appointments are all cancelled is released.
	ReconcileOrphans(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	slots     slot.Service
	drivers   driver.Service
	publisher event.Publisher
}

func NewService(repo Repository, slots slot.Service, drivers driver.Service, publisher event.Publisher) Service {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &service{
		repo:      repo,
		slots:     slots,
		drivers:   drivers,
		publisher: publisher,
	}
}

func (s *service) Book(ctx context.Context, driverID, carID, slotID string) (*Appointment, error) {
	drv, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if drv.CarID == nil {
		return nil, ErrNoCar
	}
	if *drv.CarID != carID {
		return nil, ErrCarMismatch
	}

	// Reserve first: the conditional update is the commit point. A stale
	// free-list from an earlier read loses here, not after the insert.
	if err := s.slots.Reserve(ctx, slotID); err != nil {
		return nil, err
	}

	ap := &Appointment{
		SlotID:   slotID,
		DriverID: driverID,
		CarID:    carID,
		Status:   StatusActive,
	}
	if err := s.repo.Create(ctx, ap); err != nil {
		// Compensate so the reservation does not leak; reconciliation
		// closes the window if even the release fails.
		if relErr := s.slots.Release(ctx, slotID); relErr != nil {
			log.Printf("failed to release slot %s after create error: %v", slotID, relErr)
		}
		if errors.Is(err, ErrSlotTaken) {
			return nil, slot.ErrConflict
		}
		return nil, err
	}

	// The booking is committed at this point; a failed read-back must not
	// surface as a failed booking. The fallback row just lacks the joined
	// slot and car fields.
	full, err := s.repo.GetByID(ctx, ap.ID)
	if err != nil {
		log.Printf("failed to load appointment %s after booking: %v", ap.ID, err)
		full = ap
	}

	s.publish(ctx, event.QueueAppointmentBooked, full)
	return full, nil
}

func (s *service) Cancel(ctx context.Context, id string, actor Actor) (*Appointment, error) {
	status := StatusCancelledUser
	if actor == ActorManager {
		status = StatusCancelledManager
	}

	slotID, err := s.repo.MarkCancelled(ctx, id, status)
	if err != nil {
		return nil, err
	}

	// Release is idempotent, so a retried cancellation cannot toggle the
	// slot twice. A failure here leaves a busy slot with only cancelled
	// appointments, which ReconcileOrphans frees.
	if err := s.slots.Release(ctx, slotID); err != nil {
		log.Printf("failed to release slot %s for cancelled appointment %s: %v", slotID, id, err)
	}

	// Same unknown-outcome rule as Book: the cancellation is committed,
	// so a failed read-back yields a minimal row rather than an error.
	full, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("failed to load appointment %s after cancellation: %v", id, err)
		full = &Appointment{ID: id, SlotID: slotID, Status: status}
	}

	s.publish(ctx, event.QueueAppointmentCancelled, full)
	return full, nil
}

func (s *service) ActiveForDriver(ctx context.Context, driverID string) ([]*Appointment, error) {
	return s.repo.ActiveByDriver(ctx, driverID)
}

func (s *service) ActiveByPhone(ctx context.Context, rawPhone string) ([]*Appointment, error) {
	phone := driver.NormalizePhone(rawPhone)
	if phone == "" {
		return nil, driver.ErrInvalidPhone
	}
	return s.repo.ActiveByPhone(ctx, phone)
}

func (s *service) FindActive(ctx context.Context, id string) (*Appointment, error) {
	ap, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ap.Status != StatusActive {
		return nil, ErrNotFound
	}
	return ap, nil
}

func (s *service) ReconcileOrphans(ctx context.Context) (int64, error) {
	return s.repo.ReleaseOrphanSlots(ctx)
}

func (s *service) publish(ctx context.Context, queue string, ap *Appointment) {
	ev := event.AppointmentEvent{
		AppointmentID: ap.ID,
		DriverID:      ap.DriverID,
		CarID:         ap.CarID,
		SlotID:        ap.SlotID,
		Date:          ap.SlotDate.Format(slot.DateLayout),
		Time:          ap.SlotTime,
		Status:        string(ap.Status),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue, ev); err != nil {
		log.Printf("failed to publish %s event for appointment %s: %v", queue, ap.ID, err)
	}
}
