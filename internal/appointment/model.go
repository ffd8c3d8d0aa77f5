package appointment

import (
	"net/http"
	"time"

	"fleetcare/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "appointment not found")
	ErrAlreadyCancelled = apperror.New(http.StatusConflict, "appointment is already cancelled")
	ErrSlotTaken        = apperror.New(http.StatusConflict, "slot already has an active appointment")
	ErrNoCar            = apperror.New(http.StatusBadRequest, "driver has no assigned car")
	ErrCarMismatch      = apperror.New(http.StatusBadRequest, "car is not assigned to this driver")
)

type Status string

const (
	StatusActive           Status = "active"
	StatusCancelledUser    Status = "cancelled_user"
	StatusCancelledManager Status = "cancelled_manager"
)

// Actor identifies who initiated a cancellation.
type Actor string

const (
	ActorUser    Actor = "user"
	ActorManager Actor = "manager"
)

// Appointment binds one driver and one car to one slot. A slot is busy
// iff exactly one non-cancelled appointment references it; cancelled
// states are terminal and rows are never deleted.
type Appointment struct {
	ID        string
	SlotID    string
	DriverID  string
	CarID     string
	Status    Status
	CreatedAt time.Time

	// Joined on reads.
	SlotDate time.Time
	SlotTime string
	CarPlate string
}
