package car

import (
	"net/http"
	"time"

	"fleetcare/internal/pkg/apperror"
)

var (
	ErrNotFound       = apperror.New(http.StatusNotFound, "car not found")
	ErrDuplicatePlate = apperror.New(http.StatusConflict, "car with this plate number already exists")
)

// Car is a serviced vehicle. NextServiceMileage is always derived from
// LastServiceMileage and ServiceIntervalKm and is never stored on its own.
type Car struct {
	ID                 string
	PlateNumber        string
	Make               string
	Model              string
	LastServiceMileage int
	ServiceIntervalKm  int
	CreatedAt          time.Time
}

// NextServiceMileage returns the odometer reading at which the next
// service is due.
func (c *Car) NextServiceMileage() int {
	return c.LastServiceMileage + c.ServiceIntervalKm
}
