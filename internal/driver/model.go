package driver

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"fleetcare/internal/car"
	"fleetcare/internal/pkg/apperror"
)

var (
	ErrNotFound       = apperror.New(http.StatusNotFound, "driver not found")
	ErrDuplicatePhone = apperror.New(http.StatusConflict, "driver with this phone already exists")
	ErrCarTaken       = apperror.New(http.StatusConflict, "car is already assigned to another driver")
	ErrInvalidPhone   = apperror.New(http.StatusBadRequest, "phone must contain digits")
)

// Driver is the identity and authorization anchor. ChatID is a
// best-effort binding to the messaging channel; CarID references at most
// one car, and a car belongs to at most one driver.
type Driver struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string // digits only
	ChatID    *int64
	CarID     *string
	Car       *car.Car // populated on phone lookup
	CreatedAt time.Time
}

// NormalizePhone strips every non-digit character, so that
// "+7 (999) 123-45-67" and "79991234567" resolve to the same driver.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
