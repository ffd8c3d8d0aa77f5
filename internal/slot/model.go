package slot

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleetcare/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "slot not found")
	ErrConflict    = apperror.New(http.StatusConflict, "slot already taken")
	ErrDuplicate   = apperror.New(http.StatusConflict, "slot already exists")
	ErrInvalidTime = apperror.New(http.StatusBadRequest, "invalid time format, use HH:MM")
	ErrInvalidDate = apperror.New(http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
)

// DateLayout is the wire format for slot dates.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusFree Status = "free"
	StatusBusy Status = "busy"
)

// Slot is a bookable (date, time) capacity unit.
// The (Date, Time) pair is unique across all slots; the database
// constraint is the source of truth for that invariant.
type Slot struct {
	ID        string
	Date      time.Time // date only
	Time      string    // "HH:MM"
	Status    Status
	CreatedAt time.Time
}

// ParseClock validates and normalizes a time-of-day string to "HH:MM".
// Accepts "9:00" as well as "09:00".
func ParseClock(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return "", ErrInvalidTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", ErrInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", ErrInvalidTime
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// ParseDate parses a wire-format date into a date-only time.Time in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
