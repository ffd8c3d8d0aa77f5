package http

import (
	"fleetcare/internal/slot"
)

type SlotResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

func NewSlotResponse(s *slot.Slot) SlotResponse {
	return SlotResponse{
		ID:     s.ID,
		Date:   s.Date.Format(slot.DateLayout),
		Time:   s.Time,
		Status: string(s.Status),
	}
}

// ProvisionBody creates one or more slots for a date: a primary time plus
// an optional comma-separated list of additional times ("09:00, 11:00").
type ProvisionBody struct {
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	BulkTimes string `json:"bulk_times"`
}

type ProvisionResponse struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}

func NewProvisionResponse(res *slot.ProvisionResult) ProvisionResponse {
	skipped := res.Skipped
	if skipped == nil {
		skipped = make([]string, 0)
	}
	return ProvisionResponse{Created: res.Created, Skipped: skipped}
}
