package http

import (
	"time"

	"fleetcare/internal/appointment"
	"fleetcare/internal/slot"
)

// SlotTag embeds the resolved slot into appointment responses.
type SlotTag struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type AppointmentResponse struct {
	ID        string    `json:"id"`
	Slot      SlotTag   `json:"slot"`
	DriverID  string    `json:"driver_id"`
	CarID     string    `json:"car_id"`
	CarPlate  string    `json:"car_plate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAppointmentResponse(ap *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID: ap.ID,
		Slot: SlotTag{
			ID:   ap.SlotID,
			Date: ap.SlotDate.Format(slot.DateLayout),
			Time: ap.SlotTime,
		},
		DriverID:  ap.DriverID,
		CarID:     ap.CarID,
		CarPlate:  ap.CarPlate,
		Status:    string(ap.Status),
		CreatedAt: ap.CreatedAt,
	}
}

type CreateAppointmentBody struct {
	SlotID   string `json:"slot_id" binding:"required,uuid"`
	DriverID string `json:"driver_id" binding:"required,uuid"`
	CarID    string `json:"car_id" binding:"required,uuid"`
}
