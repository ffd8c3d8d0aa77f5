package http

import (
	"fleetcare/internal/driver"

	carHttp "fleetcare/internal/car/http"
)

type DriverResponse struct {
	ID        string               `json:"id"`
	FirstName string               `json:"first_name"`
	LastName  string               `json:"last_name"`
	Phone     string               `json:"phone"`
	ChatID    *int64               `json:"chat_id"`
	Car       *carHttp.CarResponse `json:"car"`
}

func NewDriverResponse(d *driver.Driver) DriverResponse {
	resp := DriverResponse{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		ChatID:    d.ChatID,
	}
	if d.Car != nil {
		c := carHttp.NewCarResponse(d.Car)
		resp.Car = &c
	}
	return resp
}

type CreateDriverBody struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	CarID     *string `json:"car_id" binding:"omitempty,uuid"`
}

// BindChatBody carries the messaging channel identity to persist on the
// driver record.
type BindChatBody struct {
	ChatID int64 `json:"chat_id" binding:"required"`
}

type AssignCarBody struct {
	CarID string `json:"car_id" binding:"required,uuid"`
}
